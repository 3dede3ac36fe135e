package log

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetMinLevel(level)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetMinLevel(LevelInfo)
	})
	return &buf
}

func TestLog_FormatsFields(t *testing.T) {
	buf := captureOutput(t, LevelDebug)

	Warn(CatOutbox, "remote call failed", "kind", "delete_task", "attempt")

	out := buf.String()
	require.Contains(t, out, "[WARN] [outbox] remote call failed")
	require.Contains(t, out, "kind=delete_task")
	require.Contains(t, out, "attempt=")
}

func TestLog_RespectsMinLevel(t *testing.T) {
	buf := captureOutput(t, LevelWarn)

	Info(CatTimer, "tick")
	Debug(CatTimer, "tick")
	require.Empty(t, buf.String())

	ErrorErr(CatDB, "write failed", errors.New("disk full"))
	require.Contains(t, buf.String(), "error=disk full")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, LevelWarn, ParseLevel("warning"))
	require.Equal(t, LevelError, ParseLevel(" error "))
	require.Equal(t, LevelInfo, ParseLevel("verbose"))
}
