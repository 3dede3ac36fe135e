package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"focusflow/internal/archive"
	"focusflow/internal/clock"
	"focusflow/internal/kvstore"
	"focusflow/internal/model"
)

type listerFunc func(ctx context.Context, userID string) ([]model.Task, error)

func (f listerFunc) ListTasks(ctx context.Context, userID string) ([]model.Task, error) {
	return f(ctx, userID)
}

func newArchive(t *testing.T, done ...model.Task) *archive.Manager {
	t.Helper()
	arch := archive.NewManager(kvstore.NewMemory(), clock.NewManual(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)))
	for _, task := range done {
		_, err := arch.Archive(context.Background(), "alice", task)
		require.NoError(t, err)
	}
	return arch
}

func TestPrintTasks_ArchiveShownBeforeSlowFetch(t *testing.T) {
	arch := newArchive(t, model.Task{ID: "d1", Title: "ship release"})
	var out bytes.Buffer

	var seenBeforeFetch string
	hung := listerFunc(func(ctx context.Context, _ string) ([]model.Task, error) {
		seenBeforeFetch = out.String()
		<-ctx.Done()
		return nil, ctx.Err()
	})

	start := time.Now()
	require.NoError(t, printTasks(context.Background(), &out, arch, hung, "alice", 50*time.Millisecond))
	require.Less(t, time.Since(start), 2*time.Second)

	require.Contains(t, seenBeforeFetch, "ship release")
	require.Contains(t, out.String(), "offline")
}

func TestPrintTasks_MergesRemoteView(t *testing.T) {
	arch := newArchive(t, model.Task{ID: "d1", Title: "ship release"})
	var out bytes.Buffer

	remote := listerFunc(func(context.Context, string) ([]model.Task, error) {
		return []model.Task{
			{ID: "d1", Title: "ship release"},
			{ID: "a1", Title: "write notes", FocusSessions: 2},
		}, nil
	})
	require.NoError(t, printTasks(context.Background(), &out, arch, remote, "alice", time.Second))

	at := strings.Index(out.String(), "all tasks")
	require.GreaterOrEqual(t, at, 0)
	merged := out.String()[at:]
	require.Contains(t, merged, "ship release")
	require.Contains(t, merged, "write notes")
	require.NotContains(t, out.String(), "offline")
}
