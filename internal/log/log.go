// Package log provides structured, category-tagged logging for FocusFlow.
// Entries look like: 2026-10-18T10:45:00 [WARN] [outbox] remote call failed kind=delete_task error=...
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to a Level. Unknown names fall back to info.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type Category string

const (
	CatTimer   Category = "timer"   // focus/break state machine
	CatSync    Category = "sync"    // session synchronizer decisions
	CatArchive Category = "archive" // local archive and daily reset
	CatOutbox  Category = "outbox"  // queued remote side effects
	CatRemote  Category = "remote"  // HTTP client calls
	CatHTTP    Category = "http"    // collaborator server
	CatAuth    Category = "auth"
	CatConfig  Category = "config"
	CatDB      Category = "db"
)

type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	closer   io.Closer
	minLevel Level
}

var defaultLogger = &Logger{writer: os.Stderr, minLevel: LevelInfo}

// Init redirects the default logger to the file at path.
// Returns a cleanup function to close the file.
func Init(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // user-configured log path
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	defaultLogger.mu.Lock()
	defaultLogger.writer = f
	defaultLogger.closer = f
	defaultLogger.mu.Unlock()

	return func() {
		defaultLogger.mu.Lock()
		defer defaultLogger.mu.Unlock()
		if defaultLogger.closer != nil {
			_ = defaultLogger.closer.Close()
			defaultLogger.closer = nil
		}
		defaultLogger.writer = os.Stderr
	}, nil
}

func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defaultLogger.writer = w
	defaultLogger.mu.Unlock()
}

func SetMinLevel(level Level) {
	defaultLogger.mu.Lock()
	defaultLogger.minLevel = level
	defaultLogger.mu.Unlock()
}

func Debug(cat Category, msg string, fields ...any) {
	defaultLogger.log(LevelDebug, cat, msg, fields...)
}

func Info(cat Category, msg string, fields ...any) {
	defaultLogger.log(LevelInfo, cat, msg, fields...)
}

func Warn(cat Category, msg string, fields ...any) {
	defaultLogger.log(LevelWarn, cat, msg, fields...)
}

func Error(cat Category, msg string, fields ...any) {
	defaultLogger.log(LevelError, cat, msg, fields...)
}

func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	defaultLogger.log(LevelError, cat, msg, fields...)
}

func (l *Logger) log(level Level, cat Category, msg string, fields ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.minLevel || l.writer == nil {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&b, " [%s] [%s] %s", level, cat, msg)

	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	// orphan key with no value
	if len(fields)%2 != 0 {
		fmt.Fprintf(&b, " %v=", fields[len(fields)-1])
	}
	b.WriteString("\n")

	_, _ = io.WriteString(l.writer, b.String())
}
