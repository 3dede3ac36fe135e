package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"focusflow/internal/log"
)

const DefaultWatchDebounce = 300 * time.Millisecond

// Watch calls onChange after path is written, coalescing bursts of events
// within debounce. The directory is watched so editors that replace the file
// are seen too. Watch returns when ctx ends.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		var fire <-chan time.Time
		if timer != nil {
			fire = timer.C
		}

		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}

		case <-fire:
			timer = nil
			log.Debug(log.CatConfig, "config file changed", "path", abs)
			onChange()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn(log.CatConfig, "config watcher error", "error", err)
		}
	}
}
