// Package archive keeps the per-user record of completed tasks on the local
// device and purges it once per virtual day.
package archive

import (
	"context"
	"errors"
	"fmt"

	"focusflow/internal/clock"
	"focusflow/internal/kvstore"
	"focusflow/internal/log"
	"focusflow/internal/model"
)

const (
	archivePrefix  = "archive:"
	settingsPrefix = "settings:"
	watermarkKey   = "resetWatermark"
)

func archiveKey(userID string) string  { return archivePrefix + userID }
func settingsKey(userID string) string { return settingsPrefix + userID }

type Manager struct {
	store kvstore.Store
	clock clock.Clock
}

func NewManager(store kvstore.Store, clk clock.Clock) *Manager {
	return &Manager{store: store, clock: clk}
}

func (m *Manager) Load(ctx context.Context, userID string) ([]model.Task, error) {
	if userID == "" {
		return nil, nil
	}
	var tasks []model.Task
	err := kvstore.GetJSON(ctx, m.store, archiveKey(userID), &tasks)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []model.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load archive: %w", err)
	}
	return tasks, nil
}

// Archive appends a completed snapshot of task. A task id already present is
// left as is and Archive reports false.
func (m *Manager) Archive(ctx context.Context, userID string, task model.Task) (bool, error) {
	if userID == "" || task.ID == "" {
		return false, nil
	}

	tasks, err := m.Load(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, existing := range tasks {
		if existing.ID == task.ID {
			return false, nil
		}
	}

	tasks = append(tasks, task.Archived())
	if err := kvstore.PutJSON(ctx, m.store, archiveKey(userID), tasks); err != nil {
		return false, fmt.Errorf("write archive: %w", err)
	}
	return true, nil
}

func (m *Manager) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if err := m.store.Delete(ctx, archiveKey(userID)); err != nil {
		return fmt.Errorf("clear archive: %w", err)
	}
	return nil
}

func (m *Manager) Watermark(ctx context.Context) (string, error) {
	var day string
	err := kvstore.GetJSON(ctx, m.store, watermarkKey, &day)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read watermark: %w", err)
	}
	return day, nil
}

// ApplyDailyReset purges the archives of every user when the virtual day has
// moved since the stored watermark. It reports whether a purge happened.
func (m *Manager) ApplyDailyReset(ctx context.Context) (bool, error) {
	today := clock.VirtualDay(m.clock.Now())

	last, err := m.Watermark(ctx)
	if err != nil {
		return false, err
	}
	if last == today {
		return false, nil
	}

	keys, err := m.store.Keys(ctx, archivePrefix)
	if err != nil {
		return false, fmt.Errorf("list archives: %w", err)
	}
	if err := m.store.Delete(ctx, keys...); err != nil {
		return false, fmt.Errorf("purge archives: %w", err)
	}
	if err := kvstore.PutJSON(ctx, m.store, watermarkKey, today); err != nil {
		return false, fmt.Errorf("write watermark: %w", err)
	}

	log.Info(log.CatArchive, "daily reset", "previous", last, "day", today, "archives", len(keys))
	return true, nil
}

// Settings returns the stored cycle configuration of userID, or fallback when
// none was saved.
func (m *Manager) Settings(ctx context.Context, userID string, fallback model.CycleConfig) (model.CycleConfig, error) {
	if userID == "" {
		return fallback, nil
	}
	var cfg model.CycleConfig
	err := kvstore.GetJSON(ctx, m.store, settingsKey(userID), &cfg)
	if errors.Is(err, kvstore.ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("read settings: %w", err)
	}
	if cfg.Validate() != nil {
		log.Warn(log.CatArchive, "ignoring stored settings", "user", userID)
		return fallback, nil
	}
	return cfg, nil
}

// SaveSettings persists cfg for userID. Invalid values are rejected with
// model.ErrInvalidSettings and the stored configuration is left unchanged.
func (m *Manager) SaveSettings(ctx context.Context, userID string, cfg model.CycleConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if userID == "" {
		return nil
	}
	if err := kvstore.PutJSON(ctx, m.store, settingsKey(userID), cfg); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
