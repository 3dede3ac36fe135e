package engine

import (
	"context"

	"focusflow/internal/log"
	"focusflow/internal/model"
	"focusflow/internal/timer"
)

// Login switches to userID: its archive is shown at once, its settings rebind
// the timer and its remote tasks are merged when they arrive.
func (e *Engine) Login(ctx context.Context, userID string) ([]model.Task, error) {
	var shown []model.Task
	err := e.post(ctx, func(ctx context.Context) {
		shown = e.sync.Login(ctx, userID)
		cfg, err := e.cfg.Archive.Settings(ctx, userID, e.cfg.Defaults)
		if err != nil {
			log.ErrorErr(log.CatConfig, "load settings", err, "user", userID)
		}
		e.timer.Reconfigure(cfg)
	})
	return shown, err
}

func (e *Engine) Logout(ctx context.Context) error {
	return e.post(ctx, func(context.Context) {
		e.sync.Logout()
		e.timer.Reconfigure(e.cfg.Defaults)
	})
}

// Focus binds the timer to taskID. Changing the task resets the timer; focusing
// the task already bound leaves it untouched. It reports whether the focus moved.
func (e *Engine) Focus(ctx context.Context, taskID string) (bool, error) {
	var changed bool
	err := e.post(ctx, func(context.Context) {
		changed = e.sync.StartFocusing(taskID)
		if changed {
			e.timer.Reset()
		}
	})
	return changed, err
}

func (e *Engine) Toggle(ctx context.Context) (bool, error) {
	var running bool
	err := e.post(ctx, func(context.Context) {
		if _, ok := e.sync.Focused(); !ok {
			return
		}
		running = e.timer.Toggle()
	})
	return running, err
}

func (e *Engine) Reset(ctx context.Context) error {
	return e.post(ctx, func(context.Context) {
		e.timer.Reset()
	})
}

// Finish completes the focused task early, crediting the focus time elapsed in the current cycle.
func (e *Engine) Finish(ctx context.Context) error {
	return e.post(ctx, func(ctx context.Context) {
		if _, ok := e.sync.Focused(); !ok {
			return
		}
		ev := e.timer.Finish()
		e.sync.HandleTimerEvents(ctx, []timer.Event{ev}, e.timer.Config().FocusTime)
	})
}

func (e *Engine) AddTask(ctx context.Context, title string) (bool, error) {
	var queued bool
	err := e.post(ctx, func(context.Context) {
		queued = e.sync.AddTask(title)
	})
	return queued, err
}

func (e *Engine) ClearTasks(ctx context.Context) (bool, error) {
	var queued bool
	err := e.post(ctx, func(context.Context) {
		queued = e.sync.ClearTasks()
		if queued {
			e.timer.Reset()
		}
	})
	return queued, err
}

// UpdateSettings validates and stores cfg for the current user and rebinds the
// timer. An invalid cfg is rejected with model.ErrInvalidSettings and the
// running configuration is kept.
func (e *Engine) UpdateSettings(ctx context.Context, cfg model.CycleConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var saveErr error
	err := e.post(ctx, func(ctx context.Context) {
		if saveErr = e.cfg.Archive.SaveSettings(ctx, e.sync.UserID(), cfg); saveErr != nil {
			e.notice = "settings not saved: " + saveErr.Error()
			return
		}
		if cfg == e.timer.Config() {
			return
		}
		log.Info(log.CatConfig, "settings updated", "user", e.sync.UserID(),
			"focus", cfg.FocusTime, "shortBreak", cfg.ShortBreak, "cycle", cfg.SessionCycle)
		e.timer.Reconfigure(cfg)
	})
	if err != nil {
		return err
	}
	return saveErr
}

func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := e.post(ctx, func(context.Context) {
		snap = e.snapshot()
	})
	return snap, err
}
