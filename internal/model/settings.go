package model

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultFocusTimeSeconds  = 40 * 60
	DefaultShortBreakSeconds = 10 * 60
	DefaultLongBreakSeconds  = 20 * 60
	DefaultSessionCycle      = 4
)

var ErrInvalidSettings = errors.New("invalid settings")

// CycleConfig holds the durations of one focus cycle, in seconds.
// LongBreak is accepted and persisted but no timer transition ever enters it.
type CycleConfig struct {
	FocusTime    int `json:"focusTime"`
	ShortBreak   int `json:"shortBreak"`
	LongBreak    int `json:"longBreak"`
	SessionCycle int `json:"sessionCycle"`
}

func DefaultCycleConfig() CycleConfig {
	return CycleConfig{
		FocusTime:    DefaultFocusTimeSeconds,
		ShortBreak:   DefaultShortBreakSeconds,
		LongBreak:    DefaultLongBreakSeconds,
		SessionCycle: DefaultSessionCycle,
	}
}

// CycleConfigFromDurations converts wall-clock durations to a CycleConfig, truncating to whole seconds.
func CycleConfigFromDurations(focus, shortBreak, longBreak time.Duration, cycle int) CycleConfig {
	return CycleConfig{
		FocusTime:    int(focus / time.Second),
		ShortBreak:   int(shortBreak / time.Second),
		LongBreak:    int(longBreak / time.Second),
		SessionCycle: cycle,
	}
}

func (c CycleConfig) Validate() error {
	switch {
	case c.FocusTime <= 0:
		return fmt.Errorf("%w: focusTime must be positive, got %d", ErrInvalidSettings, c.FocusTime)
	case c.ShortBreak <= 0:
		return fmt.Errorf("%w: shortBreak must be positive, got %d", ErrInvalidSettings, c.ShortBreak)
	case c.LongBreak <= 0:
		return fmt.Errorf("%w: longBreak must be positive, got %d", ErrInvalidSettings, c.LongBreak)
	case c.SessionCycle <= 0:
		return fmt.Errorf("%w: sessionCycle must be positive, got %d", ErrInvalidSettings, c.SessionCycle)
	}
	return nil
}
