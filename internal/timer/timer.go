// Package timer implements the focus/break countdown for a single task.
//
// The timer is a plain state machine: the caller feeds it ticks and intents and
// receives the resulting events. It never schedules anything itself. Every
// transition that should cancel the pending tick (pause, phase change, reset)
// bumps the generation, and Tick ignores ticks scheduled against an older one.
package timer

import (
	"focusflow/internal/model"
)

type Phase int

const (
	Focusing Phase = iota
	ShortBreak
)

func (p Phase) String() string {
	switch p {
	case Focusing:
		return "focusing"
	case ShortBreak:
		return "short_break"
	default:
		return "unknown"
	}
}

type EventKind int

const (
	SessionCompleted EventKind = iota + 1
	CycleCompleted
	ManualCompletion
	PhaseChanged
)

func (k EventKind) String() string {
	switch k {
	case SessionCompleted:
		return "session_completed"
	case CycleCompleted:
		return "cycle_completed"
	case ManualCompletion:
		return "manual_completion"
	case PhaseChanged:
		return "phase_changed"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind EventKind
	// SessionCount is set for SessionCompleted.
	SessionCount int
	// TotalElapsedSeconds is set for ManualCompletion.
	TotalElapsedSeconds int
	// Phase is the phase entered, set for PhaseChanged.
	Phase Phase
}

type State struct {
	Phase            Phase  `json:"phase"`
	SecondsRemaining int    `json:"secondsRemaining"`
	PhaseDuration    int    `json:"phaseDuration"`
	SessionCount     int    `json:"sessionCount"`
	SessionCycle     int    `json:"sessionCycle"`
	Running          bool   `json:"running"`
	Generation       uint64 `json:"generation"`
}

type Timer struct {
	cfg       model.CycleConfig
	phase     Phase
	remaining int
	duration  int
	sessions  int
	running   bool
	gen       uint64
}

func New(cfg model.CycleConfig) *Timer {
	t := &Timer{cfg: cfg}
	t.Reset()
	return t
}

func (t *Timer) Config() model.CycleConfig {
	return t.cfg
}

func (t *Timer) Reconfigure(cfg model.CycleConfig) {
	t.cfg = cfg
	t.Reset()
}

// Reset forces the initial state: stopped, focusing, full focus time, no sessions.
func (t *Timer) Reset() {
	t.phase = Focusing
	t.duration = t.cfg.FocusTime
	t.remaining = t.cfg.FocusTime
	t.sessions = 0
	t.running = false
	t.gen++
}

func (t *Timer) Running() bool {
	return t.running
}

func (t *Timer) Generation() uint64 {
	return t.gen
}

func (t *Timer) Start() bool {
	if t.running || t.remaining <= 0 {
		return false
	}
	t.running = true
	t.gen++
	return true
}

func (t *Timer) Pause() bool {
	if !t.running {
		return false
	}
	t.running = false
	t.gen++
	return true
}

func (t *Timer) Toggle() bool {
	if t.running {
		t.Pause()
	} else {
		t.Start()
	}
	return t.running
}

// Tick applies one second scheduled against generation gen.
func (t *Timer) Tick(gen uint64) []Event {
	if gen != t.gen || !t.running || t.remaining <= 0 {
		return nil
	}
	t.remaining--
	if t.remaining > 0 {
		return nil
	}
	return t.expire()
}

func (t *Timer) expire() []Event {
	if t.phase == ShortBreak {
		t.enter(Focusing, t.cfg.FocusTime)
		return []Event{{Kind: PhaseChanged, Phase: Focusing}}
	}

	t.sessions++
	events := []Event{{Kind: SessionCompleted, SessionCount: t.sessions}}
	if t.sessions%t.cfg.SessionCycle == 0 {
		// A full cycle ends the work session; the long break is never entered.
		events = append(events, Event{Kind: CycleCompleted})
		t.Reset()
		return events
	}

	t.enter(ShortBreak, t.cfg.ShortBreak)
	return append(events, Event{Kind: PhaseChanged, Phase: ShortBreak})
}

func (t *Timer) enter(phase Phase, duration int) {
	t.phase = phase
	t.duration = duration
	t.remaining = duration
	t.gen++
}

// Elapsed returns the focus seconds accumulated in the current cycle. Progress
// inside a break does not count.
func (t *Timer) Elapsed() int {
	total := t.sessions * t.cfg.FocusTime
	if t.phase == Focusing {
		total += t.cfg.FocusTime - t.remaining
	}
	return total
}

func (t *Timer) Finish() Event {
	ev := Event{Kind: ManualCompletion, TotalElapsedSeconds: t.Elapsed()}
	t.Reset()
	return ev
}

func (t *Timer) State() State {
	return State{
		Phase:            t.phase,
		SecondsRemaining: t.remaining,
		PhaseDuration:    t.duration,
		SessionCount:     t.sessions,
		SessionCycle:     t.cfg.SessionCycle,
		Running:          t.running,
		Generation:       t.gen,
	}
}
