package timer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"focusflow/internal/model"
)

func testConfig(focus, shortBreak, cycle int) model.CycleConfig {
	return model.CycleConfig{FocusTime: focus, ShortBreak: shortBreak, LongBreak: 900, SessionCycle: cycle}
}

// run ticks the timer n times against its current generation and collects events.
func run(tm *Timer, n int) []Event {
	var events []Event
	for i := 0; i < n; i++ {
		events = append(events, tm.Tick(tm.Generation())...)
	}
	return events
}

func countKind(events []Event, kind EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func TestTimer_InitialState(t *testing.T) {
	tm := New(testConfig(1500, 300, 4))
	st := tm.State()

	require.Equal(t, Focusing, st.Phase)
	require.Equal(t, 1500, st.SecondsRemaining)
	require.Equal(t, 1500, st.PhaseDuration)
	require.Equal(t, 0, st.SessionCount)
	require.False(t, st.Running)
}

func TestTimer_TickOnlyWhileRunning(t *testing.T) {
	tm := New(testConfig(10, 5, 2))

	require.Nil(t, tm.Tick(tm.Generation()))
	require.Equal(t, 10, tm.State().SecondsRemaining)

	require.True(t, tm.Toggle())
	run(tm, 3)
	require.Equal(t, 7, tm.State().SecondsRemaining)

	require.False(t, tm.Toggle())
	run(tm, 3)
	require.Equal(t, 7, tm.State().SecondsRemaining)
	require.Equal(t, Focusing, tm.State().Phase)
}

func TestTimer_StaleTickIgnored(t *testing.T) {
	tm := New(testConfig(3, 2, 2))
	tm.Start()
	stale := tm.Generation()

	tm.Pause()
	tm.Start()
	require.Nil(t, tm.Tick(stale))
	require.Equal(t, 3, tm.State().SecondsRemaining)

	// A tick scheduled during the focus phase must not touch the following break.
	gen := tm.Generation()
	tm.Tick(gen)
	tm.Tick(gen)
	events := tm.Tick(gen)
	require.Equal(t, 1, countKind(events, SessionCompleted))
	require.Equal(t, ShortBreak, tm.State().Phase)

	require.Nil(t, tm.Tick(gen))
	require.Equal(t, 2, tm.State().SecondsRemaining)
}

func TestTimer_FocusExpiryEntersShortBreak(t *testing.T) {
	tm := New(testConfig(2, 1, 3))
	tm.Start()

	events := run(tm, 2)
	require.Equal(t, []Event{
		{Kind: SessionCompleted, SessionCount: 1},
		{Kind: PhaseChanged, Phase: ShortBreak},
	}, events)

	st := tm.State()
	require.Equal(t, ShortBreak, st.Phase)
	require.Equal(t, 1, st.SecondsRemaining)
	require.Equal(t, 1, st.SessionCount)
	require.True(t, st.Running, "timer keeps running into the break")

	events = run(tm, 1)
	require.Equal(t, []Event{{Kind: PhaseChanged, Phase: Focusing}}, events)
	require.Equal(t, 1, tm.State().SessionCount, "break expiry does not count a session")
	require.Equal(t, 2, tm.State().SecondsRemaining)
}

func TestTimer_FullCycleScenario(t *testing.T) {
	tm := New(testConfig(1500, 300, 4))
	tm.Start()

	events := run(tm, 4*1500+3*300)

	require.Equal(t, 4, countKind(events, SessionCompleted))
	require.Equal(t, 1, countKind(events, CycleCompleted))
	require.Equal(t, CycleCompleted, events[len(events)-1].Kind)

	st := tm.State()
	require.Equal(t, 0, st.SessionCount)
	require.Equal(t, Focusing, st.Phase)
	require.Equal(t, 1500, st.SecondsRemaining)
	require.False(t, st.Running, "cycle completion stops the timer")
}

func TestTimer_ManualCompletion(t *testing.T) {
	t.Run("immediately at start", func(t *testing.T) {
		tm := New(testConfig(1500, 300, 4))
		ev := tm.Finish()
		require.Equal(t, ManualCompletion, ev.Kind)
		require.Equal(t, 0, ev.TotalElapsedSeconds)
	})

	t.Run("ten minutes into third focus phase", func(t *testing.T) {
		tm := New(testConfig(1500, 300, 4))
		tm.Start()
		run(tm, 2*1500+2*300+600)
		require.Equal(t, 2, tm.State().SessionCount)

		ev := tm.Finish()
		require.Equal(t, 3600, ev.TotalElapsedSeconds)
		require.Equal(t, 0, tm.State().SessionCount)
		require.False(t, tm.State().Running)
	})

	t.Run("break progress does not count", func(t *testing.T) {
		tm := New(testConfig(1500, 300, 4))
		tm.Start()
		run(tm, 1500+120)
		require.Equal(t, ShortBreak, tm.State().Phase)
		require.Equal(t, 1500, tm.Finish().TotalElapsedSeconds)
	})
}

func TestTimer_ReconfigureResets(t *testing.T) {
	tm := New(testConfig(10, 5, 2))
	tm.Start()
	run(tm, 12)
	require.Equal(t, ShortBreak, tm.State().Phase)

	tm.Reconfigure(testConfig(20, 5, 3))
	st := tm.State()
	require.Equal(t, Focusing, st.Phase)
	require.Equal(t, 20, st.SecondsRemaining)
	require.Equal(t, 3, st.SessionCycle)
	require.Equal(t, 0, st.SessionCount)
	require.False(t, st.Running)
}

func TestTimer_CycleProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		focus := rapid.IntRange(1, 6).Draw(rt, "focus")
		shortBreak := rapid.IntRange(1, 6).Draw(rt, "shortBreak")
		cycle := rapid.IntRange(1, 6).Draw(rt, "cycle")

		tm := New(testConfig(focus, shortBreak, cycle))
		tm.Start()
		events := run(tm, cycle*focus+(cycle-1)*shortBreak)

		require.Equal(rt, cycle, countKind(events, SessionCompleted))
		require.Equal(rt, 1, countKind(events, CycleCompleted))
		require.Equal(rt, 0, tm.State().SessionCount)
		require.False(rt, tm.State().Running)
	})
}

func TestTimer_ManualElapsedProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		focus := rapid.IntRange(1, 8).Draw(rt, "focus")
		shortBreak := rapid.IntRange(1, 8).Draw(rt, "shortBreak")
		cycle := rapid.IntRange(2, 5).Draw(rt, "cycle")
		full := cycle*focus + (cycle-1)*shortBreak
		ticks := rapid.IntRange(0, full-1).Draw(rt, "ticks")

		tm := New(testConfig(focus, shortBreak, cycle))
		tm.Start()
		run(tm, ticks)

		st := tm.State()
		want := st.SessionCount * focus
		if st.Phase == Focusing {
			want += focus - st.SecondsRemaining
		}
		require.Equal(rt, want, tm.Finish().TotalElapsedSeconds)
	})
}
