package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"focusflow/internal/archive"
	"focusflow/internal/clock"
	"focusflow/internal/kvstore"
	"focusflow/internal/model"
	"focusflow/internal/outbox"
	"focusflow/internal/timer"
)

type call struct {
	method string
	arg    string
	inc    model.StatsIncrement
}

type fakeRemote struct {
	mu     sync.Mutex
	calls  []call
	active []model.Task
	err    error
	nextID int
}

func (f *fakeRemote) record(c call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.err
}

func (f *fakeRemote) CreateTask(_ context.Context, title string) (model.Task, error) {
	if err := f.record(call{method: "create", arg: title}); err != nil {
		return model.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return model.Task{ID: fmt.Sprintf("new-%d", f.nextID), Title: title}, nil
}

func (f *fakeRemote) DeleteTask(_ context.Context, taskID string) error {
	return f.record(call{method: "delete", arg: taskID})
}

func (f *fakeRemote) ClearTasks(_ context.Context, userID string) error {
	return f.record(call{method: "clear", arg: userID})
}

func (f *fakeRemote) IncrementSession(_ context.Context, taskID string) (model.Task, error) {
	return model.Task{ID: taskID}, f.record(call{method: "patch", arg: taskID})
}

func (f *fakeRemote) AddDailyStats(_ context.Context, userID string, inc model.StatsIncrement) (model.DailyStats, error) {
	return model.DailyStats{}, f.record(call{method: "stats", arg: userID, inc: inc})
}

func (f *fakeRemote) ListTasks(_ context.Context, userID string) ([]model.Task, error) {
	if err := f.record(call{method: "list", arg: userID}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Task(nil), f.active...), nil
}

func (f *fakeRemote) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.method)
	}
	return out
}

func (f *fakeRemote) statsCalls() []model.StatsIncrement {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StatsIncrement
	for _, c := range f.calls {
		if c.method == "stats" {
			out = append(out, c.inc)
		}
	}
	return out
}

// inlineQueue records ops and runs them on demand.
type inlineQueue struct {
	ops []outbox.Op
}

func (q *inlineQueue) Enqueue(op outbox.Op) string {
	q.ops = append(q.ops, op)
	return op.ID
}

func (q *inlineQueue) flush(s *Synchronizer) {
	ops := q.ops
	q.ops = nil
	for _, op := range ops {
		payload, err := op.Run(context.Background())
		s.HandleResult(outbox.Result{Kind: op.Kind, UserID: op.UserID, TaskID: op.TaskID, Payload: payload, Err: err})
	}
}

type fixture struct {
	sync    *Synchronizer
	remote  *fakeRemote
	queue   *inlineQueue
	archive *archive.Manager
}

func newFixture(t *testing.T, active ...model.Task) *fixture {
	t.Helper()
	remote := &fakeRemote{active: active}
	queue := &inlineQueue{}
	mgr := archive.NewManager(kvstore.NewMemory(), clock.NewManual(time.Now()))
	return &fixture{
		sync:    New(mgr, remote, queue),
		remote:  remote,
		queue:   queue,
		archive: mgr,
	}
}

func (f *fixture) login(t *testing.T, userID string) {
	t.Helper()
	f.sync.Login(context.Background(), userID)
	f.queue.flush(f.sync)
}

func sessionDone(count int) []timer.Event {
	return []timer.Event{
		{Kind: timer.SessionCompleted, SessionCount: count},
		{Kind: timer.PhaseChanged, Phase: timer.ShortBreak},
	}
}

func cycleDone(count int) []timer.Event {
	return []timer.Event{
		{Kind: timer.SessionCompleted, SessionCount: count},
		{Kind: timer.CycleCompleted},
	}
}

func TestLogin_ShowsArchiveThenMergesRemote(t *testing.T) {
	f := newFixture(t,
		model.Task{ID: "t1", Title: "remote copy", FocusSessions: 1},
		model.Task{ID: "t2", Title: "active"},
	)
	ctx := context.Background()
	_, err := f.archive.Archive(ctx, "alice", model.Task{ID: "t1", Title: "archived", FocusSessions: 4})
	require.NoError(t, err)

	shown := f.sync.Login(ctx, "alice")
	require.Len(t, shown, 1, "archive is shown before the remote call returns")
	require.True(t, shown[0].Completed)

	f.queue.flush(f.sync)
	tasks := f.sync.Tasks()
	require.Len(t, tasks, 2)
	require.Equal(t, "archived", tasks[0].Title, "local copy wins")
	require.Equal(t, 4, tasks[0].FocusSessions)
	require.Equal(t, "active", tasks[1].Title)
}

func TestLogin_RemoteFailureKeepsLocalView(t *testing.T) {
	f := newFixture(t)
	f.remote.err = errors.New("connection refused")
	ctx := context.Background()
	_, err := f.archive.Archive(ctx, "alice", model.Task{ID: "t1", Title: "archived"})
	require.NoError(t, err)

	f.login(t, "alice")
	require.Len(t, f.sync.Tasks(), 1)
}

func TestMergeRemote_DropsStaleUser(t *testing.T) {
	f := newFixture(t, model.Task{ID: "t1"})
	f.sync.Login(context.Background(), "alice")
	ops := f.queue.ops
	f.queue.ops = nil

	f.sync.Login(context.Background(), "bob")
	payload, err := ops[0].Run(context.Background())
	require.NoError(t, err)
	changed := f.sync.HandleResult(outbox.Result{Kind: ops[0].Kind, UserID: ops[0].UserID, Payload: payload})

	require.False(t, changed)
	require.Empty(t, f.sync.Tasks())
}

func TestStartFocusing(t *testing.T) {
	f := newFixture(t, model.Task{ID: "t1"}, model.Task{ID: "t2"})
	f.login(t, "alice")

	require.True(t, f.sync.StartFocusing("t1"))
	require.False(t, f.sync.StartFocusing("t1"), "already focused")
	require.False(t, f.sync.StartFocusing("missing"))
	require.True(t, f.sync.StartFocusing("t2"))

	focusing := 0
	for _, task := range f.sync.Tasks() {
		if task.IsFocusing {
			focusing++
			require.Equal(t, "t2", task.ID)
		}
	}
	require.Equal(t, 1, focusing)
}

func TestIntermediateSession(t *testing.T) {
	f := newFixture(t, model.Task{ID: "t1"})
	f.login(t, "alice")
	f.sync.StartFocusing("t1")

	f.sync.HandleTimerEvents(context.Background(), sessionDone(1), 1500)
	f.queue.flush(f.sync)

	task, ok := f.sync.Focused()
	require.True(t, ok)
	require.Equal(t, 1, task.FocusSessions)
	require.False(t, task.Completed)

	require.Equal(t, []string{"list", "stats", "patch"}, f.remote.methods())
	require.Equal(t, []model.StatsIncrement{{AddSeconds: 1500, IsSessionComplete: true}}, f.remote.statsCalls())
}

func TestCycleCompletion(t *testing.T) {
	f := newFixture(t, model.Task{ID: "t1", Title: "write report"})
	f.login(t, "alice")
	f.sync.StartFocusing("t1")
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		f.sync.HandleTimerEvents(ctx, sessionDone(i), 1500)
	}
	f.sync.HandleTimerEvents(ctx, cycleDone(4), 1500)
	f.queue.flush(f.sync)

	_, focused := f.sync.Focused()
	require.False(t, focused)

	tasks := f.sync.Tasks()
	require.Len(t, tasks, 1)
	require.True(t, tasks[0].Completed)
	require.False(t, tasks[0].IsFocusing)
	require.Equal(t, 4, tasks[0].FocusSessions)

	archived, err := f.archive.Load(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, tasks, archived)

	require.Equal(t, []string{"list", "stats", "patch", "stats", "patch", "stats", "patch", "stats", "delete"}, f.remote.methods())
	require.Len(t, f.remote.statsCalls(), 4)
}

func TestManualCompletion(t *testing.T) {
	t.Run("records elapsed seconds", func(t *testing.T) {
		f := newFixture(t, model.Task{ID: "t1"})
		f.login(t, "alice")
		f.sync.StartFocusing("t1")

		f.sync.HandleTimerEvents(context.Background(), []timer.Event{{Kind: timer.ManualCompletion, TotalElapsedSeconds: 3600}}, 1500)
		f.queue.flush(f.sync)

		require.Equal(t, []model.StatsIncrement{{AddSeconds: 3600, IsSessionComplete: false}}, f.remote.statsCalls())
		require.Equal(t, []string{"list", "stats", "delete"}, f.remote.methods())
		require.True(t, f.sync.Tasks()[0].Completed)
	})

	t.Run("zero elapsed skips stats", func(t *testing.T) {
		f := newFixture(t, model.Task{ID: "t1"})
		f.login(t, "alice")
		f.sync.StartFocusing("t1")

		f.sync.HandleTimerEvents(context.Background(), []timer.Event{{Kind: timer.ManualCompletion}}, 1500)
		f.queue.flush(f.sync)

		require.Empty(t, f.remote.statsCalls())
		require.Equal(t, []string{"list", "delete"}, f.remote.methods())

		archived, err := f.archive.Load(context.Background(), "alice")
		require.NoError(t, err)
		require.Len(t, archived, 1)
	})
}

func TestRemoteFailureDoesNotRollBack(t *testing.T) {
	f := newFixture(t, model.Task{ID: "t1"})
	f.login(t, "alice")
	f.sync.StartFocusing("t1")
	f.remote.err = errors.New("503 service unavailable")

	f.sync.HandleTimerEvents(context.Background(), cycleDone(1), 1500)
	f.queue.flush(f.sync)

	require.True(t, f.sync.Tasks()[0].Completed)
	archived, err := f.archive.Load(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, archived, 1)
}

func TestMissingPreconditionsAreNoops(t *testing.T) {
	f := newFixture(t, model.Task{ID: "t1"})
	ctx := context.Background()

	// no user
	f.sync.HandleTimerEvents(ctx, cycleDone(1), 1500)
	require.False(t, f.sync.AddTask("title"))
	require.False(t, f.sync.StartFocusing("t1"))
	require.False(t, f.sync.ClearTasks())
	require.Empty(t, f.queue.ops)

	// user but no focused task
	f.login(t, "alice")
	f.sync.HandleTimerEvents(ctx, []timer.Event{{Kind: timer.ManualCompletion, TotalElapsedSeconds: 60}}, 1500)
	require.Empty(t, f.queue.ops)
	require.False(t, f.sync.AddTask("   "))
}

func TestAddTaskAppearsAfterCreate(t *testing.T) {
	f := newFixture(t)
	f.login(t, "alice")

	require.True(t, f.sync.AddTask("  plan sprint "))
	require.Empty(t, f.sync.Tasks())

	f.queue.flush(f.sync)
	tasks := f.sync.Tasks()
	require.Len(t, tasks, 1)
	require.Equal(t, "plan sprint", tasks[0].Title)
	require.NotEmpty(t, tasks[0].ID)
}

func TestClearTasksKeepsArchive(t *testing.T) {
	f := newFixture(t, model.Task{ID: "t1"}, model.Task{ID: "t2"})
	ctx := context.Background()
	_, err := f.archive.Archive(ctx, "alice", model.Task{ID: "done"})
	require.NoError(t, err)
	f.login(t, "alice")
	f.sync.StartFocusing("t1")

	require.True(t, f.sync.ClearTasks())
	f.queue.flush(f.sync)

	tasks := f.sync.Tasks()
	require.Len(t, tasks, 1)
	require.Equal(t, "done", tasks[0].ID)
	_, focused := f.sync.Focused()
	require.False(t, focused)
	require.Contains(t, f.remote.methods(), "clear")
}
