// Package synchronizer turns timer events into task outcomes. Local state is
// updated immediately; remote writes are queued and never awaited, and their
// failure never rolls local state back.
package synchronizer

import (
	"context"
	"strings"

	"focusflow/internal/archive"
	"focusflow/internal/log"
	"focusflow/internal/model"
	"focusflow/internal/outbox"
	"focusflow/internal/timer"
)

type Remote interface {
	CreateTask(ctx context.Context, title string) (model.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
	ClearTasks(ctx context.Context, userID string) error
	IncrementSession(ctx context.Context, taskID string) (model.Task, error)
	AddDailyStats(ctx context.Context, userID string, inc model.StatsIncrement) (model.DailyStats, error)
	ListTasks(ctx context.Context, userID string) ([]model.Task, error)
}

type Queue interface {
	Enqueue(op outbox.Op) string
}

type Synchronizer struct {
	archive *archive.Manager
	remote  Remote
	queue   Queue

	userID string
	tasks  []model.Task
	// focusID references the focused entry of tasks; "" when nothing is focused.
	focusID string
}

func New(archive *archive.Manager, remote Remote, queue Queue) *Synchronizer {
	return &Synchronizer{archive: archive, remote: remote, queue: queue}
}

func (s *Synchronizer) UserID() string {
	return s.userID
}

func (s *Synchronizer) Tasks() []model.Task {
	return append([]model.Task(nil), s.tasks...)
}

func (s *Synchronizer) Focused() (model.Task, bool) {
	if s.focusID == "" {
		return model.Task{}, false
	}
	i := s.indexOf(s.focusID)
	if i < 0 {
		return model.Task{}, false
	}
	return s.tasks[i], true
}

// Login shows the archived tasks of userID right away and queues the fetch of
// the remote active tasks, which HandleResult merges when it returns.
func (s *Synchronizer) Login(ctx context.Context, userID string) []model.Task {
	s.userID = userID
	s.focusID = ""
	s.tasks = nil
	if userID == "" {
		return nil
	}

	archived, err := s.archive.Load(ctx, userID)
	if err != nil {
		log.ErrorErr(log.CatSync, "load archive", err, "user", userID)
		archived = nil
	}
	s.tasks = append(s.tasks, archived...)

	s.queue.Enqueue(outbox.Op{
		Kind:   outbox.KindListTasks,
		UserID: userID,
		Run: func(ctx context.Context) (any, error) {
			return s.remote.ListTasks(ctx, userID)
		},
	})
	return s.Tasks()
}

func (s *Synchronizer) Logout() {
	s.userID = ""
	s.tasks = nil
	s.focusID = ""
}

// AddTask queues creation of a task. The task appears once the collaborator
// has assigned its id.
func (s *Synchronizer) AddTask(title string) bool {
	title = strings.TrimSpace(title)
	if s.userID == "" || title == "" {
		return false
	}

	userID := s.userID
	s.queue.Enqueue(outbox.Op{
		Kind:   outbox.KindCreateTask,
		UserID: userID,
		Run: func(ctx context.Context) (any, error) {
			return s.remote.CreateTask(ctx, title)
		},
	})
	return true
}

func (s *Synchronizer) ClearTasks() bool {
	if s.userID == "" {
		return false
	}

	kept := s.tasks[:0]
	for _, task := range s.tasks {
		if task.Completed {
			kept = append(kept, task)
		}
	}
	s.tasks = kept
	s.focusID = ""

	userID := s.userID
	s.queue.Enqueue(outbox.Op{
		Kind:   outbox.KindClearTasks,
		UserID: userID,
		Run: func(ctx context.Context) (any, error) {
			return nil, s.remote.ClearTasks(ctx, userID)
		},
	})
	return true
}

// StartFocusing moves the focus to taskID. It reports whether the focused task changed.
func (s *Synchronizer) StartFocusing(taskID string) bool {
	if s.userID == "" {
		return false
	}
	i := s.indexOf(taskID)
	if i < 0 || s.tasks[i].Completed || s.focusID == taskID {
		return false
	}

	for j := range s.tasks {
		s.tasks[j].IsFocusing = j == i
	}
	s.focusID = taskID
	return true
}

func (s *Synchronizer) ClearFocus() {
	if i := s.indexOf(s.focusID); i >= 0 {
		s.tasks[i].IsFocusing = false
	}
	s.focusID = ""
}

// HandleTimerEvents applies the events produced by one timer transition.
// focusTime is the configured focus phase length in seconds.
func (s *Synchronizer) HandleTimerEvents(ctx context.Context, events []timer.Event, focusTime int) {
	if len(events) == 0 {
		return
	}
	if s.userID == "" || s.focusID == "" {
		log.Debug(log.CatSync, "timer events without focused task", "events", len(events))
		return
	}

	cycleDone := false
	for _, ev := range events {
		if ev.Kind == timer.CycleCompleted {
			cycleDone = true
		}
	}

	for _, ev := range events {
		switch ev.Kind {
		case timer.SessionCompleted:
			s.completeSession(ctx, ev.SessionCount, focusTime, cycleDone)
		case timer.ManualCompletion:
			s.completeManually(ctx, ev.TotalElapsedSeconds)
		case timer.PhaseChanged:
			log.Debug(log.CatSync, "phase changed", "phase", ev.Phase, "task", s.focusID)
		}
	}
}

func (s *Synchronizer) completeSession(ctx context.Context, count, focusTime int, cycleDone bool) {
	i := s.indexOf(s.focusID)
	if i < 0 {
		return
	}
	s.tasks[i].FocusSessions++
	taskID := s.tasks[i].ID

	s.recordStats(focusTime, true)

	if cycleDone {
		log.Info(log.CatSync, "cycle completed", "task", taskID, "sessions", count)
		s.complete(ctx, i)
		return
	}

	log.Info(log.CatSync, "session completed", "task", taskID, "sessions", count)
	userID := s.userID
	s.queue.Enqueue(outbox.Op{
		Kind:   outbox.KindIncrementSession,
		UserID: userID,
		TaskID: taskID,
		Run: func(ctx context.Context) (any, error) {
			return s.remote.IncrementSession(ctx, taskID)
		},
	})
}

func (s *Synchronizer) completeManually(ctx context.Context, totalSeconds int) {
	i := s.indexOf(s.focusID)
	if i < 0 {
		return
	}
	log.Info(log.CatSync, "task finished early", "task", s.tasks[i].ID, "seconds", totalSeconds)
	if totalSeconds > 0 {
		s.recordStats(totalSeconds, false)
	}
	s.complete(ctx, i)
}

func (s *Synchronizer) complete(ctx context.Context, i int) {
	s.tasks[i] = s.tasks[i].Archived()
	snapshot := s.tasks[i]
	s.focusID = ""

	userID := s.userID
	if _, err := s.archive.Archive(ctx, userID, snapshot); err != nil {
		log.ErrorErr(log.CatSync, "archive task", err, "task", snapshot.ID)
	}

	s.queue.Enqueue(outbox.Op{
		Kind:   outbox.KindDeleteTask,
		UserID: userID,
		TaskID: snapshot.ID,
		Run: func(ctx context.Context) (any, error) {
			return nil, s.remote.DeleteTask(ctx, snapshot.ID)
		},
	})
}

func (s *Synchronizer) recordStats(seconds int, sessionComplete bool) {
	userID := s.userID
	inc := model.StatsIncrement{AddSeconds: seconds, IsSessionComplete: sessionComplete}
	s.queue.Enqueue(outbox.Op{
		Kind:   outbox.KindAddStats,
		UserID: userID,
		Run: func(ctx context.Context) (any, error) {
			return s.remote.AddDailyStats(ctx, userID, inc)
		},
	})
}

// HandleResult consumes the outcome of a queued remote call. Failures are only
// logged. It reports whether the task list changed.
func (s *Synchronizer) HandleResult(res outbox.Result) bool {
	if !res.OK() {
		log.Warn(log.CatSync, "remote call failed", "kind", res.Kind, "task", res.TaskID, "error", res.Err)
		return false
	}
	log.Debug(log.CatSync, "remote call done", "kind", res.Kind, "task", res.TaskID, "took", res.Duration)

	switch res.Kind {
	case outbox.KindListTasks:
		tasks, _ := res.Payload.([]model.Task)
		return s.MergeRemote(res.UserID, tasks)
	case outbox.KindCreateTask:
		task, ok := res.Payload.(model.Task)
		if !ok {
			return false
		}
		return s.MergeRemote(res.UserID, []model.Task{task})
	}
	return false
}

// MergeRemote unions remote active tasks of userID into the displayed list.
// Tasks already shown keep their local copy. Results for a user that is no
// longer logged in are dropped.
func (s *Synchronizer) MergeRemote(userID string, remote []model.Task) bool {
	if userID == "" || userID != s.userID || len(remote) == 0 {
		return false
	}

	active := make([]model.Task, 0, len(remote))
	for _, task := range remote {
		task.Completed = false
		task.IsFocusing = false
		active = append(active, task)
	}

	before := len(s.tasks)
	s.tasks = archive.Merge(s.tasks, active)
	return len(s.tasks) != before
}

func (s *Synchronizer) indexOf(taskID string) int {
	if taskID == "" {
		return -1
	}
	for i, task := range s.tasks {
		if task.ID == taskID {
			return i
		}
	}
	return -1
}
