// Package outbox runs remote side effects off the caller's goroutine.
//
// Callers enqueue operations and never wait for them. A single worker executes
// them in FIFO order and reports each outcome as a Result. Enqueue never blocks.
package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"focusflow/internal/log"
)

type Kind string

const (
	KindCreateTask       Kind = "create_task"
	KindDeleteTask       Kind = "delete_task"
	KindClearTasks       Kind = "clear_tasks"
	KindIncrementSession Kind = "increment_session"
	KindAddStats         Kind = "add_stats"
	KindListTasks        Kind = "list_tasks"
)

type Op struct {
	ID     string
	Kind   Kind
	UserID string
	TaskID string
	Run    func(ctx context.Context) (any, error)
}

// Result is the tagged outcome of one Op. Payload is whatever Run returned.
type Result struct {
	OpID     string
	Kind     Kind
	UserID   string
	TaskID   string
	Payload  any
	Err      error
	Duration time.Duration
}

func (r Result) OK() bool {
	return r.Err == nil
}

const defaultResultBuffer = 64

type Outbox struct {
	mu      sync.Mutex
	pending []Op
	late    []Result
	wake    chan struct{}
	results chan Result

	opCtx context.Context
	abort context.CancelFunc
}

func New() *Outbox {
	opCtx, abort := context.WithCancel(context.Background())
	return &Outbox{
		wake:    make(chan struct{}, 1),
		results: make(chan Result, defaultResultBuffer),
		opCtx:   opCtx,
		abort:   abort,
	}
}

// Abort cancels the operation Run is executing, if any, and every one it
// starts afterwards.
func (o *Outbox) Abort() {
	o.abort()
}

func (o *Outbox) Enqueue(op Op) string {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}

	o.mu.Lock()
	o.pending = append(o.pending, op)
	o.mu.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}
	return op.ID
}

func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

func (o *Outbox) Results() <-chan Result {
	return o.results
}

// Run executes queued operations until ctx is cancelled. Cancelling ctx does not
// interrupt the operation in progress; only Abort does.
func (o *Outbox) Run(ctx context.Context) error {
	for {
		op, ok := o.next(ctx)
		if !ok {
			return nil
		}
		o.deliver(ctx, execute(o.opCtx, op))
		if ctx.Err() != nil {
			return nil
		}
	}
}

// deliver hands res to Results. A result nobody reads once ctx ends is kept
// for Drain.
func (o *Outbox) deliver(ctx context.Context, res Result) {
	select {
	case o.results <- res:
		return
	default:
	}
	select {
	case o.results <- res:
	case <-ctx.Done():
		o.mu.Lock()
		o.late = append(o.late, res)
		o.mu.Unlock()
		log.Debug(log.CatOutbox, "result held for drain", "kind", res.Kind, "op", res.OpID)
	}
}

// Drain returns the results Run could not deliver, then executes what is still
// queued on the calling goroutine until the queue is empty or ctx expires. It
// must not run concurrently with Run.
func (o *Outbox) Drain(ctx context.Context) []Result {
	o.mu.Lock()
	results := o.late
	o.late = nil
	o.mu.Unlock()

	for ctx.Err() == nil {
		op, ok := o.pop()
		if !ok {
			break
		}
		results = append(results, execute(ctx, op))
	}
	return results
}

func (o *Outbox) next(ctx context.Context) (Op, bool) {
	for {
		if op, ok := o.pop(); ok {
			return op, true
		}
		select {
		case <-ctx.Done():
			return Op{}, false
		case <-o.wake:
		}
	}
}

func (o *Outbox) pop() (Op, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.pending) == 0 {
		return Op{}, false
	}
	op := o.pending[0]
	o.pending[0] = Op{}
	o.pending = o.pending[1:]
	return op, true
}

func execute(ctx context.Context, op Op) Result {
	start := time.Now()
	payload, err := op.Run(ctx)
	return Result{
		OpID:     op.ID,
		Kind:     op.Kind,
		UserID:   op.UserID,
		TaskID:   op.TaskID,
		Payload:  payload,
		Err:      err,
		Duration: time.Since(start),
	}
}
