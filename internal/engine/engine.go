// Package engine runs the focus-session core on a single goroutine.
//
// The loop owns the timer, the synchronizer and the archive. Callers post
// intents, which execute on the loop in arrival order; ticks and remote results
// are merged into the same loop. Remote calls run on the outbox worker and the
// loop never waits for them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"focusflow/internal/archive"
	"focusflow/internal/clock"
	"focusflow/internal/log"
	"focusflow/internal/model"
	"focusflow/internal/outbox"
	"focusflow/internal/pubsub"
	"focusflow/internal/synchronizer"
	"focusflow/internal/timer"
)

// ErrStopped is returned by intents posted after the loop has exited.
var ErrStopped = errors.New("engine stopped")

const DefaultDrainTimeout = 5 * time.Second

type Config struct {
	Clock   clock.Clock
	Archive *archive.Manager
	Remote  synchronizer.Remote
	// Defaults applies to users without stored settings.
	Defaults model.CycleConfig
	// DrainTimeout bounds how long Run waits on remote calls, in flight or queued, after ctx ends.
	DrainTimeout time.Duration
}

// Snapshot is the observable state published after every change.
type Snapshot struct {
	UserID        string
	Timer         timer.State
	Settings      model.CycleConfig
	Tasks         []model.Task
	FocusedID     string
	PendingRemote int
	Notice        string
}

type intent struct {
	fn   func(ctx context.Context)
	done chan struct{}
}

type Engine struct {
	cfg    Config
	outbox *outbox.Outbox
	sync   *synchronizer.Synchronizer
	timer  *timer.Timer
	broker *pubsub.Broker[Snapshot]

	intents chan intent
	stopped chan struct{}

	// loop-owned
	ticker    clock.Ticker
	tickerGen uint64
	notice    string
}

func New(cfg Config) (*Engine, error) {
	if cfg.Archive == nil || cfg.Remote == nil {
		return nil, errors.New("engine: archive and remote are required")
	}
	if err := cfg.Defaults.Validate(); err != nil {
		return nil, fmt.Errorf("engine defaults: %w", err)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}

	ob := outbox.New()
	return &Engine{
		cfg:     cfg,
		outbox:  ob,
		sync:    synchronizer.New(cfg.Archive, cfg.Remote, ob),
		timer:   timer.New(cfg.Defaults),
		broker:  pubsub.NewBroker[Snapshot](),
		intents: make(chan intent),
		stopped: make(chan struct{}),
	}, nil
}

// Subscribe streams snapshots until ctx ends or the engine stops.
func (e *Engine) Subscribe(ctx context.Context) <-chan pubsub.Event[Snapshot] {
	return e.broker.Subscribe(ctx)
}

// Run applies the daily reset, then processes intents, ticks and remote
// results until ctx is cancelled. The call in flight and those still queued at
// that point get DrainTimeout in total; whatever is left is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.stopped)
	defer e.broker.Close()

	if _, err := e.cfg.Archive.ApplyDailyReset(ctx); err != nil {
		log.ErrorErr(log.CatArchive, "daily reset", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.outbox.Run(gctx) })
	g.Go(func() error { return e.loop(gctx) })

	<-gctx.Done()
	// One deadline covers the call in flight and everything still queued.
	drainCtx, cancel := context.WithTimeout(context.Background(), e.cfg.DrainTimeout)
	defer cancel()
	stopAbort := context.AfterFunc(drainCtx, e.outbox.Abort)
	defer stopAbort()

	err := g.Wait()
	e.stopTicker()
	e.drain(drainCtx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (e *Engine) loop(ctx context.Context) error {
	e.publish(pubsub.SnapshotEvent)
	for {
		var tickC <-chan time.Time
		if e.ticker != nil {
			tickC = e.ticker.C()
		}

		select {
		case <-ctx.Done():
			return nil

		case in := <-e.intents:
			in.fn(ctx)
			e.settle()
			close(in.done)

		case <-tickC:
			events := e.timer.Tick(e.tickerGen)
			e.sync.HandleTimerEvents(ctx, events, e.timer.Config().FocusTime)
			e.settle()

		case res := <-e.outbox.Results():
			if e.sync.HandleResult(res) {
				e.publish(pubsub.SnapshotEvent)
			}
		}
	}
}

// settle aligns the ticker with the timer and publishes the new state.
func (e *Engine) settle() {
	if !e.timer.Running() {
		e.stopTicker()
	} else if e.ticker == nil || e.tickerGen != e.timer.Generation() {
		e.stopTicker()
		e.ticker = e.cfg.Clock.NewTicker(time.Second)
		e.tickerGen = e.timer.Generation()
	}

	if e.notice != "" {
		e.publish(pubsub.NoticeEvent)
		e.notice = ""
		return
	}
	e.publish(pubsub.SnapshotEvent)
}

func (e *Engine) stopTicker() {
	if e.ticker != nil {
		e.ticker.Stop()
		e.ticker = nil
	}
}

func (e *Engine) drain(ctx context.Context) {
	for {
		select {
		case res := <-e.outbox.Results():
			e.sync.HandleResult(res)
			continue
		default:
		}
		break
	}

	pending := e.outbox.Pending()
	results := e.outbox.Drain(ctx)
	for _, res := range results {
		e.sync.HandleResult(res)
	}
	if left := e.outbox.Pending(); left > 0 {
		log.Warn(log.CatOutbox, "drain deadline reached", "done", len(results), "dropped", left)
	} else if pending > 0 {
		log.Info(log.CatOutbox, "drained queued calls", "count", len(results))
	}
}

func (e *Engine) snapshot() Snapshot {
	focused, _ := e.sync.Focused()
	return Snapshot{
		UserID:        e.sync.UserID(),
		Timer:         e.timer.State(),
		Settings:      e.timer.Config(),
		Tasks:         e.sync.Tasks(),
		FocusedID:     focused.ID,
		PendingRemote: e.outbox.Pending(),
		Notice:        e.notice,
	}
}

func (e *Engine) publish(kind pubsub.EventType) {
	e.broker.Publish(kind, e.snapshot())
}

// post runs fn on the loop and waits for it to finish.
func (e *Engine) post(ctx context.Context, fn func(ctx context.Context)) error {
	in := intent{fn: fn, done: make(chan struct{})}
	select {
	case e.intents <- in:
	case <-e.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	// Once accepted, the loop always finishes the intent before checking for shutdown.
	<-in.done
	return nil
}
