package clock

import (
	"sync"
	"time"
)

// DayBoundaryOffset shifts the calendar day so that it starts at 04:00 local time.
// Sessions finished between midnight and 04:00 count toward the previous day.
const DayBoundaryOffset = 4 * time.Hour

const dayLayout = "2006-01-02"

// VirtualDay returns the YYYY-MM-DD date of now shifted back by DayBoundaryOffset.
func VirtualDay(now time.Time) string {
	return now.Add(-DayBoundaryOffset).Format(dayLayout)
}

func VirtualDaysBack(now time.Time, n int) string {
	return now.Add(-DayBoundaryOffset).AddDate(0, 0, -n).Format(dayLayout)
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// Manual is a clock driven by the caller. All tickers it creates share one
// unbuffered channel, so Tick blocks until some consumer receives.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	ch      chan time.Time
	tickers int
}

func NewManual(now time.Time) *Manual {
	return &Manual{now: now, ch: make(chan time.Time)}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func (m *Manual) NewTicker(time.Duration) Ticker {
	m.mu.Lock()
	m.tickers++
	m.mu.Unlock()
	return &manualTicker{m: m}
}

// ActiveTickers reports how many tickers are currently not stopped.
func (m *Manual) ActiveTickers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tickers
}

// Tick advances the clock by one second and delivers it to the active ticker.
func (m *Manual) Tick() {
	m.Advance(time.Second)
	m.ch <- m.Now()
}

type manualTicker struct {
	m    *Manual
	once sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.m.ch }

func (t *manualTicker) Stop() {
	t.once.Do(func() {
		t.m.mu.Lock()
		t.m.tickers--
		t.m.mu.Unlock()
	})
}
