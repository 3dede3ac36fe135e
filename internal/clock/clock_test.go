package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVirtualDay_BoundaryAtFourAM(t *testing.T) {
	loc := time.FixedZone("test", 9*3600)

	assert.Equal(t, "2026-10-17", VirtualDay(time.Date(2026, 10, 18, 0, 30, 0, 0, loc)))
	assert.Equal(t, "2026-10-17", VirtualDay(time.Date(2026, 10, 18, 3, 59, 59, 0, loc)))
	assert.Equal(t, "2026-10-18", VirtualDay(time.Date(2026, 10, 18, 4, 0, 0, 0, loc)))
	assert.Equal(t, "2026-10-18", VirtualDay(time.Date(2026, 10, 18, 23, 59, 0, 0, loc)))
}

func TestVirtualDaysBack(t *testing.T) {
	now := time.Date(2026, 10, 18, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-17", VirtualDaysBack(now, 0))
	assert.Equal(t, "2026-10-11", VirtualDaysBack(now, 6))
}

func TestManual_TickDeliversToTicker(t *testing.T) {
	start := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	m := NewManual(start)
	ticker := m.NewTicker(time.Second)
	assert.Equal(t, 1, m.ActiveTickers())

	got := make(chan time.Time, 1)
	go func() { got <- <-ticker.C() }()
	m.Tick()

	assert.Equal(t, start.Add(time.Second), <-got)

	ticker.Stop()
	ticker.Stop()
	assert.Equal(t, 0, m.ActiveTickers())
}
