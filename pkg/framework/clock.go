package framework

import (
	"context"
	"sync/atomic"
	"time"
)

// TickPeriod is the duration of one tick.
const TickPeriod = time.Millisecond

// TickCounter is a free running tick counter. It's the only state
// shared between the tick source and the control loop, so it's only
// accessed with single atomic operations.
type TickCounter struct {
	ticks atomic.Uint32
}

// Ticks implements TickSource.
func (c *TickCounter) Ticks() uint32 {
	return c.ticks.Load()
}

// Tick advances the counter by one.
func (c *TickCounter) Tick() {
	c.ticks.Add(1)
}

// Set forces the counter to a value, mostly useful in tests.
func (c *TickCounter) Set(ticks uint32) {
	c.ticks.Store(ticks)
}

// Elapsed calculates ticks elapsed since a previous reading.
// It's correct across counter wrap-around.
func Elapsed(now, since uint32) uint32 {
	return now - since
}

// Ticker drives a TickCounter from the system clock.
type Ticker struct {
	Counter *TickCounter
	Period  time.Duration
}

// NewTicker creates a Ticker with TickPeriod.
func NewTicker(counter *TickCounter) *Ticker {
	return &Ticker{Counter: counter, Period: TickPeriod}
}

// Name implements Named.
func (t *Ticker) Name() string {
	return "ticker"
}

// Run implements Runnable.
func (t *Ticker) Run(ctx context.Context) error {
	period := t.Period
	if period == 0 {
		period = TickPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			// time.Ticker drops ticks for slow receivers, catch up so the
			// counter keeps tracking wall time.
			for n := now.Sub(last) / period; n > 0; n-- {
				t.Counter.Tick()
				last = last.Add(period)
			}
		}
	}
}
