package util

import (
	"sync"
	"time"
)

// Clock abstracts time so the simulation loop can be driven manually in tests.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the subset of time.Ticker the engine needs.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (rt *realTicker) Chan() <-chan time.Time { return rt.t.C }
func (rt *realTicker) Stop()                  { rt.t.Stop() }

// FakeClock fires its tickers only when Advance is called.
type FakeClock struct {
	mu      sync.Mutex
	cond    *sync.Cond
	now     time.Time
	tickers []*fakeTicker
}

func NewFakeClock(start time.Time) *FakeClock {
	c := &FakeClock{now: start}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	ft := &fakeTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, ft)
	c.cond.Broadcast()
	return ft
}

// Advance moves the clock forward and fires every live ticker once.
// The send blocks until the consumer has picked up the tick, so a test can
// count ticks deterministically.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	// Wait for a consumer's ticker to exist so a tick is never lost to the
	// race between Advance and the goroutine that calls NewTicker.
	for len(c.tickers) == 0 {
		c.cond.Wait()
	}
	c.now = c.now.Add(d)
	now := c.now
	tickers := make([]*fakeTicker, len(c.tickers))
	copy(tickers, c.tickers)
	c.mu.Unlock()

	for _, ft := range tickers {
		if !ft.stopped() {
			ft.ch <- now
		}
	}
}

type fakeTicker struct {
	mu     sync.Mutex
	ch     chan time.Time
	closed bool
}

func (ft *fakeTicker) Chan() <-chan time.Time { return ft.ch }

func (ft *fakeTicker) Stop() {
	ft.mu.Lock()
	ft.closed = true
	ft.mu.Unlock()
}

func (ft *fakeTicker) stopped() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.closed
}
