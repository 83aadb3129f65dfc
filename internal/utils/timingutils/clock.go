package timingutils

import (
	"sync"
	"time"
)

// Clock is the source of time for expiry checks and retry delays.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// RealClock delegates to the time package.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// FakeClock is a deterministic clock for tests. Time moves only through `Advance` and `After`.
// `After` records the requested duration, advances the clock by it and fires immediately, so code that
// waits between retries runs without real sleeping.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	waits   []time.Duration
}

// NewFakeClock returns a FakeClock set to `initial`.
func NewFakeClock(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.waits = append(c.waits, d)
	if d > 0 {
		c.current = c.current.Add(d)
	}

	ch := make(chan time.Time, 1)
	ch <- c.current
	return ch
}

// Advance moves the clock forward by `d`.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Waits returns a copy of the durations passed to `After`, in call order.
func (c *FakeClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	ret := make([]time.Duration, len(c.waits))
	copy(ret, c.waits)
	return ret
}
