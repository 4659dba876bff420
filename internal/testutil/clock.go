package testutil

import "sync"

// DefaultClockStart is 2024-01-01T00:00:00Z in Unix milliseconds.
const DefaultClockStart int64 = 1704067200000

// DeterministicClock provides a thread-safe, reproducible millisecond clock
// for tests.
//
// Each call to NowMillis advances the clock by a fixed step, so the same
// scenario always stamps identical timestamps. It satisfies audit.Clock.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start int64
	step  int64
	ticks int64
}

// NewDeterministicClock creates a clock starting at DefaultClockStart and
// advancing one second per reading.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(DefaultClockStart, 1000)
}

// NewDeterministicClockAt creates a clock whose first reading is start and
// whose readings advance by step milliseconds.
func NewDeterministicClockAt(start, step int64) *DeterministicClock {
	return &DeterministicClock{start: start, step: step}
}

// NowMillis returns the current reading and advances the clock.
func (c *DeterministicClock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.start + c.ticks*c.step
	c.ticks++
	return now
}

// Ticks returns how many readings have been taken.
func (c *DeterministicClock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Reset rewinds the clock so the next reading is start again.
//
// Used for test reuse.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
