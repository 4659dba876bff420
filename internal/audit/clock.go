package audit

import (
	"sync/atomic"
	"time"
)

// Clock supplies entry timestamps in milliseconds since the Unix epoch.
type Clock interface {
	NowMillis() int64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// NowMillis implements Clock.
func (SystemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// idCounter hands out entry IDs. One counter belongs to one Log; there is
// no package-level counter shared between logs.
//
// Thread-safety: safe for concurrent use (atomic operations).
type idCounter struct {
	seq atomic.Int64
}

// next returns the next ID and increments the counter. The first call
// after construction or reset returns 1.
func (c *idCounter) next() int64 {
	return c.seq.Add(1)
}

// current returns the last issued ID without incrementing.
func (c *idCounter) current() int64 {
	return c.seq.Load()
}

// reset rewinds the counter so the next ID is 1.
func (c *idCounter) reset() {
	c.seq.Store(0)
}
