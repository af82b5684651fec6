package engine

import "sync/atomic"

// Clock is a monotonic logical counter used for ticks and visit seq
// numbers. Values are never derived from wall time, so replaying a world
// reproduces the same numbering.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next value is start+1.
// Used to resume ticking after the last tick recorded in the visits log.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out (0 before the first Next).
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
