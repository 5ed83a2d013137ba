// Package counter provides the integer counters shared between the periodic
// tick sources and the monitor tasks.
//
// Every operation is a single atomic step, so a counter can be touched from a
// ticker goroutine without ever blocking it.
package counter

import "go.uber.org/atomic"

// Counter is an integer guarded for concurrent access.
// The zero value is a counter at 0, ready to use.
type Counter struct {
	v atomic.Int64
}

// New returns a counter holding v.
func New(v int64) *Counter {
	c := &Counter{}
	c.v.Store(v)
	return c
}

// Increment adds one and returns the new value.
func (c *Counter) Increment() int64 {
	return c.v.Inc()
}

// DecrementClamped subtracts one unless the value is already at or below zero,
// in which case the value is pinned to zero. Returns the new value.
func (c *Counter) DecrementClamped() int64 {
	for {
		old := c.v.Load()
		next := old - 1
		if next < 0 {
			next = 0
		}
		if old == next {
			return next
		}
		if c.v.CAS(old, next) {
			return next
		}
	}
}

// Value returns the current value.
func (c *Counter) Value() int64 {
	return c.v.Load()
}

// Reset stores v.
func (c *Counter) Reset(v int64) {
	c.v.Store(v)
}

// TryReserve sets the counter to window if and only if it currently reads
// zero. It reports whether the reservation was taken.
func (c *Counter) TryReserve(window int64) bool {
	return c.v.CAS(0, window)
}
