// Package clock provides fixed-rate tick sources that do a small piece of
// bookkeeping on every tick and then wake a single waiter.
package clock

import (
	"context"
	"time"
)

// Source runs a tick function at a fixed interval and releases a one-shot
// wake signal after each tick.
//
// The signal behaves like a binary semaphore: releasing it while a previous
// release is still pending is a no-op. The tick function must not block.
type Source struct {
	interval time.Duration
	tick     func()
	signal   chan struct{}
}

// NewSource creates a source that calls tick every interval.
func NewSource(interval time.Duration, tick func()) *Source {
	return &Source{
		interval: interval,
		tick:     tick,
		signal:   make(chan struct{}, 1),
	}
}

// Interval returns the tick interval.
func (s *Source) Interval() time.Duration {
	return s.interval
}

// Signal returns the channel released after each tick.
func (s *Source) Signal() <-chan struct{} {
	return s.signal
}

// Fire performs one tick: run the tick function, then release the signal.
func (s *Source) Fire() {
	s.tick()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Run fires the source on a ticker until ctx is cancelled.
func (s *Source) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.RunWith(ctx, ticker.C)
}

// RunWith fires the source once per value received on ticks until ctx is
// cancelled or ticks is closed.
func (s *Source) RunWith(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			s.Fire()
		}
	}
}
