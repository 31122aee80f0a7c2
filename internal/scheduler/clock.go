package scheduler

import (
	"context"
	"sync"
	"time"
)

// Clock is the time source a Loop suspends on.
type Clock interface {
	// Now returns the current time as seen by the loop.
	Now() time.Time

	// Wait blocks until the clock reaches until or ctx is done.
	Wait(ctx context.Context, until time.Time) error
}

// RealClock follows wall-clock time.
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time {
	return time.Now()
}

// Wait sleeps until the deadline, returning early with ctx.Err() on cancellation.
func (RealClock) Wait(ctx context.Context, until time.Time) error {
	d := time.Until(until)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// VirtualClock jumps straight to each requested deadline.
// Simulated delays therefore cost no wall-clock time, which keeps runs deterministic.
type VirtualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewVirtualClock creates a virtual clock positioned at start.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start}
}

// Now returns the virtual time.
func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Wait advances the virtual time to until. It never moves backwards.
func (c *VirtualClock) Wait(ctx context.Context, until time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	if until.After(c.now) {
		c.now = until
	}
	c.mu.Unlock()
	return nil
}

// Elapsed returns how far the clock has moved since start.
func (c *VirtualClock) Elapsed(start time.Time) time.Duration {
	return c.Now().Sub(start)
}
