// Package clock drives the simulation one discrete tick at a time.
package clock

import (
	"context"
	"time"
)

// StepFunc runs one tick. Returning an error stops the clock.
type StepFunc func(ctx context.Context, tick uint64) error

// Clock is a discrete time source. The zero value runs ticks back to back
// until the context is cancelled.
type Clock struct {
	// Interval is the wall-clock pause between ticks. Zero runs as fast as
	// possible.
	Interval time.Duration
	// MaxTicks stops the clock after that many ticks when positive.
	MaxTicks uint64

	next uint64
}

// Now returns the index of the next tick to run.
func (c *Clock) Now() uint64 { return c.next }

// Run calls fn for consecutive ticks. It returns nil when ctx is cancelled
// or MaxTicks is reached and the error of fn otherwise. Cancellation is only
// observed between ticks.
func (c *Clock) Run(ctx context.Context, fn StepFunc) error {
	var timer *time.Timer
	if c.Interval > 0 {
		timer = time.NewTimer(0)
		defer timer.Stop()
		<-timer.C
	}
	for ran := uint64(0); c.MaxTicks == 0 || ran < c.MaxTicks; ran++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := fn(ctx, c.next); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		c.next++
		if timer == nil || (c.MaxTicks > 0 && ran+1 == c.MaxTicks) {
			continue
		}
		timer.Reset(c.Interval)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
	return nil
}
