package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the spacing the Behance API tolerates between calls
const DefaultInterval = 500 * time.Millisecond

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Wait blocks until the caller's scheduled slot arrives or ctx is done
	Wait(ctx context.Context) error
}

// Option configures an Interval limiter
type Option func(*Interval)

// WithClock replaces the wall clock, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(l *Interval) {
		l.now = now
	}
}

// Interval spaces calls at least a fixed interval apart. Slots are handed out
// from a "next allowed instant" that advances by the interval on every call,
// so a burst of callers is spread evenly and request latency never adds to
// the spacing. A caller that arrives after its slot has passed goes
// immediately and the schedule restarts from that moment.
type Interval struct {
	interval time.Duration
	now      func() time.Time
	limiter  *rate.Limiter
}

// NewInterval creates a limiter spacing calls by interval. A non-positive
// interval disables limiting.
func NewInterval(interval time.Duration, opts ...Option) *Interval {
	l := &Interval{
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.limiter = newRateLimiter(interval)
	return l
}

func newRateLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	// Burst 1 so that only the very first call (or one after an idle
	// interval) is admitted without delay.
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Interval returns the configured spacing
func (l *Interval) Interval() time.Duration {
	return l.interval
}

// Reserve claims the next slot and returns the instant the caller may start.
// Concurrent callers always receive distinct, strictly increasing instants.
func (l *Interval) Reserve() time.Time {
	slot, _ := l.reserve()
	return slot
}

func (l *Interval) reserve() (time.Time, *rate.Reservation) {
	now := l.now()
	r := l.limiter.ReserveN(now, 1)
	return now.Add(r.DelayFrom(now)), r
}

// Wait blocks until the caller's slot. If ctx ends first the slot is
// released so later callers are not pushed back by it.
func (l *Interval) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	slot, r := l.reserve()
	delay := slot.Sub(l.now())
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.CancelAt(l.now())
		return ctx.Err()
	}
}
