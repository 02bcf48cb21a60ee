// Package ratelimit spaces outbound Behance API calls.
//
// The API rejects clients that call it in tight bursts, so every request made
// through a behance.Client first claims a slot from an Interval limiter.
//
// Scheduling:
//
//   - The first call is never delayed
//   - Each later call is scheduled one interval after the previous slot
//   - Callers already spaced by at least the interval are not delayed
//   - Concurrent callers each get a distinct, strictly increasing slot
//
// Slots advance from the previous scheduled instant, not from when the
// previous request finished, so a burst of N calls starting at T dispatches
// at T, T+I, ..., T+(N-1)I regardless of response latency.
//
// Usage:
//
//	limiter := ratelimit.NewInterval(500 * time.Millisecond)
//
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // ctx cancelled before the slot arrived
//	}
//	// issue request
//
// A limiter belongs to the client that owns it and lives as long as that
// client; scheduled re-runs share one limiter so back-to-back runs stay
// spaced too.
package ratelimit
