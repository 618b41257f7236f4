// Package policy implements the admission algorithms as pure state
// transitions.
//
// Every algorithm is a function of (state, now, cost): it performs no I/O,
// holds no locks, and never reads the clock itself. Callers (the store
// layer) are responsible for executing each transition atomically per key.
//
// A zero State is a valid fresh state for every algorithm: a token bucket
// starts full, a leaky bucket starts empty, the window counters start at
// zero. Stores therefore never need a separate "create" path.
package policy

import "time"

// Algorithm identifies one of the supported admission algorithms.
type Algorithm string

const (
	// TokenBucket refills continuously and permits bursts up to capacity.
	TokenBucket Algorithm = "token_bucket"
	// LeakyBucket drains at a fixed rate and never bursts beyond capacity.
	LeakyBucket Algorithm = "leaky_bucket"
	// FixedWindow counts admissions per fixed window. Cheap, but up to
	// 2x the limit can pass in a span straddling two adjacent windows.
	FixedWindow Algorithm = "fixed_window"
	// SlidingLog keeps exact admission timestamps. No boundary artifact,
	// memory cost bounded by the limit.
	SlidingLog Algorithm = "sliding_log"
	// SlidingCounter approximates SlidingLog in O(1) space using the
	// previous window's count weighted by overlap.
	SlidingCounter Algorithm = "sliding_counter"
)

// Valid reports whether a is one of the supported algorithms.
func (a Algorithm) Valid() bool {
	switch a {
	case TokenBucket, LeakyBucket, FixedWindow, SlidingLog, SlidingCounter:
		return true
	}
	return false
}

// Params holds the immutable tuning for one quota class.
//
// Window algorithms (fixed_window, sliding_log, sliding_counter) use Limit
// and Window. Bucket algorithms (token_bucket, leaky_bucket) use Capacity
// and RefillRate; for the leaky bucket RefillRate is the leak rate.
type Params struct {
	Limit      int64
	Window     time.Duration
	Capacity   int64
	RefillRate float64
}

// State is the per-key tuple an algorithm reads and rewrites. Only the
// fields of the active algorithm are populated; the rest stay zero.
type State struct {
	// Token bucket.
	Tokens     float64
	LastRefill time.Time

	// Leaky bucket. LeakRemainder carries the fractional leak between
	// calls so slow drains do not drift.
	Depth         int64
	LastLeak      time.Time
	LeakRemainder float64

	// Fixed window and sliding counter.
	WindowIndex int64
	Count       int64
	PrevCount   int64

	// Sliding log: ascending admission timestamps, trimmed to the window.
	Log []time.Time
}

// Outcome is what one transition decided, derived from the post-state.
type Outcome struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Step applies one admission attempt of the given cost to st at time now
// and returns the successor state plus the outcome. The switch is
// exhaustive over Algorithm; an unknown value panics, which construction-
// time validation makes unreachable.
func Step(alg Algorithm, p Params, st State, now time.Time, cost int64) (State, Outcome) {
	switch alg {
	case TokenBucket:
		return stepTokenBucket(p, st, now, cost)
	case LeakyBucket:
		return stepLeakyBucket(p, st, now, cost)
	case FixedWindow:
		return stepFixedWindow(p, st, now, cost)
	case SlidingLog:
		return stepSlidingLog(p, st, now, cost)
	case SlidingCounter:
		return stepSlidingCounter(p, st, now, cost)
	default:
		panic("policy: unknown algorithm " + string(alg))
	}
}

// elapsedSince clamps backward clock jumps to zero so stale timestamps can
// never inflate refills or leaks.
func elapsedSince(last, now time.Time) time.Duration {
	d := now.Sub(last)
	if d < 0 {
		return 0
	}
	return d
}

// windowIndex is the zero-based index of the fixed window containing now.
func windowIndex(now time.Time, window time.Duration) int64 {
	return now.UnixNano() / int64(window)
}

// windowEnd is the instant the window with the given index closes.
func windowEnd(idx int64, window time.Duration) time.Time {
	return time.Unix(0, (idx+1)*int64(window))
}
