package policy

import (
	"math"
	"time"
)

// stepSlidingCounter approximates the sliding log in O(1) space: it keeps
// counters for the current and previous fixed windows and weights the
// previous one by how much of it still overlaps the trailing window.
//
//	estimate = current + previous * (1 - position/window)
//
// The weighting assumes arrivals in the previous window were uniform. The
// error is bounded by the previous window's count: with maximally skewed
// arrivals the estimate can misattribute up to that many admissions, so the
// effective limit wanders between roughly 0.5x and 2x of the configured one
// in pathological traffic. That trade-off is the point of the algorithm;
// exact accounting is what sliding_log is for.
func stepSlidingCounter(p Params, st State, now time.Time, cost int64) (State, Outcome) {
	idx := windowIndex(now, p.Window)
	if idx != st.WindowIndex {
		if idx == st.WindowIndex+1 {
			st.PrevCount = st.Count
		} else {
			// A whole window (or more) passed with no traffic.
			st.PrevCount = 0
		}
		st.Count = 0
		st.WindowIndex = idx
	}

	windowStart := windowEnd(idx-1, p.Window)
	position := float64(now.Sub(windowStart)) / float64(p.Window)
	estimate := float64(st.Count) + float64(st.PrevCount)*(1-position)

	var out Outcome
	// A unit request is admitted while estimate < limit; a cost-n request
	// is n units, the last of which must still fit.
	if estimate+float64(cost-1) < float64(p.Limit) {
		st.Count += cost
		estimate += float64(cost)
		out.Allowed = true
	}

	remaining := p.Limit - int64(math.Ceil(estimate))
	if remaining < 0 {
		remaining = 0
	}
	out.Remaining = remaining
	out.ResetAt = windowEnd(idx, p.Window)
	if !out.Allowed {
		out.RetryAfter = out.ResetAt.Sub(now)
	}
	return st, out
}
