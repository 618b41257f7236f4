package policy

import "time"

// stepFixedWindow counts admissions inside the fixed window containing now
// and resets the counter whenever the window index changes.
//
// The boundary artifact is inherent to the algorithm: a burst late in one
// window followed by a burst early in the next can admit close to twice the
// limit inside a span shorter than the window. Deployments that cannot
// tolerate that choose sliding_log or sliding_counter instead.
func stepFixedWindow(p Params, st State, now time.Time, cost int64) (State, Outcome) {
	idx := windowIndex(now, p.Window)
	if idx != st.WindowIndex {
		st.WindowIndex = idx
		st.Count = 0
	}

	var out Outcome
	if st.Count+cost <= p.Limit {
		st.Count += cost
		out.Allowed = true
	}

	end := windowEnd(idx, p.Window)
	out.Remaining = p.Limit - st.Count
	out.ResetAt = end
	if !out.Allowed {
		out.RetryAfter = end.Sub(now)
	}
	return st, out
}
