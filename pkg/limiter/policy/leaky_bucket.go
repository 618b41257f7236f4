package policy

import "time"

// stepLeakyBucket models a bounded queue drained at RefillRate units per
// second. Only whole units leak; the fractional part is carried in
// LeakRemainder so slow drain rates do not drift. A request is denied
// immediately when it does not fit, there is no queuing beyond capacity.
func stepLeakyBucket(p Params, st State, now time.Time, cost int64) (State, Outcome) {
	if !st.LastLeak.IsZero() {
		drained := elapsedSince(st.LastLeak, now).Seconds()*p.RefillRate + st.LeakRemainder
		leaked := int64(drained)
		if leaked >= st.Depth {
			// Bucket fully drained; an empty bucket carries no leak credit.
			st.Depth = 0
			st.LeakRemainder = 0
		} else {
			st.Depth -= leaked
			st.LeakRemainder = drained - float64(leaked)
		}
	}
	st.LastLeak = now

	var out Outcome
	if st.Depth+cost <= p.Capacity {
		st.Depth += cost
		out.Allowed = true
	} else {
		overflow := float64(st.Depth+cost-p.Capacity) - st.LeakRemainder
		out.RetryAfter = refillDuration(overflow, p.RefillRate)
	}

	out.Remaining = p.Capacity - st.Depth
	out.ResetAt = now.Add(refillDuration(float64(st.Depth)-st.LeakRemainder, p.RefillRate))
	return st, out
}
