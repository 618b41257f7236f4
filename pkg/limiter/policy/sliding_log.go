package policy

import "time"

// stepSlidingLog keeps the exact timestamps of granted admissions. Entries
// older than the trailing window are dropped first; the request is admitted
// iff the survivors plus its cost fit under the limit.
//
// This is the exact variant: the admitted count in any trailing interval of
// one window never exceeds the limit, with no boundary artifact. Memory and
// trim cost are bounded by the limit.
func stepSlidingLog(p Params, st State, now time.Time, cost int64) (State, Outcome) {
	cutoff := now.Add(-p.Window)
	keep := st.Log
	for len(keep) > 0 && !keep[0].After(cutoff) {
		keep = keep[1:]
	}
	if len(keep) != len(st.Log) {
		// Reallocate so the trimmed prefix does not pin the old array.
		keep = append([]time.Time(nil), keep...)
	}
	st.Log = keep

	var out Outcome
	if int64(len(st.Log))+cost <= p.Limit {
		for i := int64(0); i < cost; i++ {
			st.Log = append(st.Log, now)
		}
		out.Allowed = true
	} else if expire := int64(len(st.Log)) + cost - p.Limit; expire <= int64(len(st.Log)) {
		// Admissible once the `expire` oldest entries age out.
		out.RetryAfter = st.Log[expire-1].Add(p.Window).Sub(now)
	} else {
		// Cost exceeds the limit outright; it can never fit.
		out.RetryAfter = p.Window
	}

	out.Remaining = p.Limit - int64(len(st.Log))
	if len(st.Log) > 0 {
		out.ResetAt = st.Log[0].Add(p.Window)
	} else {
		out.ResetAt = now
	}
	return st, out
}
