package policy

import "time"

// stepTokenBucket refills the bucket for the elapsed time, then admits the
// request iff at least cost tokens are available.
//
// Bursts are permitted up to Capacity; the long-run admission rate converges
// to RefillRate. A fresh (zero) state starts with a full bucket.
func stepTokenBucket(p Params, st State, now time.Time, cost int64) (State, Outcome) {
	tokens := float64(p.Capacity)
	if !st.LastRefill.IsZero() {
		elapsed := elapsedSince(st.LastRefill, now)
		tokens = st.Tokens + elapsed.Seconds()*p.RefillRate
		if tokens > float64(p.Capacity) {
			tokens = float64(p.Capacity)
		}
	}
	st.LastRefill = now

	var out Outcome
	need := float64(cost)
	if tokens >= need {
		tokens -= need
		out.Allowed = true
	} else {
		out.RetryAfter = refillDuration(need-tokens, p.RefillRate)
	}
	st.Tokens = tokens

	out.Remaining = int64(tokens)
	out.ResetAt = now.Add(refillDuration(float64(p.Capacity)-tokens, p.RefillRate))
	return st, out
}

// refillDuration is the time needed to accrue the given number of tokens.
func refillDuration(tokens, rate float64) time.Duration {
	if tokens <= 0 {
		return 0
	}
	return time.Duration(tokens / rate * float64(time.Second))
}
