// Package limiter provides local and distributed admission control over a
// family of rate limiting algorithms.
//
// The primary entry point is the Limiter:
//
//	lim, err := limiter.New(limiter.Config{
//		Algorithm:  limiter.TokenBucket,
//		Capacity:   100,
//		RefillRate: 50, // tokens per second
//	})
//	...
//	dec := lim.Allow(ctx, "user:123")
//
// The returned Decision says whether the request is admitted, how much quota
// remains, and the timing hints callers need for rate-limit headers.
//
// # Algorithms
//
// Five algorithms are supported, selected by Config.Algorithm:
//
//   - token_bucket: continuous refill, bursts up to Capacity, long-run rate
//     converging to RefillRate. The default choice.
//   - leaky_bucket: a bounded queue drained at a fixed rate. Output rate is
//     strictly bounded; no bursts beyond capacity; overflow is denied
//     immediately rather than queued.
//   - fixed_window: a counter per fixed window. Cheapest, but a burst
//     straddling a window boundary can pass up to twice the limit; that
//     boundary behavior is inherent and documented, not a bug.
//   - sliding_log: exact timestamps of admissions. No boundary artifact: no
//     trailing window ever admits more than the limit. Memory per key is
//     bounded by the limit.
//   - sliding_counter: O(1) approximation of sliding_log weighting the
//     previous window's count by its overlap with the trailing window. The
//     weighting assumes uniform arrivals in the previous window; its error
//     is bounded by that window's count.
//
// # Keys and classes
//
// A key names one independent quota: "user:123", "ip:1.2.3.4", an API key,
// or any composite. The portion before the first ':' is the key's class.
// With a ConfigResolver (see the rules package) different classes get
// different configs; without one the base Config applies to every key.
// State is created lazily on a key's first Allow and evicted after an idle
// TTL, so a key that reappears later simply starts fresh.
//
// # Backends
//
// The store decides the consistency scope:
//
//   - store.Memory (default): in-process, per-shard locking, background TTL
//     sweep. Enforces the limit per instance; ideal for tests and
//     single-instance deployments.
//   - store.Redis: every step runs as a server-side Lua script, so the
//     read-modify-write is one indivisible operation and the limit holds
//     across all instances sharing the backend.
//
// Both satisfy the same contract: per-key serializability. Two concurrent
// calls for one key never observe the same prior state, which is what rules
// out the classic double-admission race.
//
// # Failure policy
//
// Allow never returns an error. When the backend is unreachable or the
// configured timeout expires, the Decision carries Degraded=true and the
// verdict chosen by WithFailurePolicy: FailOpen admits (availability wins),
// FailClosed denies (correctness wins, the default). Every degraded
// decision is logged at Warn with the key's class.
//
// # HTTP mapping
//
// The engine itself has no HTTP surface. The conventional mapping for
// middleware built on top: respond 429 when !dec.Allowed, with
//
//	X-RateLimit-Limit:     dec.Limit
//	X-RateLimit-Remaining: dec.Remaining
//	X-RateLimit-Reset:     dec.ResetEpoch()
//	Retry-After:           int(dec.RetryAfter.Seconds())
//
// See cmd/example-server for a runnable consumer.
//
// # Observability
//
// WithRecorder accepts any MetricsRecorder; PrometheusRecorder adapts the
// signals to Prometheus. The hot path logs nothing on success.
package limiter
