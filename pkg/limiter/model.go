package limiter

import (
	"strings"
	"time"

	"github.com/manenim/rate-engine/pkg/limiter/policy"
)

// Algorithm aliases the closed set of admission algorithms so callers can
// configure a limiter without importing the policy package.
type Algorithm = policy.Algorithm

const (
	TokenBucket    = policy.TokenBucket
	LeakyBucket    = policy.LeakyBucket
	FixedWindow    = policy.FixedWindow
	SlidingLog     = policy.SlidingLog
	SlidingCounter = policy.SlidingCounter
)

// Config is the immutable policy for one quota class.
//
// Window algorithms (fixed_window, sliding_log, sliding_counter) require
// Limit and Window. Bucket algorithms (token_bucket, leaky_bucket) require
// Capacity and RefillRate. CostDefault is the cost charged by Allow; zero
// means 1.
type Config struct {
	Algorithm   Algorithm
	Limit       int64
	Window      time.Duration
	Capacity    int64
	RefillRate  float64
	CostDefault int64
}

// Validate reports the first construction-time problem with c. A validated
// Config never fails at call time.
func (c Config) Validate() error {
	if !c.Algorithm.Valid() {
		return &ConfigError{Field: "algorithm", Err: ErrUnknownAlgorithm}
	}
	switch c.Algorithm {
	case TokenBucket, LeakyBucket:
		if c.Capacity <= 0 {
			return &ConfigError{Field: "capacity", Err: ErrNonPositiveCapacity}
		}
		if c.RefillRate <= 0 {
			return &ConfigError{Field: "refill_rate", Err: ErrNonPositiveRate}
		}
	default:
		if c.Limit <= 0 {
			return &ConfigError{Field: "limit", Err: ErrNonPositiveLimit}
		}
		if c.Window <= 0 {
			return &ConfigError{Field: "window", Err: ErrNonPositiveWindow}
		}
	}
	if c.CostDefault < 0 {
		return &ConfigError{Field: "cost_default", Err: ErrNegativeCost}
	}
	return nil
}

func (c Config) params() policy.Params {
	return policy.Params{
		Limit:      c.Limit,
		Window:     c.Window,
		Capacity:   c.Capacity,
		RefillRate: c.RefillRate,
	}
}

// limitValue is the quota ceiling surfaced on Decisions: the bucket capacity
// for bucket algorithms, the window limit otherwise.
func (c Config) limitValue() int64 {
	switch c.Algorithm {
	case TokenBucket, LeakyBucket:
		return c.Capacity
	default:
		return c.Limit
	}
}

func (c Config) costOrDefault() int64 {
	if c.CostDefault > 0 {
		return c.CostDefault
	}
	return 1
}

// Decision is the outcome surfaced to collaborators (HTTP middleware, RPC
// interceptors, CLIs). Allow always returns one; backend trouble shows up
// as Degraded=true with the failure policy's verdict, never as an error.
type Decision struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
	Degraded   bool
}

// ResetEpoch is ResetAt as Unix seconds, the shape the conventional
// X-RateLimit-Reset header wants.
func (d Decision) ResetEpoch() int64 {
	return d.ResetAt.Unix()
}

// FailurePolicy picks the verdict when the backend is unreachable or the
// call times out.
type FailurePolicy int

const (
	// FailClosed denies on backend failure. Correctness-favoring; the
	// default.
	FailClosed FailurePolicy = iota
	// FailOpen admits on backend failure. Availability-favoring.
	FailOpen
)

func (f FailurePolicy) String() string {
	switch f {
	case FailOpen:
		return "fail_open"
	case FailClosed:
		return "fail_closed"
	default:
		return "unknown"
	}
}

// ConfigResolver maps a key to the Config of its class. Resolve returns
// false when it has no opinion, in which case the limiter's base Config
// applies.
type ConfigResolver interface {
	Resolve(key string) (Config, bool)
}

// KeyClass is the class portion of a composite key: everything before the
// first ':', or the whole key when there is none. It is what the limiter
// logs instead of raw keys, keeping identifiers and cardinality out of logs.
func KeyClass(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
