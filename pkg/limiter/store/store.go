// Package store provides the state backends the limiter facade runs on.
//
// A Store owns the per-key admission state and guarantees that each Step is
// one indivisible read-modify-write for its key: no two concurrent calls for
// the same key ever observe a stale state. Implementing a step as a separate
// read followed by a write lets two callers both admit against the same
// remaining quota, so the contract forbids it.
//
// Two implementations ship with the package: Memory, an in-process map with
// per-shard locking for single-instance deployments and tests, and Redis,
// which executes each step as a server-side Lua script so the limit holds
// across many application instances.
package store

import (
	"context"
	"time"

	"github.com/manenim/rate-engine/pkg/limiter/policy"
)

// Store executes one atomic admission step per call.
type Store interface {
	// Step applies one admission attempt of the given cost against key's
	// state under alg. The read-modify-write is indivisible per key.
	Step(ctx context.Context, key string, alg policy.Algorithm, p policy.Params, cost int64) (policy.Outcome, error)

	// Close releases background resources. The store must not be used
	// after Close returns.
	Close() error
}

// idleTTL picks how long a key's state may sit untouched before eviction.
// It must cover the longest span over which the state still matters: the
// window for windowed algorithms, the full drain/refill time for buckets.
// Evicting earlier would silently reset quotas; floor is the store default.
func idleTTL(floor time.Duration, p policy.Params) time.Duration {
	ttl := p.Window
	if p.RefillRate > 0 {
		if d := time.Duration(float64(p.Capacity) / p.RefillRate * float64(time.Second)); d > ttl {
			ttl = d
		}
	}
	if ttl < floor {
		ttl = floor
	}
	return ttl
}
