package store

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/manenim/rate-engine/pkg/limiter/policy"
)

//go:embed token_bucket.lua
var tokenBucketScript string

//go:embed leaky_bucket.lua
var leakyBucketScript string

//go:embed fixed_window.lua
var fixedWindowScript string

//go:embed sliding_log.lua
var slidingLogScript string

//go:embed sliding_counter.lua
var slidingCounterScript string

const defaultPrefix = "limiter:"

type script struct {
	src string
	sha string
}

// Redis is the distributed store. Every algorithm's read-modify-write runs
// as one Lua script on the server, so the step stays indivisible under
// cross-process contention; a GET-then-SET round trip would let two
// instances admit against the same quota.
//
// Keys are Redis hashes (a sorted set for the sliding log) under a common
// prefix, expired via PEXPIRE so idle identities do not leak memory.
type Redis struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	clock   func() time.Time
	scripts map[policy.Algorithm]*script
}

// RedisOption tunes a Redis store.
type RedisOption func(*Redis)

// WithPrefix sets the key prefix (default "limiter:").
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// WithRedisIdleTTL sets the minimum key expiry. Per key the effective TTL
// is never shorter than the span its algorithm needs.
func WithRedisIdleTTL(d time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = d }
}

// WithRedisClock substitutes the time source used for script arguments.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(r *Redis) { r.clock = now }
}

// NewRedis verifies connectivity and loads the algorithm scripts into the
// server's script cache. If the cache is later flushed (for example by a
// Redis restart) Step falls back to EVAL transparently.
func NewRedis(client *redis.Client, opts ...RedisOption) (*Redis, error) {
	r := &Redis{
		client: client,
		prefix: defaultPrefix,
		ttl:    defaultIdleTTL,
		clock:  time.Now,
		scripts: map[policy.Algorithm]*script{
			policy.TokenBucket:    {src: tokenBucketScript},
			policy.LeakyBucket:    {src: leakyBucketScript},
			policy.FixedWindow:    {src: fixedWindowScript},
			policy.SlidingLog:     {src: slidingLogScript},
			policy.SlidingCounter: {src: slidingCounterScript},
		},
	}
	for _, opt := range opts {
		opt(r)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("store: redis ping: %w", err)
	}
	for alg, sc := range r.scripts {
		sha, err := client.ScriptLoad(ctx, sc.src).Result()
		if err != nil {
			return nil, fmt.Errorf("store: load %s script: %w", alg, err)
		}
		sc.sha = sha
	}
	return r, nil
}

// Step executes one scripted admission step for key.
func (r *Redis) Step(ctx context.Context, key string, alg policy.Algorithm, p policy.Params, cost int64) (policy.Outcome, error) {
	sc, ok := r.scripts[alg]
	if !ok {
		return policy.Outcome{}, fmt.Errorf("store: no script for algorithm %q", alg)
	}

	now := float64(r.clock().UnixMicro()) / 1e6
	ttl := idleTTL(r.ttl, p).Milliseconds()

	var args []interface{}
	switch alg {
	case policy.TokenBucket, policy.LeakyBucket:
		args = []interface{}{p.RefillRate, p.Capacity, now, cost, ttl}
	default:
		args = []interface{}{p.Limit, p.Window.Seconds(), now, cost, ttl}
	}

	keys := []string{r.prefix + key}
	result, err := r.client.EvalSha(ctx, sc.sha, keys, args...).Result()
	if err != nil && redis.HasErrorPrefix(err, "NOSCRIPT") {
		result, err = r.client.Eval(ctx, sc.src, keys, args...).Result()
	}
	if err != nil {
		return policy.Outcome{}, fmt.Errorf("store: %s step: %w", alg, err)
	}
	return parseOutcome(result)
}

// Close is a no-op: the caller owns the client's lifecycle.
func (r *Redis) Close() error {
	return nil
}

func parseOutcome(result interface{}) (policy.Outcome, error) {
	values, ok := result.([]interface{})
	if !ok || len(values) != 4 {
		return policy.Outcome{}, fmt.Errorf("store: unexpected script reply %v", result)
	}

	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	resetAt := toFloat(values[2])
	retryAfter := toFloat(values[3])

	return policy.Outcome{
		Allowed:    allowed == 1,
		Remaining:  remaining,
		ResetAt:    time.UnixMicro(int64(resetAt * 1e6)),
		RetryAfter: time.Duration(retryAfter * float64(time.Second)),
	}, nil
}

func toFloat(val interface{}) float64 {
	switch v := val.(type) {
	case int64:
		return float64(v)
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}
