package limiter

import (
	"context"
	"log/slog"
	"time"

	"github.com/manenim/rate-engine/pkg/limiter/store"
)

// Limiter binds a Config (or a ConfigResolver for tiered classes), an
// admission algorithm and a state store into the single call collaborators
// use: Allow.
//
// A Limiter is safe for concurrent use. It holds no per-key locks of its
// own; serialization is the store's contract.
type Limiter struct {
	base     Config
	resolver ConfigResolver
	store    store.Store
	failure  FailurePolicy
	timeout  time.Duration
	recorder MetricsRecorder
	logger   *slog.Logger
	clock    func() time.Time
}

// New validates cfg and constructs a Limiter. Without WithStore it runs on
// an in-process store, which enforces the limit per instance only.
func New(cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &Limiter{
		base:     cfg,
		recorder: &NoOpMetricsRecorder{},
		logger:   slog.Default(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.store == nil {
		l.store = store.NewMemory()
	}
	return l, nil
}

// Allow charges the key's default cost (usually 1) and reports the verdict.
func (l *Limiter) Allow(ctx context.Context, key string) Decision {
	return l.AllowN(ctx, key, 0)
}

// AllowN charges cost units against key's quota in one atomic step and
// returns the Decision. A non-positive cost means the config's default.
//
// AllowN never returns an error: a validated config cannot fail, and
// backend failures resolve through the configured FailurePolicy with
// Degraded set on the Decision.
func (l *Limiter) AllowN(ctx context.Context, key string, cost int64) Decision {
	cfg := l.base
	if l.resolver != nil {
		if c, ok := l.resolver.Resolve(key); ok {
			cfg = c
		}
	}
	if cost <= 0 {
		cost = cfg.costOrDefault()
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := l.clock()
	out, err := l.store.Step(ctx, key, cfg.Algorithm, cfg.params(), cost)
	l.recorder.Observe(MetricLatency, l.clock().Sub(start).Seconds(), nil)
	if err != nil {
		return l.degraded(key, cfg, err)
	}

	dec := Decision{
		Allowed:    out.Allowed,
		Limit:      cfg.limitValue(),
		Remaining:  out.Remaining,
		ResetAt:    out.ResetAt,
		RetryAfter: out.RetryAfter,
	}
	l.recorder.Add(MetricDecision, 1, map[string]string{"outcome": outcomeTag(dec.Allowed)})
	return dec
}

// Close releases the store's background resources.
func (l *Limiter) Close() error {
	return l.store.Close()
}

// degraded resolves a backend failure through the failure policy. Only the
// key's class is logged; raw keys would leak identifiers and blow up log
// cardinality.
func (l *Limiter) degraded(key string, cfg Config, err error) Decision {
	dec := Decision{
		Degraded: true,
		Limit:    cfg.limitValue(),
		ResetAt:  l.clock(),
	}
	if l.failure == FailOpen {
		dec.Allowed = true
	} else {
		dec.RetryAfter = retryHint(cfg)
	}

	l.logger.Warn("rate limit backend unavailable",
		"class", KeyClass(key),
		"policy", l.failure.String(),
		"error", err,
	)
	l.recorder.Add(MetricDegraded, 1, map[string]string{"policy": l.failure.String()})
	return dec
}

// retryHint is a conservative wait for fail-closed denials: the window for
// windowed algorithms, one refill for buckets.
func retryHint(cfg Config) time.Duration {
	if cfg.Window > 0 {
		return cfg.Window
	}
	if cfg.RefillRate > 0 {
		return time.Duration(float64(time.Second) / cfg.RefillRate)
	}
	return time.Second
}

func outcomeTag(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}
