package limiter

import (
	"log/slog"
	"time"

	"github.com/manenim/rate-engine/pkg/limiter/store"
)

// Option configures a Limiter at construction.
type Option func(*Limiter)

// WithStore selects the state backend. Use store.NewRedis for a limit
// shared across instances; the default in-process store is per instance.
func WithStore(s store.Store) Option {
	return func(l *Limiter) { l.store = s }
}

// WithFailurePolicy picks the verdict when the backend is unreachable:
// FailOpen to favor availability, FailClosed (the default) to favor
// correctness.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(l *Limiter) { l.failure = p }
}

// WithTimeout bounds each backend round trip. Expiry counts as a backend
// failure and resolves through the failure policy.
func WithTimeout(d time.Duration) Option {
	return func(l *Limiter) { l.timeout = d }
}

// WithResolver supplies per-class configs (for example rules.Ruleset).
// Keys the resolver has no opinion on fall back to the base Config.
func WithResolver(r ConfigResolver) Option {
	return func(l *Limiter) { l.resolver = r }
}

// WithRecorder injects a metrics backend.
func WithRecorder(r MetricsRecorder) Option {
	return func(l *Limiter) { l.recorder = r }
}

// WithLogger sets the logger for backend-failure warnings. Successful
// decisions are never logged.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

// WithClockFunc substitutes the facade's time source (latency measurement
// and degraded decisions). The store keeps its own clock.
func WithClockFunc(now func() time.Time) Option {
	return func(l *Limiter) { l.clock = now }
}
