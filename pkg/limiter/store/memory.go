package store

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/manenim/rate-engine/pkg/limiter/policy"
)

const (
	shardCount           = 64
	defaultIdleTTL       = time.Hour
	defaultSweepInterval = 5 * time.Minute
)

type entry struct {
	state    policy.State
	lastSeen time.Time
	ttl      time.Duration
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Memory is the in-process store. State for each key is guarded by its
// shard's mutex, so steps for the same key serialize while distinct keys
// (almost always) proceed in parallel; there is deliberately no single
// global lock. A background sweep evicts entries idle past their TTL so
// high-cardinality key spaces do not grow without bound.
type Memory struct {
	shards [shardCount]shard

	clock      func() time.Time
	ttl        time.Duration
	sweepEvery time.Duration

	stop      chan struct{}
	closeOnce sync.Once
}

// MemoryOption tunes a Memory store.
type MemoryOption func(*Memory)

// WithClock substitutes the time source. Tests use it to step time
// deterministically.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.clock = now }
}

// WithIdleTTL sets the minimum idle time before a key's state is evicted.
// Per key the effective TTL is never shorter than the span its algorithm
// needs (window, or full bucket refill).
func WithIdleTTL(d time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = d }
}

// WithSweepInterval sets how often the background sweep runs.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(m *Memory) { m.sweepEvery = d }
}

// NewMemory constructs a Memory store and starts its eviction sweep.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		clock:      time.Now,
		ttl:        defaultIdleTTL,
		sweepEvery: defaultSweepInterval,
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	for i := range m.shards {
		m.shards[i].entries = make(map[string]*entry)
	}
	go m.sweepLoop()
	return m
}

// Step applies one admission step for key. The ctx is accepted for
// interface symmetry; the in-memory step performs no I/O and never blocks
// beyond the shard lock.
func (m *Memory) Step(_ context.Context, key string, alg policy.Algorithm, p policy.Params, cost int64) (policy.Outcome, error) {
	now := m.clock()
	sh := m.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := sh.entries[key]
	if e == nil {
		e = &entry{}
		sh.entries[key] = e
	}
	var out policy.Outcome
	e.state, out = policy.Step(alg, p, e.state, now, cost)
	e.lastSeen = now
	e.ttl = idleTTL(m.ttl, p)
	return out, nil
}

// Close stops the background sweep.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() { close(m.stop) })
	return nil
}

// Len reports how many keys currently hold state.
func (m *Memory) Len() int {
	n := 0
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

// Sweep evicts every entry idle past its TTL. The background loop calls it
// periodically; tests call it directly.
func (m *Memory) Sweep() {
	now := m.clock()
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.Lock()
		for key, e := range sh.entries {
			if now.Sub(e.lastSeen) > e.ttl {
				delete(sh.entries, key)
			}
		}
		sh.mu.Unlock()
	}
}

func (m *Memory) sweepLoop() {
	ticker := time.NewTicker(m.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) shard(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &m.shards[h.Sum32()%shardCount]
}
