package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/manenim/rate-engine/pkg/limiter/policy"
)

func redisStore(t *testing.T) (*Redis, *redis.Client) {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Skipping integration test: Redis not available (%v)", err)
	}

	r, err := NewRedis(client, WithPrefix("rate_engine_test:"))
	if err != nil {
		client.Close()
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return r, client
}

func uniqueKey(name string) string {
	return fmt.Sprintf("%s_%d", name, time.Now().UnixNano())
}

func TestRedis_Integration(t *testing.T) {
	r, client := redisStore(t)
	ctx := context.Background()

	t.Run("TokenBucket", func(t *testing.T) {
		key := uniqueKey("tb")
		p := policy.Params{Capacity: 2, RefillRate: 10}

		out, err := r.Step(ctx, key, policy.TokenBucket, p, 1)
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		if !out.Allowed || out.Remaining != 1 {
			t.Errorf("first step: allowed=%v remaining=%d, want true and 1", out.Allowed, out.Remaining)
		}

		out, _ = r.Step(ctx, key, policy.TokenBucket, p, 1)
		if !out.Allowed {
			t.Error("second step should be allowed")
		}

		out, _ = r.Step(ctx, key, policy.TokenBucket, p, 1)
		if out.Allowed {
			t.Error("third step should be denied")
		}
		if out.RetryAfter <= 0 {
			t.Error("expected positive retryAfter on denial")
		}
	})

	t.Run("FixedWindow", func(t *testing.T) {
		key := uniqueKey("fw")
		p := policy.Params{Limit: 3, Window: time.Minute}

		for i := 0; i < 3; i++ {
			out, err := r.Step(ctx, key, policy.FixedWindow, p, 1)
			if err != nil {
				t.Fatalf("step %d: %v", i, err)
			}
			if !out.Allowed {
				t.Fatalf("step %d should be allowed", i)
			}
		}
		out, _ := r.Step(ctx, key, policy.FixedWindow, p, 1)
		if out.Allowed {
			t.Error("4th step in the window should be denied")
		}
	})

	t.Run("SlidingLog", func(t *testing.T) {
		key := uniqueKey("sl")
		p := policy.Params{Limit: 2, Window: time.Minute}

		r.Step(ctx, key, policy.SlidingLog, p, 1)
		r.Step(ctx, key, policy.SlidingLog, p, 1)
		out, _ := r.Step(ctx, key, policy.SlidingLog, p, 1)
		if out.Allowed {
			t.Error("3rd step should be denied")
		}
		if out.RetryAfter <= 0 || out.RetryAfter > time.Minute {
			t.Errorf("retryAfter = %v, want within (0, 1m]", out.RetryAfter)
		}
	})

	t.Run("SharedAcrossInstances", func(t *testing.T) {
		key := uniqueKey("dist")
		p := policy.Params{Capacity: 1, RefillRate: 0.01}

		// A second store over the same backend must see the same state.
		other, err := NewRedis(client, WithPrefix("rate_engine_test:"))
		if err != nil {
			t.Fatalf("NewRedis: %v", err)
		}

		out, _ := r.Step(ctx, key, policy.TokenBucket, p, 1)
		if !out.Allowed {
			t.Fatal("instance A should consume the only token")
		}
		out, _ = other.Step(ctx, key, policy.TokenBucket, p, 1)
		if out.Allowed {
			t.Error("instance B must see the token consumed by instance A")
		}
	})

	t.Run("KeyExpiryIsSet", func(t *testing.T) {
		key := uniqueKey("ttl")
		p := policy.Params{Limit: 5, Window: 10 * time.Second}
		if _, err := r.Step(ctx, key, policy.FixedWindow, p, 1); err != nil {
			t.Fatalf("step: %v", err)
		}

		ttl, err := client.PTTL(ctx, "rate_engine_test:"+key).Result()
		if err != nil {
			t.Fatalf("pttl: %v", err)
		}
		if ttl <= 0 {
			t.Errorf("key has no expiry (pttl=%v)", ttl)
		}
	})
}

func TestRedis_ContextCancellation(t *testing.T) {
	r, _ := redisStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := policy.Params{Capacity: 10, RefillRate: 1}
	_, err := r.Step(ctx, uniqueKey("cancel"), policy.TokenBucket, p, 1)
	if err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
}
