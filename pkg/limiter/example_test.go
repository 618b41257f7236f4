package limiter_test

import (
	"context"
	"fmt"
	"time"

	"github.com/manenim/rate-engine/pkg/limiter"
)

func ExampleLimiter() {
	lim, err := limiter.New(limiter.Config{
		Algorithm:  limiter.TokenBucket,
		Capacity:   10,
		RefillRate: 10,
	})
	if err != nil {
		panic(err)
	}
	defer lim.Close()

	dec := lim.Allow(context.Background(), "user:123")
	fmt.Println(dec.Allowed, dec.Remaining)
	// Output:
	// true 9
}

func ExampleLimiter_slidingLog() {
	lim, err := limiter.New(limiter.Config{
		Algorithm: limiter.SlidingLog,
		Limit:     2,
		Window:    time.Minute,
	})
	if err != nil {
		panic(err)
	}
	defer lim.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		dec := lim.Allow(ctx, "ip:192.0.2.1")
		fmt.Println(dec.Allowed)
	}
	// Output:
	// true
	// true
	// false
}
