// Command example-server shows how an HTTP collaborator consumes the
// engine: one Allow per request, Decision fields mapped to the conventional
// rate-limit headers, 429 on denial. The engine itself knows nothing about
// HTTP.
package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/manenim/rate-engine/pkg/limiter"
	"github.com/manenim/rate-engine/pkg/limiter/rules"
	"github.com/manenim/rate-engine/pkg/limiter/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	opts := []limiter.Option{
		limiter.WithFailurePolicy(limiter.FailOpen),
		limiter.WithTimeout(100 * time.Millisecond),
		limiter.WithLogger(logger),
		limiter.WithRecorder(limiter.NewPrometheusRecorder(prometheus.DefaultRegisterer)),
	}

	// REDIS_ADDR switches to the distributed store; without it the limit
	// is per process.
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		st, err := store.NewRedis(client, store.WithPrefix("demo:"))
		if err != nil {
			log.Fatal(err)
		}
		opts = append(opts, limiter.WithStore(st))
		logger.Info("using redis store", "addr", addr)
	}

	// RULES_FILE adds per-class tiers with hot reload.
	if path := os.Getenv("RULES_FILE"); path != "" {
		rs, err := rules.Load(path)
		if err != nil {
			log.Fatal(err)
		}
		if err := rs.Watch(context.Background(), logger); err != nil {
			log.Fatal(err)
		}
		opts = append(opts, limiter.WithResolver(rs))
		logger.Info("loaded rules", "path", path, "classes", len(rs.Classes()))
	}

	lim, err := limiter.New(limiter.Config{
		Algorithm:  limiter.TokenBucket,
		Capacity:   10,
		RefillRate: 5, // 5 req/s per IP, bursts of 10
	}, opts...)
	if err != nil {
		log.Fatal(err)
	}
	defer lim.Close()

	http.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		dec := lim.Allow(r.Context(), "ip:"+host)

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(dec.Limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(dec.Remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(dec.ResetEpoch(), 10))
		if !dec.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(dec.RetryAfter.Seconds()+0.999)))
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		w.Write([]byte("Pong!\n"))
	})

	http.Handle("/metrics", promhttp.Handler())

	logger.Info("listening", "addr", ":8080")
	log.Fatal(http.ListenAndServe(":8080", nil))
}
