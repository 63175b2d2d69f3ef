package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hustleboard/hustleboard/internal/errors"
	"github.com/hustleboard/hustleboard/internal/httputil"
	"github.com/hustleboard/hustleboard/internal/logging"
)

// RateLimiter applies a per-client token bucket. Authenticated
// requests are keyed by user id, anonymous ones by remote IP. Idle
// buckets are evicted after an hour.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	limit    rate.Limit
	burst    int
	lastSeen time.Duration
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewRateLimiter allows rps sustained requests per client with the
// given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		limit:    rate.Limit(rps),
		burst:    burst,
		lastSeen: time.Hour,
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.seen = now

	if len(rl.buckets) > 10000 {
		for k, v := range rl.buckets {
			if now.Sub(v.seen) > rl.lastSeen {
				delete(rl.buckets, k)
			}
		}
	}
	return b.limiter.Allow()
}

// Middleware wraps handlers with the limiter.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := logging.GetUserID(r.Context())
		if key == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			key = "ip:" + host
		}

		if !rl.allow(key) {
			httputil.WriteServiceError(w, errors.RateLimitExceeded(rl.burst, "burst"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
