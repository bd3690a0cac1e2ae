package middleware

import (
	"encoding/json"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// clientLimiters hands out one token bucket per client IP. The map is capped;
// a single-owner deployment sees a handful of IPs, so hitting the cap means
// something is spraying traffic and a full reset is acceptable.
type clientLimiters struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

const limiterMapCap = 10000

func newClientLimiters(rps float64, burst int) *clientLimiters {
	return &clientLimiters{
		buckets: make(map[string]*rate.Limiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

func (c *clientLimiters) allow(ip string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets[ip]
	if !ok {
		if len(c.buckets) >= limiterMapCap {
			c.buckets = make(map[string]*rate.Limiter)
		}
		b = rate.NewLimiter(c.rps, c.burst)
		c.buckets[ip] = b
	}
	return b.Allow()
}

// RateLimit limits requests per client IP. The IP comes from X-Real-IP when
// chi's RealIP middleware ran earlier in the chain, RemoteAddr otherwise.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiters := newClientLimiters(rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.Header.Get("X-Real-IP")
			if ip == "" {
				ip = r.RemoteAddr
			}

			if !limiters.allow(ip) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
