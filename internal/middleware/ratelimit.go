package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig sizes the per-client token bucket. Pipeline calls are
// bursty (upload, preview, generate, execute in quick succession), so Burst
// should comfortably cover one interactive run while RequestsPerSecond caps
// the sustained rate.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

const clientIdleEviction = 10 * time.Minute

// RateLimiter enforces a per-client token bucket keyed by the peer address.
// Rejected requests get a 429 with the API's {error, reason} envelope and a
// Retry-After hint. Idle clients are evicted so the limiter table doesn't
// grow with every address ever seen.
func RateLimiter(cfg RateLimitConfig) func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		clients = make(map[string]*clientBucket)
	)

	go func() {
		for range time.Tick(clientIdleEviction / 2) {
			mu.Lock()
			for addr, cb := range clients {
				if time.Since(cb.lastSeen) > clientIdleEviction {
					delete(clients, addr)
				}
			}
			mu.Unlock()
		}
	}()

	bucketFor := func(addr string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		cb, ok := clients[addr]
		if !ok {
			cb = &clientBucket{limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)}
			clients[addr] = cb
		}
		cb.lastSeen = time.Now()
		return cb.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := bucketFor(clientAddr(r))
			if !limiter.Allow() {
				writeRateLimited(w, cfg)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
			next.ServeHTTP(w, r)
		})
	}
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientAddr keys the bucket by the peer address with the port stripped.
// X-Forwarded-For is deliberately not consulted: the service fronts no
// trusted proxy, and honoring the header would let any client mint fresh
// buckets per request.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRateLimited(w http.ResponseWriter, cfg RateLimitConfig) {
	retryAfter := 1
	if cfg.RequestsPerSecond > 0 && cfg.RequestsPerSecond < 1 {
		retryAfter = int(1/cfg.RequestsPerSecond) + 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":  "rate limit exceeded",
		"reason": "rate-limited",
	})
}
