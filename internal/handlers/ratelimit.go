package handlers

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepSize = 4096
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitPerIP throttles requests with one token bucket per client IP.
// A non-positive rps disables limiting.
func RateLimitPerIP(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}

	var mu sync.Mutex
	buckets := make(map[string]*ipLimiter)

	allow := func(ip string, now time.Time) bool {
		mu.Lock()
		defer mu.Unlock()

		if len(buckets) >= limiterSweepSize {
			for key, bucket := range buckets {
				if now.Sub(bucket.lastSeen) > limiterIdleTTL {
					delete(buckets, key)
				}
			}
		}

		bucket, ok := buckets[ip]
		if !ok {
			bucket = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			buckets[ip] = bucket
		}
		bucket.lastSeen = now
		return bucket.limiter.AllowN(now, 1)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allow(clientIP(r), time.Now()) {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP expects middleware.RealIP to have rewritten RemoteAddr already.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
