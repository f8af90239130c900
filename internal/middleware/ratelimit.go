package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitByIP allows requestsPerMinute per client IP with a burst of the same
// size. Zero or negative disables limiting.
func RateLimitByIP(requestsPerMinute int) func(next http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	type entry struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}
	var mu sync.Mutex
	m := make(map[string]*entry)
	var lastCleanup time.Time
	every := rate.Every(time.Minute / time.Duration(requestsPerMinute))

	cleanup := func(now time.Time) {
		if now.Sub(lastCleanup) < 2*time.Minute {
			return
		}
		lastCleanup = now
		cutoff := now.Add(-2 * time.Minute)
		for k, e := range m {
			if e.lastSeen.Before(cutoff) {
				delete(m, k)
			}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			now := time.Now()
			mu.Lock()
			cleanup(now)
			e := m[key]
			if e == nil {
				e = &entry{limiter: rate.NewLimiter(every, requestsPerMinute)}
				m[key] = e
			}
			e.lastSeen = now
			allowed := e.limiter.AllowN(now, 1)
			mu.Unlock()
			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"detail":"Rate limit exceeded."}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP keys on RemoteAddr only. Forwarding headers are chi's RealIP's job.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
