// Rate limiter for endpoints that consume LLM calls.
// Fixed-window request counting per client IP, in memory.
package api

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter counts requests per IP within a fixed window.
type RateLimiter struct {
	mu     sync.Mutex
	seen   map[string]*window
	limit  int
	period time.Duration
}

type window struct {
	used  int
	start time.Time
}

// NewRateLimiter allows limit requests per period per IP.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		seen:   make(map[string]*window),
		limit:  limit,
		period: period,
	}
	go func() {
		for range time.Tick(time.Hour) {
			rl.dropStale()
		}
	}()
	return rl
}

// Allow reports whether the IP is within its budget and records the
// request when it is.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w := rl.seen[ip]
	if w == nil || now.Sub(w.start) >= rl.period {
		rl.seen[ip] = &window{used: 1, start: now}
		return true
	}
	if w.used >= rl.limit {
		return false
	}
	w.used++
	return true
}

// RetryAfter returns whole seconds until the IP's window resets.
func (rl *RateLimiter) RetryAfter(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w := rl.seen[ip]
	if w == nil {
		return 0
	}
	left := rl.period - time.Since(w.start)
	if left <= 0 {
		return 0
	}
	return int(left.Seconds()) + 1
}

// dropStale forgets IPs whose window expired long ago.
func (rl *RateLimiter) dropStale() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-2 * rl.period)
	for ip, w := range rl.seen {
		if w.start.Before(cutoff) {
			delete(rl.seen, ip)
		}
	}
}

// clientIP extracts the caller IP, honoring X-Forwarded-For.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndexByte(ip, ':'); idx >= 0 {
		ip = ip[:idx]
	}
	return ip
}

// RateLimitMiddleware wraps a handler with per-IP limiting; 429 when
// exceeded.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.Allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(ip)))
			writeError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
			return
		}
		next(w, r)
	}
}
