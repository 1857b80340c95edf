package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type windowCounter struct {
	count       int
	windowStart time.Time
}

// RateLimiter is a fixed-window per-IP request counter. A burst at a
// window boundary may admit up to twice the nominal rate over a short
// span; that approximation is accepted.
type RateLimiter struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	max      int
	window   time.Duration
}

// NewRateLimiter creates a limiter admitting at most max requests per IP
// within each window.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		counters: make(map[string]*windowCounter),
		max:      max,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// Allow increments the counter for ip and reports whether the request is
// within the window's budget. Increment-and-compare happens under one
// lock, so concurrent handlers never under-count.
func (rl *RateLimiter) Allow(ip string) bool {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	c, ok := rl.counters[ip]
	if !ok || now.Sub(c.windowStart) >= rl.window {
		rl.counters[ip] = &windowCounter{count: 1, windowStart: now}
		return true
	}
	c.count++
	return c.count <= rl.max
}

// cleanup drops counters whose window has long passed, every 5 minutes.
func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(5 * time.Minute)
		rl.mu.Lock()
		for ip, c := range rl.counters {
			if time.Since(c.windowStart) > 2*rl.window {
				delete(rl.counters, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Limit is the middleware handler that enforces the limit per client IP.
// A rejected request never reaches the relay dispatcher.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(realIP(r)) {
			http.Error(w, `{"success":false,"message":"Too many requests from this IP, please try again after an hour"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// realIP resolves the client address behind a reverse proxy:
// X-Forwarded-For first hop, then X-Real-Ip, then RemoteAddr.
func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		return xrip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
