package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type ipThrottle struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle is a per-IP token-bucket limiter for sensitive auth endpoints
// (login, register, forgot-password). Unlike the relay's fixed-window
// RateLimiter it smooths sustained load rather than capping a window.
type Throttle struct {
	mu       sync.Mutex
	limiters map[string]*ipThrottle
	r        rate.Limit
	burst    int
}

// NewThrottle creates a per-IP throttle: r requests/second, burst up to burst requests.
func NewThrottle(r rate.Limit, burst int) *Throttle {
	t := &Throttle{
		limiters: make(map[string]*ipThrottle),
		r:        r,
		burst:    burst,
	}
	go t.cleanup()
	return t
}

func (t *Throttle) get(ip string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.limiters[ip]; ok {
		v.lastSeen = time.Now()
		return v.limiter
	}
	l := rate.NewLimiter(t.r, t.burst)
	t.limiters[ip] = &ipThrottle{limiter: l, lastSeen: time.Now()}
	return l
}

// cleanup removes stale entries every 5 minutes.
func (t *Throttle) cleanup() {
	for {
		time.Sleep(5 * time.Minute)
		t.mu.Lock()
		for ip, v := range t.limiters {
			if time.Since(v.lastSeen) > 10*time.Minute {
				delete(t.limiters, ip)
			}
		}
		t.mu.Unlock()
	}
}

// Limit is the middleware handler that enforces the throttle per client IP.
func (t *Throttle) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.get(realIP(r)).Allow() {
			http.Error(w, `{"success":false,"message":"too many requests"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
