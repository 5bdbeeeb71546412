package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterPool hands out one token bucket per user, created on first use.
type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	limit rate.Limit
	burst int
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.m[key]; ok {
		return l
	}
	l := rate.NewLimiter(p.limit, p.burst)
	p.m[key] = l
	return l
}

// RateLimit allows each authenticated user perMinute requests per minute.
// It must run after Auth. A non-positive perMinute disables the limit.
// onReject, if set, is called for every rejected request.
func RateLimit(perMinute int, onReject func()) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	pool := &limiterPool{
		m:     make(map[string]*rate.Limiter),
		limit: rate.Every(time.Minute / time.Duration(perMinute)),
		burst: perMinute,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !pool.get(GetUserID(r.Context())).Allow() {
				if onReject != nil {
					onReject()
				}
				w.Header().Set("Retry-After", "60")
				deny(w, http.StatusTooManyRequests, "RATE_LIMITED", "You are sending messages too quickly. Please wait a moment.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
