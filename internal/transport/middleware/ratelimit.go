package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/pkg/logger"
)

var errTooManyRequests = &internal.AppError{
	Type:       internal.ErrorTypeValidation,
	Code:       internal.ErrCodeRateLimited,
	Message:    "too many requests, try again later",
	StatusCode: http.StatusTooManyRequests,
}

// RateLimiter keeps one token bucket per caller. Authenticated callers are
// keyed by user id, anonymous ones by remote address. Buckets idle for longer
// than the idle TTL are dropped on the next sweep; the TTL is never shorter
// than a full refill, so a dropped bucket would have been full anyway.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*visitor
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(cfg internal.RateLimitConfig) *RateLimiter {
	rps, burst := cfg.DemoIssueRPS, cfg.DemoIssueBurst
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	idle := cfg.IdleTTL
	if refill := time.Duration(float64(burst) / rps * float64(time.Second)); idle < refill {
		idle = refill
	}
	return &RateLimiter{
		limiters:  make(map[string]*visitor),
		rps:       rate.Limit(rps),
		burst:     burst,
		idleTTL:   idle,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		for k, v := range l.limiters {
			if now.Sub(v.lastSeen) >= l.idleTTL {
				delete(l.limiters, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.limiters[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if p, ok := internal.PrincipalFromContext(r.Context()); ok {
			key = "user:" + strconv.FormatInt(p.ID, 10)
		}

		if !l.allow(key) {
			logger.From(r.Context()).Warn("rate limit exceeded", "key", key, "path", r.URL.Path)
			w.Header().Set("Retry-After", "1")
			writeAppError(w, errTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
