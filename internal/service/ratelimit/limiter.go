package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter hands out one token bucket per key (normally the client IP).
// Buckets idle for longer than idle are forgotten on the next sweep.
type Limiter struct {
	mu        sync.Mutex
	m         map[string]*visitor
	burst     int
	perSec    rate.Limit
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// New returns a limiter refilling perSec tokens per second up to burst.
func New(burst int, perSec float64) *Limiter {
	return &Limiter{
		m:      make(map[string]*visitor),
		burst:  burst,
		perSec: rate.Limit(perSec),
		idle:   10 * time.Minute,
		now:    time.Now,
	}
}

// Allow reports whether one request for key may proceed now.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	v, ok := l.m[key]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.perSec, l.burst)}
		l.m[key] = v
	}
	v.seen = now
	if now.Sub(l.lastSweep) > l.idle {
		for k, o := range l.m {
			if now.Sub(o.seen) > l.idle {
				delete(l.m, k)
			}
		}
		l.lastSweep = now
	}
	l.mu.Unlock()
	return v.lim.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

// Middleware rejects requests over the limit with 429, keyed by client IP
// and route.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP() + ":" + c.Path()) {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": "rate limited",
				})
			}
			return next(c)
		}
	}
}
