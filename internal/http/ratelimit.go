package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ipRateLimiter hands out one token bucket per client IP.
//
// The limiter map is wiped hourly instead of tracking per-entry expiry;
// refilling a bucket once an hour is indistinguishable from expiry at
// these rates and keeps the map from growing without bound.
type ipRateLimiter struct {
	limit rate.Limit
	burst int

	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	lastCleanup time.Time
}

func newIPRateLimiter(limit float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		limit:       rate.Limit(limit),
		burst:       burst,
		limiters:    make(map[string]*rate.Limiter),
		lastCleanup: time.Now(),
	}
}

// Allow reports whether a request from ip may proceed now.
func (l *ipRateLimiter) Allow(ip string) bool {
	l.mu.Lock()

	if time.Since(l.lastCleanup) > time.Hour {
		l.limiters = make(map[string]*rate.Limiter)
		l.lastCleanup = time.Now()
	}

	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}

// rateLimitMiddleware rejects requests above the configured per-IP rate
// with 429.
func (s *Server) rateLimitMiddleware() echo.MiddlewareFunc {
	limiter := newIPRateLimiter(s.config.RateLimit, s.config.RateBurst)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !limiter.Allow(ip) {
				s.logger.Warn(c.Request().Context(), "rate limit exceeded",
					zap.String("ip", ip))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
