package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

const rateLimitMessage = "Too many analysis requests from this service, please try again later."

// WindowLimiter admits at most limit requests per rolling window. Unlike a
// token bucket it never trickles capacity back early: a request is admitted
// only when fewer than limit requests landed in the preceding window.
type WindowLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   []time.Time
	now    func() time.Time
}

// NewWindowLimiter creates a limiter for limit requests per window.
func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{limit: limit, window: window, now: time.Now}
}

// Allow records and admits the request when the rolling window has capacity.
func (l *WindowLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	kept := l.hits[:0]
	for _, hit := range l.hits {
		if hit.After(cutoff) {
			kept = append(kept, hit)
		}
	}
	l.hits = kept

	if len(l.hits) >= l.limit {
		return false
	}
	l.hits = append(l.hits, l.now())
	return true
}

// AnalysisRateLimit caps initial analysis requests at 10 per rolling
// five-minute window. Confirmation and follow-up traffic is not limited.
func AnalysisRateLimit() echo.MiddlewareFunc {
	return RateLimitWith(NewWindowLimiter(10, 5*time.Minute))
}

// RateLimitWith wraps handlers with an explicit limiter. Used by tests.
func RateLimitWith(limiter *WindowLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiter.Allow() {
				return c.String(http.StatusTooManyRequests, rateLimitMessage)
			}
			return next(c)
		}
	}
}
