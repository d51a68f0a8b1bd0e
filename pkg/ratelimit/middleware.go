package ratelimit

import (
	"net/http"
	"strconv"
	"strings"

	echo "github.com/labstack/echo/v5"
)

// KeyFunc extracts the rate-limit key from a request — by default the
// first forwarded-for address, falling back to the peer address.
type KeyFunc func(c *echo.Context) string

// SkipFunc reports whether a request should bypass rate limiting /
// concurrency guarding entirely — e.g. CORS preflight, SSE streams, or
// designated sub-paths, per spec §4.1's "Skip conditions MUST be
// configurable".
type SkipFunc func(c *echo.Context) bool

// DefaultKeyFunc implements the spec's default key: the first
// X-Forwarded-For address, or the request's RemoteAddr.
func DefaultKeyFunc(c *echo.Context) string {
	if xff := c.Request().Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	return c.Request().RemoteAddr
}

// SkipStreamsAndPreflight skips CORS preflight requests and any path under
// one of the given SSE/streaming prefixes.
func SkipStreamsAndPreflight(streamPrefixes ...string) SkipFunc {
	return func(c *echo.Context) bool {
		if c.Request().Method == http.MethodOptions {
			return true
		}
		path := c.Request().URL.Path
		for _, p := range streamPrefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}
}

// Middleware returns an Echo middleware enforcing the sliding-window
// limiter. On rejection it sets Retry-After (seconds, ceiling) and
// responds 429 rate_limited with retryAfterMs; on every decision of an
// enabled limiter (max > 0) it sets the RateLimit-Limit/Remaining/Reset
// headers. Internal errors degrade
// open per spec §4.1.
func Middleware(limiter *Limiter, keyFn KeyFunc, skip SkipFunc) echo.MiddlewareFunc {
	if keyFn == nil {
		keyFn = DefaultKeyFunc
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			if skip != nil && skip(c) {
				return next(c)
			}

			key := keyFn(c)
			decision := limiter.Check(key)

			h := c.Response().Header()
			if decision.Limit > 0 {
				h.Set("RateLimit-Limit", strconv.Itoa(decision.Limit))
				h.Set("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
				h.Set("RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
			}

			if !decision.Allowed {
				retrySeconds := (decision.RetryAfterMs + 999) / 1000
				h.Set("Retry-After", strconv.FormatInt(retrySeconds, 10))
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"error":        "rate_limited",
					"retryAfterMs": decision.RetryAfterMs,
				})
			}

			return next(c)
		}
	}
}

// ConcurrencyMiddleware returns an Echo middleware enforcing a per-route
// concurrency guard. Release is guaranteed on every response path via
// defer, regardless of how the handler chain terminates.
func ConcurrencyMiddleware(guard *Guard, skip SkipFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			if skip != nil && skip(c) {
				return next(c)
			}

			decision := guard.Acquire()
			if !decision.Acquired {
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"error":    "concurrency_exhausted",
					"inFlight": decision.InFlight,
				})
			}
			defer guard.Release()

			return next(c)
		}
	}
}
