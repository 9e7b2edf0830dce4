package middleware

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"dms/internal/infrastructure/ratelimit"
	"dms/pkg/errors"
	"dms/pkg/logger"
	"dms/pkg/response"
)

// RateLimit throttles requests per client IP, or per actor once authenticated
// routes have set one.
func RateLimit(limiter *ratelimit.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if actor := Actor(c); actor != nil {
				key = "actor:" + actor.ID
			}

			allowed, retryAfter := limiter.Allow(key)
			if !allowed {
				logger.Warn("RATE LIMIT: blocked request from %s (retry in %v)", key, retryAfter)
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded"))
			}
			return next(c)
		}
	}
}
