package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Allower decides whether one more request may pass for key.
type Allower interface {
	Allow(key string) bool
}

// RateLimit answers 429 once the caller's bucket is empty. Callers are keyed by real IP.
func RateLimit(a Allower) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !a.Allow(c.RealIP()) {
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": "rate limit exceeded",
					"data":    map[string]string{"code": "ERR_TOO_MANY_REQUESTS"},
				})
			}
			return next(c)
		}
	}
}
