package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

// BearerToken extracts the bearer token from the Authorization header, falling back to
// the token query parameter for clients that cannot set headers (browser WebSockets).
func BearerToken(r *http.Request) string {
	h := r.Header.Get(echo.HeaderAuthorization)
	if len(h) > len(bearerPrefix) && strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(h[len(bearerPrefix):])
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// RequireBearer rejects requests without a bearer token. The token itself is not verified.
func RequireBearer() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if BearerToken(c.Request()) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"status":  http.StatusUnauthorized,
					"message": "missing bearer token",
					"data":    map[string]string{"code": "ERR_UNAUTHORIZED"},
				})
			}
			return next(c)
		}
	}
}
