package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/isaacpassnav/okea-backend/internal/core/domain"
)

// tokenKey is the echo context key holding the raw bearer token.
const tokenKey = "bearer_token"

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header and stores it in the context for the handler. It does not verify the
// token; that is the codec's job. A missing or malformed header fails with
// domain.ErrInvalidToken.
func BearerToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return domain.ErrInvalidToken
			}

			parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return domain.ErrInvalidToken
			}

			token := strings.TrimSpace(parts[1])
			if token == "" {
				return domain.ErrInvalidToken
			}

			c.Set(tokenKey, token)
			return next(c)
		}
	}
}

// Token returns the bearer token stored by BearerToken, or "" when absent.
func Token(c echo.Context) string {
	token, _ := c.Get(tokenKey).(string)
	return token
}
