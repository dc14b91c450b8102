package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/isaacpassnav/okea-backend/internal/api/metrics"
	"github.com/isaacpassnav/okea-backend/internal/core/domain"
)

// Auth operations that hand a token to the client.
var tokenOperations = map[string]bool{
	"register": true,
	"login":    true,
	"refresh":  true,
}

// AuthMetrics counts the outcome of an auth operation. Registered outermost on
// its route, it also sees rejections from the route's other middleware.
func AuthMetrics(operation string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			metrics.AuthOperationsTotal.WithLabelValues(operation, authOutcome(err)).Inc()
			if err == nil && tokenOperations[operation] {
				metrics.TokensIssuedTotal.WithLabelValues(operation).Inc()
			}
			return err
		}
	}
}

func authOutcome(err error) string {
	var he *echo.HTTPError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrValidation), errors.As(err, &he) && he.Code < 500:
		return "invalid"
	case errors.Is(err, domain.ErrEmailTaken):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidToken):
		return "unauthorized"
	default:
		return "error"
	}
}
