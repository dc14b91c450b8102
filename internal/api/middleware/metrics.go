package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/isaacpassnav/okea-backend/internal/api/metrics"
)

const unmatchedRoute = "unmatched"

// Metrics records request count and latency per route template. Errors are
// rendered here through c.Error so the final status code is observable; the
// error is still returned so outer middleware can log it. A panic is counted
// as a 500 and re-raised for the Recover middleware.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			start := time.Now()

			defer func() {
				if r := recover(); r != nil {
					observe(c, nil, http.StatusInternalServerError, start)
					panic(r)
				}
			}()

			err = next(c)
			if err != nil {
				c.Error(err)
			}
			observe(c, err, c.Response().Status, start)
			return err
		}
	}
}

func observe(c echo.Context, err error, status int, start time.Time) {
	route := c.Path()
	if route == "" || errors.Is(err, echo.ErrNotFound) || errors.Is(err, echo.ErrMethodNotAllowed) {
		route = unmatchedRoute
	}
	method := c.Request().Method

	metrics.HTTPRequestsTotal.
		WithLabelValues(method, route, strconv.Itoa(status)).
		Inc()
	metrics.HTTPRequestDuration.
		WithLabelValues(method, route).
		Observe(time.Since(start).Seconds())
}
