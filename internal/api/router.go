package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/isaacpassnav/okea-backend/docs"
	"github.com/isaacpassnav/okea-backend/internal/api/handler"
	"github.com/isaacpassnav/okea-backend/internal/api/metrics"
	"github.com/isaacpassnav/okea-backend/internal/api/middleware"
	"github.com/isaacpassnav/okea-backend/internal/core/ports"
)

// Dependencies groups everything the router needs to build its handlers.
type Dependencies struct {
	AuthService ports.AuthService
	Store       handler.Pinger
	Log         zerolog.Logger
	// EnableDocs serves the swagger UI under /swagger/*.
	EnableDocs bool
}

type route struct {
	method     string
	path       string
	handler    echo.HandlerFunc
	middleware []echo.MiddlewareFunc
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(middleware.Metrics())

	for _, r := range routes(deps) {
		e.Add(r.method, r.path, r.handler, r.middleware...)
	}

	return e
}

func routes(deps Dependencies) []route {
	authHandler := handler.NewAuthHandler(deps.AuthService)
	healthHandler := handler.NewHealthHandler(deps.Store)

	table := []route{
		{method: http.MethodGet, path: "/", handler: healthHandler.Status},
		{method: http.MethodPost, path: "/auth/register", handler: authHandler.Register, middleware: []echo.MiddlewareFunc{middleware.AuthMetrics("register")}},
		{method: http.MethodPost, path: "/auth/login", handler: authHandler.Login, middleware: []echo.MiddlewareFunc{middleware.AuthMetrics("login")}},
		{method: http.MethodPost, path: "/auth/refresh", handler: authHandler.Refresh, middleware: []echo.MiddlewareFunc{middleware.AuthMetrics("refresh"), middleware.BearerToken()}},
		{method: http.MethodPost, path: "/auth/logout", handler: authHandler.Logout, middleware: []echo.MiddlewareFunc{middleware.AuthMetrics("logout")}},
		{method: http.MethodGet, path: "/metrics", handler: echo.WrapHandler(metrics.Handler())},
	}
	if deps.EnableDocs {
		table = append(table, route{method: http.MethodGet, path: "/swagger/*", handler: echoSwagger.WrapHandler})
	}
	return table
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Status >= http.StatusInternalServerError {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
