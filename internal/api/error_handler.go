package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/isaacpassnav/okea-backend/internal/core/domain"
)

// Client-facing messages. Domain errors never reach the wire verbatim.
const (
	msgNotFound          = "Ruta no encontrada"
	msgEmailTaken        = "El email ya está registrado"
	msgInvalidCredential = "Credenciales inválidas"
	msgInvalidToken      = "Token inválido o expirado"
	msgStoreUnavailable  = "Servicio de datos no disponible"
	msgInternal          = "Error interno del servidor"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// notFoundResponse is rendered when no route matches the method and path.
type notFoundResponse struct {
	Error  string `json:"error"`
	Method string `json:"method"`
	URI    string `json:"uri"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Renders unmatched routes (404 and 405 alike) as {"error","method","uri"}.
//   - Maps known domain errors to their HTTP status and client message.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if isRouteMiss(err) {
			req := c.Request()
			_ = c.JSON(http.StatusNotFound, notFoundResponse{
				Error:  msgNotFound,
				Method: req.Method,
				URI:    req.URL.Path,
			})
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func isRouteMiss(err error) bool {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return false
	}
	return he.Code == http.StatusNotFound || he.Code == http.StatusMethodNotAllowed
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (body limits, decoding failures raised by handlers).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message
	}

	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, msgEmailTaken
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredential
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, msgInvalidToken
	}

	// The client went away; nobody reads the response.
	if errors.Is(err, context.Canceled) {
		log.Debug().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("request canceled by client")
		return http.StatusInternalServerError, msgInternal
	}

	msg := msgInternal
	if errors.Is(err, domain.ErrStoreUnavailable) {
		msg = msgStoreUnavailable
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, msg
}
