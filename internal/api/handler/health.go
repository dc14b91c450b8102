package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const healthPingTimeout = 3 * time.Second

// Pinger is the connectivity probe the status endpoint reports on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles GET / — the service status probe.
// It always answers 200; the db field reflects the store ping.
type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

type statusResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	DB      string `json:"db"`
}

// Status reports process and store liveness.
//
// @Summary      Service status
// @Tags         health
// @Produce      json
// @Success      200  {object}  statusResponse
// @Router       / [get]
func (h *HealthHandler) Status(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
	defer cancel()

	db := "connected"
	if h.store == nil || h.store.Ping(ctx) != nil {
		db = "not connected"
	}

	return c.JSON(http.StatusOK, statusResponse{
		Status:  "ok",
		Backend: "running",
		DB:      db,
	})
}
