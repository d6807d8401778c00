// handlers_health.go - Health check handlers
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/research-explorer/backend/internal/session"
)

// StatsProvider reports what the dataset manager currently holds
type StatsProvider interface {
	Stats() session.Stats
}

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	started time.Time
	stats   StatsProvider
}

// NewHealthHandler creates a new health handler. stats may be nil.
func NewHealthHandler(version string, stats StatsProvider) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		started: time.Now(),
		stats:   stats,
	}
}

type healthResponse struct {
	Status        string         `json:"status"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptimeSeconds"`
	Datasets      *session.Stats `json:"datasets,omitempty"`
}

// HandleHealth returns server health and dataset usage
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := healthResponse{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}
	if h.stats != nil {
		st := h.stats.Stats()
		resp.Datasets = &st
	}
	return c.JSON(http.StatusOK, resp)
}
