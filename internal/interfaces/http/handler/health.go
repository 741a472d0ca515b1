package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/merchpulse/backend/internal/infrastructure/clock"
	"github.com/merchpulse/backend/internal/interfaces/http/dto"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

// HealthHandler answers liveness requests and pings the database for readiness
type HealthHandler struct {
	BaseHandler
	version string
	started time.Time
	clock   clock.Clock
	db      Pinger
}

// NewHealthHandler creates a health handler. db may be nil.
func NewHealthHandler(version string, db Pinger, clk clock.Clock) *HealthHandler {
	return &HealthHandler{
		version: version,
		started: clk.Now(),
		clock:   clk,
		db:      db,
	}
}

// Health reports service status.
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	now := h.clock.Now()
	resp := HealthResponse{
		Status:    "ok",
		Version:   h.version,
		Uptime:    now.Sub(h.started).Round(time.Second).String(),
		Checks:    map[string]string{},
		Timestamp: now,
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		err := h.db.Ping(ctx)
		cancel()
		if err != nil {
			resp.Status = "degraded"
			resp.Checks["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, dto.Response{
				Success: false,
				Data:    resp,
				Error:   &dto.ErrorInfo{Code: dto.ErrCodePersistence, Message: "Database unreachable", RequestID: getRequestID(c)},
			})
			return
		}
		resp.Checks["database"] = "ok"
	}
	h.Success(c, resp)
}
