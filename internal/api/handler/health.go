package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/examgate/internal/database"
	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
)

const Version = "0.1.0"

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	store  database.Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. Without a store (in-memory mode)
// readiness has nothing to check.
func NewHealthHandler(store database.Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Health GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{Status: "ok", Version: Version})
}

// Ready GET /ready
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	resp := HealthResponse{Status: "ready", Checks: map[string]string{"database": "skipped"}}
	if h.store == nil {
		return c.JSON(resp)
	}

	if err := database.HealthCheck(c.UserContext(), h.store); err != nil {
		h.logger.Warn("readiness check failed", slog.String("check", "database"), slog.String("error", err.Error()))
		return domain.ErrRecognitionUnavailable.WithError(err)
	}
	resp.Checks["database"] = "ok"
	return c.JSON(resp)
}
