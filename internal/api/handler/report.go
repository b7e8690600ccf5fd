package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/examgate/internal/audit"
	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
	"github.com/saturnino-fabrica-de-software/examgate/internal/metrics"
	"github.com/saturnino-fabrica-de-software/examgate/internal/service"
)

// ReportService answers admin reporting queries
type ReportService interface {
	Stats(ctx context.Context, window time.Duration) (*metrics.Stats, error)
	Logs(ctx context.Context, q service.LogQuery) ([]audit.Event, error)
}

type ReportHandler struct {
	service ReportService
	logger  *slog.Logger
}

func NewReportHandler(svc ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{service: svc, logger: logger}
}

type LogListResponse struct {
	Logs  []audit.Event `json:"logs"`
	Total int           `json:"total"`
}

// Stats GET /v1/admin/stats?days=7
func (h *ReportHandler) Stats(c *fiber.Ctx) error {
	days, err := queryInt(c, "days")
	if err != nil {
		return err
	}
	if days < 0 || days > 365 {
		return domain.ErrValidationFailed.WithError(errors.New("days must be between 0 and 365"))
	}

	stats, err := h.service.Stats(c.UserContext(), time.Duration(days)*24*time.Hour)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// Logs GET /v1/admin/recognition-logs
func (h *ReportHandler) Logs(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	from, err := queryDate(c, "start_date", false)
	if err != nil {
		return err
	}
	to, err := queryDate(c, "end_date", true)
	if err != nil {
		return err
	}

	events, err := h.service.Logs(c.UserContext(), service.LogQuery{
		StudentID: c.Query("student_id"),
		RoomCode:  c.Query("room_code"),
		Outcome:   c.Query("outcome"),
		From:      from,
		To:        to,
		Limit:     limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(LogListResponse{Logs: events, Total: len(events)})
}

// queryInt returns 0 for an absent parameter.
func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ErrValidationFailed.WithError(fmt.Errorf("%s must be an integer", key))
	}
	return n, nil
}

// queryDate accepts RFC 3339 or YYYY-MM-DD. A bare date used as an upper
// bound covers the whole day.
func queryDate(c *fiber.Ctx, key string, endOfDay bool) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, domain.ErrValidationFailed.WithError(fmt.Errorf("%s must be RFC 3339 or YYYY-MM-DD", key))
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
