package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saturnino-fabrica-de-software/examgate/internal/audit"
	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
	"github.com/saturnino-fabrica-de-software/examgate/internal/metrics"
)

const (
	DefaultStatsWindow = 7 * 24 * time.Hour
	DefaultLogLimit    = 100
	MaxLogLimit        = 1000
)

// ReportStore is implemented by *metrics.Repository and *memory.Reports.
type ReportStore interface {
	Stats(ctx context.Context, since time.Time) (*metrics.Stats, error)
	ListLogs(ctx context.Context, f metrics.LogFilter) ([]audit.Event, error)
}

// LogQuery is an unvalidated recognition log filter.
type LogQuery struct {
	StudentID string
	RoomCode  string
	Outcome   string
	From      time.Time
	To        time.Time
	Limit     int
}

type ReportService struct {
	store  ReportStore
	logger *slog.Logger
	now    func() time.Time
}

func NewReportService(store ReportStore, logger *slog.Logger) *ReportService {
	return &ReportService{
		store:  store,
		logger: logger.With(slog.String("component", "reports")),
		now:    time.Now,
	}
}

// Stats reports totals plus activity within the last window. A window <= 0
// selects DefaultStatsWindow.
func (s *ReportService) Stats(ctx context.Context, window time.Duration) (*metrics.Stats, error) {
	if window <= 0 {
		window = DefaultStatsWindow
	}

	stats, err := s.store.Stats(ctx, s.now().UTC().Add(-window))
	if err != nil {
		return nil, domain.ErrRecognitionUnavailable.WithError(fmt.Errorf("stats: %w", err))
	}
	return stats, nil
}

// Logs lists recognition logs newest first.
func (s *ReportService) Logs(ctx context.Context, q LogQuery) ([]audit.Event, error) {
	f, err := q.filter()
	if err != nil {
		return nil, err
	}

	events, err := s.store.ListLogs(ctx, f)
	if err != nil {
		s.logger.ErrorContext(ctx, "list recognition logs failed", slog.String("error", err.Error()))
		return nil, domain.ErrRecognitionUnavailable.WithError(fmt.Errorf("list logs: %w", err))
	}
	return events, nil
}

func (q LogQuery) filter() (metrics.LogFilter, error) {
	f := metrics.LogFilter{
		StudentID: strings.TrimSpace(q.StudentID),
		RoomCode:  domain.NormalizeRoomCode(q.RoomCode),
		Outcome:   strings.TrimSpace(q.Outcome),
		From:      q.From,
		To:        q.To,
		Limit:     q.Limit,
	}

	if f.StudentID != "" {
		if err := domain.ValidateStudentID(f.StudentID); err != nil {
			return f, err
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, domain.ErrValidationFailed.WithError(errors.New("start_date must not be after end_date"))
	}
	switch {
	case f.Limit < 0:
		return f, domain.ErrValidationFailed.WithError(errors.New("limit must not be negative"))
	case f.Limit == 0:
		f.Limit = DefaultLogLimit
	case f.Limit > MaxLogLimit:
		f.Limit = MaxLogLimit
	}
	return f, nil
}
