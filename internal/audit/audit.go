// Package audit records one event per recognition attempt.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Kind defines the type of auditable event
type Kind string

const (
	KindRecognition     Kind = "recognition"
	KindRoomRecognition Kind = "room_recognition"
)

// Event is a single recognition attempt. Outcome holds the recognition
// status; room fields are set only for room recognitions.
type Event struct {
	ID          uuid.UUID `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Kind        Kind      `json:"kind"`
	Outcome     string    `json:"outcome"`
	Reason      string    `json:"reason,omitempty"`
	StudentID   *string   `json:"student_id,omitempty"`
	IndexNumber *string   `json:"index_number,omitempty"`
	Confidence  *float64  `json:"confidence,omitempty"`
	Distance    *float64  `json:"distance,omitempty"`
	RoomCode    *string   `json:"room_code,omitempty"`
	RoomStatus  *string   `json:"room_status,omitempty"`
	Signal      *string   `json:"signal,omitempty"`
	Source      string    `json:"source,omitempty"`
	Message     string    `json:"message,omitempty"`
	LatencyMs   int64     `json:"latency_ms"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// fill sets the ID and timestamp when the caller left them empty.
func (e *Event) fill() {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a new audit logger using slog
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	event.fill()

	eventJSON, err := json.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit event",
			slog.String("error", err.Error()),
			slog.String("kind", string(event.Kind)),
		)
		return err
	}

	l.logger.InfoContext(ctx, "audit_event",
		slog.String("event_id", event.ID.String()),
		slog.String("kind", string(event.Kind)),
		slog.String("outcome", event.Outcome),
		slog.String("source", event.Source),
		slog.String("event_data", string(eventJSON)),
	)

	return nil
}

// Store persists events.
type Store interface {
	CreateRecognitionLog(ctx context.Context, event *Event) error
}

// StoreLogger writes events to a Store.
type StoreLogger struct {
	store Store
}

func NewStoreLogger(store Store) *StoreLogger {
	return &StoreLogger{store: store}
}

func (l *StoreLogger) Log(ctx context.Context, event Event) error {
	event.fill()
	return l.store.CreateRecognitionLog(ctx, &event)
}

// MultiLogger delivers each event to every sink, even when some fail. The
// ID and timestamp are fixed once so all sinks record the same event.
type MultiLogger struct {
	sinks []Logger
}

func NewMultiLogger(sinks ...Logger) *MultiLogger {
	return &MultiLogger{sinks: sinks}
}

func (m *MultiLogger) Log(ctx context.Context, event Event) error {
	event.fill()

	var errs []error
	for _, s := range m.sinks {
		if err := s.Log(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

// Log does nothing and returns nil
func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
