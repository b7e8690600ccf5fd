package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/examgate/internal/audit"
)

type RecognitionLogRepository struct {
	pool PgxPool
}

func NewRecognitionLogRepository(pool PgxPool) *RecognitionLogRepository {
	return &RecognitionLogRepository{pool: pool}
}

// CreateRecognitionLog inserts one audit event.
func (r *RecognitionLogRepository) CreateRecognitionLog(ctx context.Context, e *audit.Event) error {
	query := `
		INSERT INTO recognition_logs (
			id, kind, outcome, reason, student_id, index_number, confidence, distance,
			room_code, room_status, signal, source, message, latency_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, query,
		e.ID,
		string(e.Kind),
		e.Outcome,
		e.Reason,
		e.StudentID,
		e.IndexNumber,
		e.Confidence,
		e.Distance,
		e.RoomCode,
		e.RoomStatus,
		e.Signal,
		e.Source,
		e.Message,
		e.LatencyMs,
		e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("create recognition log: %w", err)
	}

	return nil
}

var _ audit.Store = (*RecognitionLogRepository)(nil)
