// Package metrics reports on recognition activity and prunes old
// recognition logs.
package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/examgate/internal/audit"
)

// Stats summarises the registry and recent recognition activity.
type Stats struct {
	TotalStudents      int64            `json:"total_students"`
	StudentsWithFace   int64            `json:"students_with_face"`
	TotalRecognitions  int64            `json:"total_recognitions"`
	RecentRecognitions int64            `json:"recent_recognitions"`
	ByOutcome          map[string]int64 `json:"by_outcome"`
	Since              time.Time        `json:"since"`
}

// LogFilter selects recognition logs. Zero fields do not filter.
type LogFilter struct {
	StudentID string
	RoomCode  string
	Outcome   string
	From      time.Time
	To        time.Time
	Limit     int
}

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles database operations for recognition reporting
type Repository struct {
	db DB
}

// NewRepository creates a new metrics repository
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// Stats counts students and recognition logs. Recent counts and the
// outcome breakdown cover logs created at or after since.
func (r *Repository) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM students WHERE embedding IS NOT NULL),
			(SELECT COUNT(*) FROM recognition_logs),
			(SELECT COUNT(*) FROM recognition_logs WHERE created_at >= $1)
	`

	stats := &Stats{Since: since, ByOutcome: make(map[string]int64)}
	err := r.db.QueryRow(ctx, query, since).Scan(
		&stats.TotalStudents,
		&stats.StudentsWithFace,
		&stats.TotalRecognitions,
		&stats.RecentRecognitions,
	)
	if err != nil {
		return nil, fmt.Errorf("count totals: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT outcome, COUNT(*)
		FROM recognition_logs
		WHERE created_at >= $1
		GROUP BY outcome
	`, since)
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var outcome string
		var n int64
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		stats.ByOutcome[outcome] = n
	}

	return stats, rows.Err()
}

// ListLogs returns matching logs, newest first.
func (r *Repository) ListLogs(ctx context.Context, f LogFilter) ([]audit.Event, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.StudentID != "" {
		add("student_id = $%d", f.StudentID)
	}
	if f.RoomCode != "" {
		add("room_code = $%d", f.RoomCode)
	}
	if f.Outcome != "" {
		add("outcome = $%d", f.Outcome)
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at <= $%d", f.To)
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT id, kind, outcome, reason, student_id, index_number, confidence, distance,
		       room_code, room_status, signal, source, message, latency_ms, created_at
		FROM recognition_logs`)
	if len(conds) > 0 {
		sb.WriteString("\n\t\tWHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString("\n\t\tORDER BY created_at DESC")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&sb, "\n\t\tLIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query recognition logs: %w", err)
	}
	defer rows.Close()

	events := make([]audit.Event, 0)
	for rows.Next() {
		var (
			e    audit.Event
			kind string
		)
		err := rows.Scan(
			&e.ID,
			&kind,
			&e.Outcome,
			&e.Reason,
			&e.StudentID,
			&e.IndexNumber,
			&e.Confidence,
			&e.Distance,
			&e.RoomCode,
			&e.RoomStatus,
			&e.Signal,
			&e.Source,
			&e.Message,
			&e.LatencyMs,
			&e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan recognition log: %w", err)
		}
		e.Kind = audit.Kind(kind)
		events = append(events, e)
	}

	return events, rows.Err()
}

// DeleteLogsBefore removes logs created before cutoff
func (r *Repository) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM recognition_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete recognition logs: %w", err)
	}

	return result.RowsAffected(), nil
}
