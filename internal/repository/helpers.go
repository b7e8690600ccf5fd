package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool the repositories use. pgxmock's
// PgxPoolIface satisfies it as well.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// isUniqueViolation checks if the error is a unique constraint violation
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "23505") ||
		strings.Contains(errMsg, "unique") ||
		strings.Contains(errMsg, "duplicate key")
}

// violatedConstraint returns the constraint name of a unique violation, or
// "" when the driver did not report one.
func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	msg := err.Error()
	for _, name := range []string{constraintStudentID, constraintIndexNumber, constraintRoomCode} {
		if strings.Contains(msg, name) {
			return name
		}
	}
	return ""
}

func toVector(e domain.Embedding) *pgvector.Vector {
	if len(e) == 0 {
		return nil
	}
	v := pgvector.NewVector(e.Float32())
	return &v
}

func fromVector(v *pgvector.Vector) domain.Embedding {
	if v == nil || v.Slice() == nil {
		return nil
	}
	return domain.EmbeddingFromFloat32(v.Slice())
}
