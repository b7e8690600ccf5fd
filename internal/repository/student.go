package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
)

const (
	constraintStudentID   = "students_student_id_key"
	constraintIndexNumber = "students_index_number_key"
)

const studentColumns = `id, student_id, index_number, first_name, middle_name, last_name,
		email, program, level, embedding, created_at, updated_at`

type StudentRepository struct {
	pool PgxPool
}

func NewStudentRepository(pool PgxPool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func (r *StudentRepository) Create(ctx context.Context, s *domain.Student) error {
	query := `
		INSERT INTO students (id, student_id, index_number, first_name, middle_name, last_name,
			email, program, level, embedding, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		s.ID,
		s.StudentID,
		s.IndexNumber,
		s.FirstName,
		s.MiddleName,
		s.LastName,
		s.Email,
		s.Program,
		s.Level,
		toVector(s.Embedding),
	).Scan(&s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			if violatedConstraint(err) == constraintIndexNumber {
				return domain.ErrIndexNumberExists
			}
			return domain.ErrStudentExists
		}
		return fmt.Errorf("create student: %w", err)
	}

	return nil
}

// UpdateEmbedding replaces the stored embedding. A nil embedding removes the
// student from the matchable population.
func (r *StudentRepository) UpdateEmbedding(ctx context.Context, studentID string, e domain.Embedding) error {
	query := `
		UPDATE students
		SET embedding = $2, updated_at = NOW()
		WHERE student_id = $1
	`

	result, err := r.pool.Exec(ctx, query, studentID, toVector(e))
	if err != nil {
		return fmt.Errorf("update student embedding: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrStudentNotFound
	}

	return nil
}

func (r *StudentRepository) GetByStudentID(ctx context.Context, studentID string) (*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE student_id = $1`

	s, err := scanStudent(r.pool.QueryRow(ctx, query, studentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student by student_id: %w", err)
	}
	return s, nil
}

func (r *StudentRepository) GetByIndexNumber(ctx context.Context, indexNumber string) (*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE index_number = $1`

	s, err := scanStudent(r.pool.QueryRow(ctx, query, indexNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student by index_number: %w", err)
	}
	return s, nil
}

func (r *StudentRepository) Delete(ctx context.Context, studentID string) error {
	query := `
		DELETE FROM students
		WHERE student_id = $1
	`

	result, err := r.pool.Exec(ctx, query, studentID)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrStudentNotFound
	}

	return nil
}

// ListCandidates returns every student with an embedding, ordered by
// student_id.
func (r *StudentRepository) ListCandidates(ctx context.Context) ([]domain.EnrollmentCandidate, error) {
	query := `
		SELECT student_id, index_number, first_name, middle_name, last_name, embedding, updated_at
		FROM students
		WHERE embedding IS NOT NULL
		ORDER BY student_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.EnrollmentCandidate
	for rows.Next() {
		var (
			s   domain.Student
			vec *pgvector.Vector
		)
		err := rows.Scan(
			&s.StudentID,
			&s.IndexNumber,
			&s.FirstName,
			&s.MiddleName,
			&s.LastName,
			&vec,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, domain.EnrollmentCandidate{
			StudentID:   s.StudentID,
			IndexNumber: s.IndexNumber,
			Name:        s.FullName(),
			Embedding:   fromVector(vec),
			UpdatedAt:   s.UpdatedAt,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return candidates, nil
}

// ListByIndexRange returns students whose index number lies in
// [start, end], ordered by index number. limit <= 0 means no limit.
func (r *StudentRepository) ListByIndexRange(ctx context.Context, start, end string, limit int) ([]domain.Student, error) {
	query := `SELECT ` + studentColumns + `
		FROM students
		WHERE index_number >= $1 AND index_number <= $2
		ORDER BY index_number
		LIMIT $3
	`

	if limit <= 0 {
		limit = math.MaxInt32
	}

	rows, err := r.pool.Query(ctx, query, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("list students by index range: %w", err)
	}
	defer rows.Close()

	var students []domain.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return students, nil
}

func (r *StudentRepository) CountByIndexRange(ctx context.Context, start, end string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM students
		WHERE index_number >= $1 AND index_number <= $2
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("count students by index range: %w", err)
	}
	return count, nil
}

// List returns one page of students ordered by index number.
func (r *StudentRepository) List(ctx context.Context, offset, limit int) ([]domain.Student, error) {
	query := `SELECT ` + studentColumns + `
		FROM students
		ORDER BY index_number
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []domain.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return students, nil
}

func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// Ping reports whether the database is reachable.
func (r *StudentRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanStudent(row pgx.Row) (*domain.Student, error) {
	var (
		s   domain.Student
		vec *pgvector.Vector
	)
	err := row.Scan(
		&s.ID,
		&s.StudentID,
		&s.IndexNumber,
		&s.FirstName,
		&s.MiddleName,
		&s.LastName,
		&s.Email,
		&s.Program,
		&s.Level,
		&vec,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Embedding = fromVector(vec)
	return &s, nil
}
