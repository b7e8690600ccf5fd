package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
)

const constraintRoomCode = "exam_rooms_room_code_key"

const roomColumns = `id, room_code, room_name, index_start, index_end, capacity, description, created_at, updated_at`

type ExamRoomRepository struct {
	pool PgxPool
}

func NewExamRoomRepository(pool PgxPool) *ExamRoomRepository {
	return &ExamRoomRepository{pool: pool}
}

func (r *ExamRoomRepository) Create(ctx context.Context, room *domain.ExamRoom) error {
	query := `
		INSERT INTO exam_rooms (id, room_code, room_name, index_start, index_end, capacity, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		room.ID,
		room.RoomCode,
		room.RoomName,
		room.IndexStart,
		room.IndexEnd,
		room.Capacity,
		room.Description,
	).Scan(&room.CreatedAt, &room.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrRoomExists
		}
		return fmt.Errorf("create exam room: %w", err)
	}

	return nil
}

func (r *ExamRoomRepository) Update(ctx context.Context, room *domain.ExamRoom) error {
	query := `
		UPDATE exam_rooms
		SET room_code = $2, room_name = $3, index_start = $4, index_end = $5,
			capacity = $6, description = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		room.ID,
		room.RoomCode,
		room.RoomName,
		room.IndexStart,
		room.IndexEnd,
		room.Capacity,
		room.Description,
	).Scan(&room.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrRoomNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrRoomExists
		}
		return fmt.Errorf("update exam room: %w", err)
	}

	return nil
}

func (r *ExamRoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM exam_rooms
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete exam room: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}

	return nil
}

func (r *ExamRoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExamRoom, error) {
	query := `SELECT ` + roomColumns + ` FROM exam_rooms WHERE id = $1`

	room, err := scanRoom(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam room by id: %w", err)
	}
	return room, nil
}

func (r *ExamRoomRepository) GetByCode(ctx context.Context, code string) (*domain.ExamRoom, error) {
	query := `SELECT ` + roomColumns + ` FROM exam_rooms WHERE room_code = $1`

	room, err := scanRoom(r.pool.QueryRow(ctx, query, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam room by code: %w", err)
	}
	return room, nil
}

// List returns every room ordered by the start of its range.
func (r *ExamRoomRepository) List(ctx context.Context) ([]domain.ExamRoom, error) {
	query := `SELECT ` + roomColumns + ` FROM exam_rooms ORDER BY index_start, room_code`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list exam rooms: %w", err)
	}
	defer rows.Close()

	var rooms []domain.ExamRoom
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exam room: %w", err)
		}
		rooms = append(rooms, *room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return rooms, nil
}

func scanRoom(row pgx.Row) (*domain.ExamRoom, error) {
	var room domain.ExamRoom
	err := row.Scan(
		&room.ID,
		&room.RoomCode,
		&room.RoomName,
		&room.IndexStart,
		&room.IndexEnd,
		&room.Capacity,
		&room.Description,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}
