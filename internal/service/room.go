package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
)

// PreviewLimit is the number of students listed by PreviewRange.
const PreviewLimit = 10

type CreateRoomInput struct {
	RoomCode    string
	RoomName    string
	IndexStart  string
	IndexEnd    string
	Capacity    *int
	Description string
}

// UpdateRoomInput changes only the non-nil fields.
type UpdateRoomInput struct {
	RoomCode    *string
	RoomName    *string
	IndexStart  *string
	IndexEnd    *string
	Capacity    *int
	Description *string
}

// RoomSummary is a room with the number of registered students in its range.
type RoomSummary struct {
	domain.ExamRoom
	AssignedStudents int `json:"assigned_students"`
}

type RangePreview struct {
	IndexStart string           `json:"index_start"`
	IndexEnd   string           `json:"index_end"`
	Count      int              `json:"count"`
	Students   []domain.Student `json:"students"`
}

// RoomRoster is a room with every registered student in its range.
type RoomRoster struct {
	Room     domain.ExamRoom  `json:"room"`
	Count    int              `json:"count"`
	Students []domain.Student `json:"students"`
}

// RoomService manages exam rooms and their index ranges.
type RoomService struct {
	rooms    RoomStore
	students StudentStore
	logger   *slog.Logger
}

// NewRoomService returns a service that counts assignments in students.
func NewRoomService(rooms RoomStore, students StudentStore, logger *slog.Logger) *RoomService {
	return &RoomService{
		rooms:    rooms,
		students: students,
		logger:   logger.With(slog.String("component", "rooms")),
	}
}

func (s *RoomService) Create(ctx context.Context, in CreateRoomInput) (*domain.ExamRoom, error) {
	room := &domain.ExamRoom{
		RoomCode:    domain.NormalizeRoomCode(in.RoomCode),
		RoomName:    strings.TrimSpace(in.RoomName),
		IndexStart:  strings.TrimSpace(in.IndexStart),
		IndexEnd:    strings.TrimSpace(in.IndexEnd),
		Capacity:    in.Capacity,
		Description: strings.TrimSpace(in.Description),
	}
	if err := room.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkOverlap(ctx, room); err != nil {
		return nil, err
	}

	if err := s.rooms.Create(ctx, room); err != nil {
		if errors.Is(err, domain.ErrRoomExists) {
			return nil, err
		}
		return nil, fmt.Errorf("room %s: create: %w", room.RoomCode, err)
	}

	s.logger.Info("exam room created",
		slog.String("room_code", room.RoomCode),
		slog.String("range", room.RangeLabel()),
	)
	return room, nil
}

func (s *RoomService) Update(ctx context.Context, id uuid.UUID, in UpdateRoomInput) (*domain.ExamRoom, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.RoomCode != nil {
		room.RoomCode = domain.NormalizeRoomCode(*in.RoomCode)
	}
	if in.RoomName != nil {
		room.RoomName = strings.TrimSpace(*in.RoomName)
	}
	if in.IndexStart != nil {
		room.IndexStart = strings.TrimSpace(*in.IndexStart)
	}
	if in.IndexEnd != nil {
		room.IndexEnd = strings.TrimSpace(*in.IndexEnd)
	}
	if in.Capacity != nil {
		room.Capacity = in.Capacity
	}
	if in.Description != nil {
		room.Description = strings.TrimSpace(*in.Description)
	}

	if err := room.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkOverlap(ctx, room); err != nil {
		return nil, err
	}

	if err := s.rooms.Update(ctx, room); err != nil {
		if errors.Is(err, domain.ErrRoomExists) || errors.Is(err, domain.ErrRoomNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("room %s: update: %w", room.RoomCode, err)
	}
	return room, nil
}

func (s *RoomService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.rooms.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return err
		}
		return fmt.Errorf("room %s: delete: %w", id, err)
	}
	return nil
}

func (s *RoomService) Get(ctx context.Context, id uuid.UUID) (*RoomSummary, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, *room)
}

// Roster lists every student whose index number falls in the room's range.
func (s *RoomService) Roster(ctx context.Context, id uuid.UUID) (*RoomRoster, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	students, err := s.students.ListByIndexRange(ctx, room.IndexStart, room.IndexEnd, 0)
	if err != nil {
		return nil, fmt.Errorf("room %s: list students: %w", room.RoomCode, err)
	}
	if students == nil {
		students = []domain.Student{}
	}
	return &RoomRoster{Room: *room, Count: len(students), Students: students}, nil
}

func (s *RoomService) GetByCode(ctx context.Context, code string) (*domain.ExamRoom, error) {
	return s.rooms.GetByCode(ctx, domain.NormalizeRoomCode(code))
}

// List returns every room with its assigned student count, ordered by range.
func (s *RoomService) List(ctx context.Context) ([]RoomSummary, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	out := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summary, err := s.summarize(ctx, room)
		if err != nil {
			return nil, err
		}
		out = append(out, *summary)
	}
	return out, nil
}

func (s *RoomService) summarize(ctx context.Context, room domain.ExamRoom) (*RoomSummary, error) {
	count, err := s.students.CountByIndexRange(ctx, room.IndexStart, room.IndexEnd)
	if err != nil {
		return nil, fmt.Errorf("room %s: count students: %w", room.RoomCode, err)
	}
	return &RoomSummary{ExamRoom: room, AssignedStudents: count}, nil
}

// PreviewRange shows who a range would cover before a room is saved.
func (s *RoomService) PreviewRange(ctx context.Context, start, end string) (*RangePreview, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if err := domain.ValidateIndexRange(start, end); err != nil {
		return nil, err
	}

	count, err := s.students.CountByIndexRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("preview range: %w", err)
	}
	students, err := s.students.ListByIndexRange(ctx, start, end, PreviewLimit)
	if err != nil {
		return nil, fmt.Errorf("preview range: %w", err)
	}
	if students == nil {
		students = []domain.Student{}
	}

	return &RangePreview{IndexStart: start, IndexEnd: end, Count: count, Students: students}, nil
}

// FindRoomForIndex returns the room whose range contains indexNumber, or
// ErrRoomNotFound.
func (s *RoomService) FindRoomForIndex(ctx context.Context, indexNumber string) (*domain.ExamRoom, error) {
	if err := domain.ValidateIndexNumber(indexNumber); err != nil {
		return nil, err
	}

	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	for i := range rooms {
		if rooms[i].Contains(indexNumber) {
			return &rooms[i], nil
		}
	}
	return nil, domain.ErrRoomNotFound
}

// ValidateAssignment reports whether indexNumber sits in roomCode. When it
// does not, the message names the room it belongs to, if any.
func (s *RoomService) ValidateAssignment(ctx context.Context, roomCode, indexNumber string) (bool, string, error) {
	indexNumber = strings.TrimSpace(indexNumber)
	if err := domain.ValidateIndexNumber(indexNumber); err != nil {
		return false, "", err
	}

	room, err := s.GetByCode(ctx, roomCode)
	if err != nil {
		return false, "", err
	}

	if room.Contains(indexNumber) {
		return true, assignedMessage("index number "+indexNumber, room), nil
	}

	correct, err := s.FindRoomForIndex(ctx, indexNumber)
	if err != nil && !errors.Is(err, domain.ErrRoomNotFound) {
		return false, "", err
	}
	return false, misplacedMessage("index number "+indexNumber, indexNumber, room, correct), nil
}

func (s *RoomService) checkOverlap(ctx context.Context, room *domain.ExamRoom) error {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return fmt.Errorf("list rooms: %w", err)
	}
	for i := range rooms {
		other := &rooms[i]
		if other.ID == room.ID {
			continue
		}
		if room.Overlaps(other) {
			return domain.ErrRoomRangeOverlap.WithError(
				fmt.Errorf("range %s overlaps room %s (%s)", room.RangeLabel(), other.RoomCode, other.RangeLabel()))
		}
	}
	return nil
}

func assignedMessage(who string, room *domain.ExamRoom) string {
	return fmt.Sprintf("%s is assigned to %s (%s)", who, room.RoomName, room.RoomCode)
}

// misplacedMessage names the correct room, or says none is assigned.
// correct may be nil.
func misplacedMessage(who, indexNumber string, room, correct *domain.ExamRoom) string {
	if correct == nil {
		return fmt.Sprintf("%s is not assigned to %s, no exam room covers index number %s",
			who, room.RoomCode, indexNumber)
	}
	return fmt.Sprintf("%s is not assigned to %s, go to %s (%s)",
		who, room.RoomCode, correct.RoomName, correct.RoomCode)
}
