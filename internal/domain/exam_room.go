package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExamRoom assigns an inclusive range of index numbers to a room.
type ExamRoom struct {
	ID          uuid.UUID `json:"id"`
	RoomCode    string    `json:"room_code"`
	RoomName    string    `json:"room_name"`
	IndexStart  string    `json:"index_start"`
	IndexEnd    string    `json:"index_end"`
	Capacity    *int      `json:"capacity,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Column widths of exam_rooms.
const (
	MaxRoomCodeLength = 20
	MaxRoomNameLength = 100
)

// ValidateRoomCode checks a normalized room code.
func ValidateRoomCode(code string) error {
	if code == "" {
		return ErrValidationFailed.WithError(errors.New("room_code is required"))
	}
	return checkLength("room_code", code, MaxRoomCodeLength)
}

// NormalizeRoomCode trims and upper-cases a room code. Codes are stored and
// compared in this form.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the room code and the range bounds.
func (r *ExamRoom) Validate() error {
	if err := ValidateRoomCode(NormalizeRoomCode(r.RoomCode)); err != nil {
		return err
	}
	if strings.TrimSpace(r.RoomName) == "" {
		return ErrValidationFailed.WithError(errors.New("room_name is required"))
	}
	if err := checkLength("room_name", r.RoomName, MaxRoomNameLength); err != nil {
		return err
	}
	if r.Capacity != nil && *r.Capacity < 0 {
		return ErrValidationFailed.WithError(errors.New("capacity must not be negative"))
	}
	return ValidateIndexRange(r.IndexStart, r.IndexEnd)
}

// Contains reports whether indexNumber lies in [IndexStart, IndexEnd].
// Bounds and index numbers share the same fixed width, so string comparison
// is the ordinal comparison.
func (r *ExamRoom) Contains(indexNumber string) bool {
	if ValidateIndexNumber(indexNumber) != nil {
		return false
	}
	return r.IndexStart <= indexNumber && indexNumber <= r.IndexEnd
}

// Overlaps reports whether the two ranges share at least one index number.
func (r *ExamRoom) Overlaps(other *ExamRoom) bool {
	return r.IndexStart <= other.IndexEnd && r.IndexEnd >= other.IndexStart
}

// RangeLabel renders the range as "start-end".
func (r *ExamRoom) RangeLabel() string {
	return fmt.Sprintf("%s-%s", r.IndexStart, r.IndexEnd)
}

// ValidateIndexRange checks both bounds are canonical and start <= end.
func ValidateIndexRange(start, end string) error {
	if err := ValidateIndexNumber(start); err != nil {
		return ErrValidationFailed.WithError(errors.New("index_start must be exactly 7 digits"))
	}
	if err := ValidateIndexNumber(end); err != nil {
		return ErrValidationFailed.WithError(errors.New("index_end must be exactly 7 digits"))
	}
	if start > end {
		return ErrInvalidIndexRange
	}
	return nil
}
