package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecognitionStatus is the tag of a RecognitionOutcome.
type RecognitionStatus string

const (
	RecognitionRecognized        RecognitionStatus = "recognized"
	RecognitionNoFace            RecognitionStatus = "no_face"
	RecognitionNoMatch           RecognitionStatus = "no_match"
	RecognitionAmbiguous         RecognitionStatus = "ambiguous_multi_face"
	RecognitionTimeout           RecognitionStatus = "timeout"
	RecognitionNoValidEmbeddings RecognitionStatus = "no_valid_embeddings"
	RecognitionInvalidImage      RecognitionStatus = "invalid_image"
	RecognitionError             RecognitionStatus = "error"
)

// Human readable reasons. Each one maps to a different corrective action
// (retake photo, contact admin, try again later).
const (
	ReasonRecognized        = "student recognized"
	ReasonNoFace            = "could not find a face in the photo"
	ReasonNoMatch           = "face found but no registered student matched"
	ReasonAmbiguous         = "more than one face in the photo, only the student should be in frame"
	ReasonTimeout           = "face detection timed out, please try again"
	ReasonNoValidEmbeddings = "no valid embeddings for comparison, contact an administrator"
	ReasonUnavailable       = "system temporarily unavailable, please try again later"
)

// RecognitionOutcome is the result of one recognition attempt. Only
// recognized outcomes carry the student fields, distance and confidence.
type RecognitionOutcome struct {
	ID          uuid.UUID         `json:"id"`
	Status      RecognitionStatus `json:"status"`
	StudentID   *string           `json:"student_id,omitempty"`
	IndexNumber *string           `json:"index_number,omitempty"`
	StudentName *string           `json:"student_name,omitempty"`
	Distance    *float64          `json:"distance,omitempty"`
	Confidence  *float64          `json:"confidence,omitempty"`
	Reason      string            `json:"reason"`
	Source      string            `json:"source,omitempty"`
	LatencyMs   int64             `json:"latency_ms"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Recognized reports whether a student was accepted.
func (o *RecognitionOutcome) Recognized() bool {
	return o.Status == RecognitionRecognized
}

// RoomStatus is the tag of a RoomRecognitionOutcome.
type RoomStatus string

const (
	RoomStatusValid   RoomStatus = "valid"
	RoomStatusInvalid RoomStatus = "invalid"
	RoomStatusError   RoomStatus = "error"
)

// Signal is the feedback tone the exam room terminal plays.
type Signal string

const (
	SignalConfirmation Signal = "confirmation"
	SignalWarning      Signal = "warning"
	SignalError        Signal = "error"
)

// SignalFor maps a room status to its tone.
func SignalFor(status RoomStatus) Signal {
	switch status {
	case RoomStatusValid:
		return SignalConfirmation
	case RoomStatusInvalid:
		return SignalWarning
	default:
		return SignalError
	}
}

// RoomRecognitionOutcome composes a recognition with the room range check.
type RoomRecognitionOutcome struct {
	Status           RoomStatus         `json:"status"`
	Signal           Signal             `json:"signal"`
	Recognition      RecognitionOutcome `json:"recognition"`
	RoomCode         string             `json:"room_code"`
	RoomName         string             `json:"room_name,omitempty"`
	AssignedRoomCode *string            `json:"assigned_room_code,omitempty"`
	Message          string             `json:"message"`
	Timestamp        time.Time          `json:"timestamp"`
}
