package ws

import "time"

// EventType names what happened at a checkpoint.
type EventType string

const (
	// EventRecognition is a recognition without a room check.
	EventRecognition EventType = "recognition.completed"
	// EventRoomRecognition carries the room verdict as well.
	EventRoomRecognition EventType = "room.recognition.completed"
)

// Event is one feed message. Signal repeats the room verdict's signal
// (confirmation, alert or error) so dashboards can colour it without
// decoding Data.
type Event struct {
	Type      EventType `json:"type"`
	RoomCode  string    `json:"room_code,omitempty"`
	Signal    string    `json:"signal,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}
