package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSlogLogger_Log(t *testing.T) {
	tests := []struct {
		name        string
		event       Event
		wantKind    string
		wantOutcome string
		wantFields  []string
	}{
		{
			name: "recognized student",
			event: Event{
				Kind:        KindRecognition,
				Outcome:     "recognized",
				StudentID:   strPtr("20210001"),
				IndexNumber: strPtr("0100001"),
				Source:      "gate-1",
			},
			wantKind:    "recognition",
			wantOutcome: "recognized",
			wantFields:  []string{"student_id", "index_number"},
		},
		{
			name: "room rejection with signal",
			event: Event{
				Kind:       KindRoomRecognition,
				Outcome:    "recognized",
				RoomCode:   strPtr("HALL-A"),
				RoomStatus: strPtr("invalid"),
				Signal:     strPtr("warning"),
				Message:    "student belongs to HALL-B",
			},
			wantKind:    "room_recognition",
			wantOutcome: "recognized",
			wantFields:  []string{"room_code", "room_status", "signal", "message"},
		},
		{
			name: "no face",
			event: Event{
				Kind:    KindRecognition,
				Outcome: "no_face",
				Reason:  "could not find a face in the photo",
			},
			wantKind:    "recognition",
			wantOutcome: "no_face",
			wantFields:  []string{"reason"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

			require.NoError(t, logger.Log(context.Background(), tt.event))

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, "audit_event", entry["msg"])
			assert.Equal(t, "audit", entry["component"])
			assert.Equal(t, tt.wantKind, entry["kind"])
			assert.Equal(t, tt.wantOutcome, entry["outcome"])

			var data map[string]any
			require.NoError(t, json.Unmarshal([]byte(entry["event_data"].(string)), &data))
			assert.NotEmpty(t, data["id"])
			assert.NotEmpty(t, data["timestamp"])
			for _, f := range tt.wantFields {
				assert.Contains(t, data, f)
			}
			if tt.event.StudentID == nil {
				assert.NotContains(t, data, "student_id")
			}
		})
	}
}

func TestSlogLogger_KeepsGivenIDAndTimestamp(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	id := uuid.New()
	ts := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, logger.Log(context.Background(), Event{ID: id, Timestamp: ts, Kind: KindRecognition}))

	assert.True(t, strings.Contains(buf.String(), id.String()))
	assert.True(t, strings.Contains(buf.String(), "2024-05-01T08:30:00Z"))
}

type recordingStore struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingStore) CreateRecognitionLog(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, *e)
	return nil
}

func (s *recordingStore) Log(ctx context.Context, e Event) error {
	return s.CreateRecognitionLog(ctx, &e)
}

func TestStoreLogger_FillsAndPersists(t *testing.T) {
	store := &recordingStore{}
	logger := NewStoreLogger(store)

	require.NoError(t, logger.Log(context.Background(), Event{Kind: KindRecognition, Outcome: "no_match"}))

	require.Len(t, store.events, 1)
	assert.NotEqual(t, uuid.Nil, store.events[0].ID)
	assert.False(t, store.events[0].Timestamp.IsZero())
	assert.Equal(t, "no_match", store.events[0].Outcome)
}

func TestMultiLogger_DeliversSameEventToEverySink(t *testing.T) {
	first := &recordingStore{err: errors.New("disk full")}
	second := &recordingStore{}
	third := &recordingStore{}

	err := NewMultiLogger(first, second, third).Log(context.Background(), Event{Kind: KindRecognition})
	assert.ErrorContains(t, err, "disk full")

	require.Len(t, second.events, 1)
	require.Len(t, third.events, 1)
	assert.Equal(t, second.events[0].ID, third.events[0].ID)
	assert.Equal(t, second.events[0].Timestamp, third.events[0].Timestamp)
}

func TestNoOpLogger(t *testing.T) {
	logger := &NoOpLogger{}
	assert.NoError(t, logger.Log(context.Background(), Event{}))
}
