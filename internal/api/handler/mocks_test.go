package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/examgate/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
	"github.com/saturnino-fabrica-de-software/examgate/internal/service"
)

type MockStudentService struct {
	mock.Mock
}

func (m *MockStudentService) Enroll(ctx context.Context, in service.EnrollStudentInput) (*service.EnrollmentResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EnrollmentResult), args.Error(1)
}

func (m *MockStudentService) Get(ctx context.Context, studentID string) (*domain.Student, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Student), args.Error(1)
}

func (m *MockStudentService) List(ctx context.Context, offset, limit int) (*service.StudentPage, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StudentPage), args.Error(1)
}

func (m *MockStudentService) UpdateFace(ctx context.Context, studentID string, img []byte) (*domain.Student, error) {
	args := m.Called(ctx, studentID, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Student), args.Error(1)
}

func (m *MockStudentService) ClearFace(ctx context.Context, studentID string) error {
	return m.Called(ctx, studentID).Error(0)
}

func (m *MockStudentService) Delete(ctx context.Context, studentID string) error {
	return m.Called(ctx, studentID).Error(0)
}

type MockRecognitionService struct {
	mock.Mock
}

func (m *MockRecognitionService) Recognize(ctx context.Context, img []byte, source string) (*domain.RecognitionOutcome, error) {
	args := m.Called(ctx, img, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecognitionOutcome), args.Error(1)
}

func (m *MockRecognitionService) RecognizeInRoom(ctx context.Context, img []byte, roomCode, source string) (*domain.RoomRecognitionOutcome, error) {
	args := m.Called(ctx, img, roomCode, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RoomRecognitionOutcome), args.Error(1)
}

type MockRoomService struct {
	mock.Mock
}

func (m *MockRoomService) Create(ctx context.Context, in service.CreateRoomInput) (*domain.ExamRoom, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExamRoom), args.Error(1)
}

func (m *MockRoomService) Update(ctx context.Context, id uuid.UUID, in service.UpdateRoomInput) (*domain.ExamRoom, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExamRoom), args.Error(1)
}

func (m *MockRoomService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRoomService) Get(ctx context.Context, id uuid.UUID) (*service.RoomSummary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RoomSummary), args.Error(1)
}

func (m *MockRoomService) List(ctx context.Context) ([]service.RoomSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.RoomSummary), args.Error(1)
}

func (m *MockRoomService) Roster(ctx context.Context, id uuid.UUID) (*service.RoomRoster, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RoomRoster), args.Error(1)
}

func (m *MockRoomService) PreviewRange(ctx context.Context, start, end string) (*service.RangePreview, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RangePreview), args.Error(1)
}

func (m *MockRoomService) ValidateAssignment(ctx context.Context, roomCode, indexNumber string) (bool, string, error) {
	args := m.Called(ctx, roomCode, indexNumber)
	return args.Bool(0), args.String(1), args.Error(2)
}

// testLogger returns a logger that discards all output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestApp uses the production error handler so envelopes match.
func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(testLogger())})
}

// multipartBody builds a form with the given fields and an optional image.
func multipartBody(t *testing.T, fields map[string]string, image []byte, contentType string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}

	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="photo.jpg"`)
		h.Set("Content-Type", contentType)

		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, r io.Reader, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(r).Decode(v))
}
