package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/saturnino-fabrica-de-software/examgate/internal/audit"
	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
	"github.com/saturnino-fabrica-de-software/examgate/internal/extractor"
	"github.com/saturnino-fabrica-de-software/examgate/internal/matcher"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockStudentStore struct {
	mock.Mock
}

func (m *MockStudentStore) Create(ctx context.Context, s *domain.Student) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStudentStore) UpdateEmbedding(ctx context.Context, studentID string, e domain.Embedding) error {
	args := m.Called(ctx, studentID, e)
	return args.Error(0)
}

func (m *MockStudentStore) GetByStudentID(ctx context.Context, studentID string) (*domain.Student, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Student), args.Error(1)
}

func (m *MockStudentStore) GetByIndexNumber(ctx context.Context, indexNumber string) (*domain.Student, error) {
	args := m.Called(ctx, indexNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Student), args.Error(1)
}

func (m *MockStudentStore) Delete(ctx context.Context, studentID string) error {
	args := m.Called(ctx, studentID)
	return args.Error(0)
}

func (m *MockStudentStore) ListCandidates(ctx context.Context) ([]domain.EnrollmentCandidate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EnrollmentCandidate), args.Error(1)
}

func (m *MockStudentStore) ListByIndexRange(ctx context.Context, start, end string, limit int) ([]domain.Student, error) {
	args := m.Called(ctx, start, end, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Student), args.Error(1)
}

func (m *MockStudentStore) CountByIndexRange(ctx context.Context, start, end string) (int, error) {
	args := m.Called(ctx, start, end)
	return args.Int(0), args.Error(1)
}

func (m *MockStudentStore) List(ctx context.Context, offset, limit int) ([]domain.Student, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Student), args.Error(1)
}

func (m *MockStudentStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockRoomStore struct {
	mock.Mock
}

func (m *MockRoomStore) Create(ctx context.Context, room *domain.ExamRoom) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomStore) Update(ctx context.Context, room *domain.ExamRoom) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRoomStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExamRoom, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExamRoom), args.Error(1)
}

func (m *MockRoomStore) GetByCode(ctx context.Context, code string) (*domain.ExamRoom, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExamRoom), args.Error(1)
}

func (m *MockRoomStore) List(ctx context.Context) ([]domain.ExamRoom, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExamRoom), args.Error(1)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, img []byte, policy extractor.MultiFacePolicy) (extractor.Extraction, error) {
	args := m.Called(ctx, img, policy)
	return args.Get(0).(extractor.Extraction), args.Error(1)
}

type MockMatcher struct {
	mock.Mock
}

func (m *MockMatcher) Match(query []float64, candidates []matcher.Candidate, threshold float64) (matcher.Result, error) {
	args := m.Called(query, candidates, threshold)
	return args.Get(0).(matcher.Result), args.Error(1)
}

func (m *MockMatcher) Indexed(n int) bool {
	args := m.Called(n)
	return args.Bool(0)
}

func (m *MockMatcher) Invalidate() {
	m.Called()
}

type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) Log(ctx context.Context, event audit.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// recordingAudit keeps every event in memory.
type recordingAudit struct {
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, event audit.Event) error {
	r.events = append(r.events, event)
	return nil
}

func found(e domain.Embedding) extractor.Extraction {
	return extractor.Extraction{Status: extractor.StatusFound, Embedding: e, FaceCount: 1}
}

func unitEmbedding(dim int) domain.Embedding {
	e := make(domain.Embedding, domain.EmbeddingDimension)
	e[dim] = 1
	return e
}
