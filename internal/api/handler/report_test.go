package handler

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/examgate/internal/audit"
	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
	"github.com/saturnino-fabrica-de-software/examgate/internal/metrics"
	"github.com/saturnino-fabrica-de-software/examgate/internal/service"
)

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Stats(ctx context.Context, window time.Duration) (*metrics.Stats, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*metrics.Stats), args.Error(1)
}

func (m *MockReportService) Logs(ctx context.Context, q service.LogQuery) ([]audit.Event, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.Event), args.Error(1)
}

func newReportApp(svc ReportService) *fiber.App {
	h := NewReportHandler(svc, testLogger())
	app := newTestApp()
	app.Get("/v1/admin/stats", h.Stats)
	app.Get("/v1/admin/recognition-logs", h.Logs)
	return app
}

func TestReportHandler_Stats(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		mockSetup  func(m *MockReportService)
		wantStatus int
	}{
		{
			name: "default window",
			url:  "/v1/admin/stats",
			mockSetup: func(m *MockReportService) {
				m.On("Stats", mock.Anything, time.Duration(0)).
					Return(&metrics.Stats{TotalStudents: 12, ByOutcome: map[string]int64{}}, nil)
			},
			wantStatus: fiber.StatusOK,
		},
		{
			name: "explicit days",
			url:  "/v1/admin/stats?days=30",
			mockSetup: func(m *MockReportService) {
				m.On("Stats", mock.Anything, 30*24*time.Hour).
					Return(&metrics.Stats{TotalStudents: 12, ByOutcome: map[string]int64{}}, nil)
			},
			wantStatus: fiber.StatusOK,
		},
		{
			name:       "days not a number",
			url:        "/v1/admin/stats?days=week",
			mockSetup:  func(m *MockReportService) {},
			wantStatus: fiber.StatusUnprocessableEntity,
		},
		{
			name:       "days out of range",
			url:        "/v1/admin/stats?days=400",
			mockSetup:  func(m *MockReportService) {},
			wantStatus: fiber.StatusUnprocessableEntity,
		},
		{
			name: "store unavailable",
			url:  "/v1/admin/stats",
			mockSetup: func(m *MockReportService) {
				m.On("Stats", mock.Anything, time.Duration(0)).Return(nil, domain.ErrRecognitionUnavailable)
			},
			wantStatus: fiber.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockReportService)
			tt.mockSetup(svc)

			resp, err := newReportApp(svc).Test(httptest.NewRequest("GET", tt.url, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == fiber.StatusOK {
				var stats metrics.Stats
				decode(t, resp.Body, &stats)
				assert.Equal(t, int64(12), stats.TotalStudents)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestReportHandler_Logs(t *testing.T) {
	svc := new(MockReportService)
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC).Add(24*time.Hour - time.Nanosecond)

	svc.On("Logs", mock.Anything, service.LogQuery{
		StudentID: "20210001",
		RoomCode:  "HALL-A",
		From:      start,
		To:        end,
		Limit:     25,
	}).Return([]audit.Event{{Kind: audit.KindRoomRecognition, Outcome: "recognized"}}, nil)

	url := "/v1/admin/recognition-logs?student_id=20210001&room_code=HALL-A&start_date=2026-06-01&end_date=2026-06-02&limit=25"
	resp, err := newReportApp(svc).Test(httptest.NewRequest("GET", url, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body LogListResponse
	decode(t, resp.Body, &body)
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Logs, 1)
	assert.Equal(t, audit.KindRoomRecognition, body.Logs[0].Kind)
	svc.AssertExpectations(t)
}

func TestReportHandler_LogsRFC3339(t *testing.T) {
	svc := new(MockReportService)
	from := time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)

	svc.On("Logs", mock.Anything, mock.MatchedBy(func(q service.LogQuery) bool {
		return q.From.Equal(from) && q.To.IsZero()
	})).Return([]audit.Event{}, nil)

	resp, err := newReportApp(svc).Test(httptest.NewRequest("GET", "/v1/admin/recognition-logs?start_date=2026-06-01T08:30:00Z", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	svc.AssertExpectations(t)
}

func TestReportHandler_LogsBadDate(t *testing.T) {
	svc := new(MockReportService)

	resp, err := newReportApp(svc).Test(httptest.NewRequest("GET", "/v1/admin/recognition-logs?end_date=yesterday", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var env errorEnvelope
	decode(t, resp.Body, &env)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	svc.AssertNotCalled(t, "Logs", mock.Anything, mock.Anything)
}
