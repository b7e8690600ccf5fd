package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/examgate/internal/audit"
)

var logColumnNames = []string{
	"id", "kind", "outcome", "reason", "student_id", "index_number", "confidence", "distance",
	"room_code", "room_status", "signal", "source", "message", "latency_ms", "created_at",
}

func TestRepository_Stats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	since := time.Now().Add(-7 * 24 * time.Hour)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students`).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"students", "with_face", "total", "recent"}).
			AddRow(int64(40), int64(35), int64(120), int64(18)))
	mock.ExpectQuery(`GROUP BY outcome`).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"outcome", "count"}).
			AddRow("recognized", int64(15)).
			AddRow("no_match", int64(3)))

	stats, err := NewRepository(mock).Stats(context.Background(), since)
	require.NoError(t, err)

	assert.Equal(t, int64(40), stats.TotalStudents)
	assert.Equal(t, int64(35), stats.StudentsWithFace)
	assert.Equal(t, int64(120), stats.TotalRecognitions)
	assert.Equal(t, int64(18), stats.RecentRecognitions)
	assert.Equal(t, map[string]int64{"recognized": 15, "no_match": 3}, stats.ByOutcome)
	assert.Equal(t, since, stats.Since)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Stats_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	_, err = NewRepository(mock).Stats(context.Background(), time.Now())
	assert.ErrorContains(t, err, "count totals")
}

func TestRepository_ListLogs(t *testing.T) {
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	tests := []struct {
		name      string
		filter    LogFilter
		mockSetup func(mock pgxmock.PgxPoolIface, rows *pgxmock.Rows)
	}{
		{
			name: "no filter",
			mockSetup: func(mock pgxmock.PgxPoolIface, rows *pgxmock.Rows) {
				mock.ExpectQuery(`FROM recognition_logs\s+ORDER BY created_at DESC$`).
					WillReturnRows(rows)
			},
		},
		{
			name:   "student and dates with limit",
			filter: LogFilter{StudentID: "20210001", From: from, To: to, Limit: 50},
			mockSetup: func(mock pgxmock.PgxPoolIface, rows *pgxmock.Rows) {
				mock.ExpectQuery(`WHERE student_id = \$1 AND created_at >= \$2 AND created_at <= \$3\s+ORDER BY created_at DESC\s+LIMIT \$4`).
					WithArgs("20210001", from, to, 50).
					WillReturnRows(rows)
			},
		},
		{
			name:   "room and outcome",
			filter: LogFilter{RoomCode: "HALL-A", Outcome: "recognized"},
			mockSetup: func(mock pgxmock.PgxPoolIface, rows *pgxmock.Rows) {
				mock.ExpectQuery(`WHERE room_code = \$1 AND outcome = \$2`).
					WithArgs("HALL-A", "recognized").
					WillReturnRows(rows)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			id := uuid.New()
			studentID := "20210001"
			room := "HALL-A"
			confidence := 0.71
			rows := pgxmock.NewRows(logColumnNames).AddRow(
				id, "room_recognition", "recognized", "", &studentID, (*string)(nil), &confidence, (*float64)(nil),
				&room, (*string)(nil), (*string)(nil), "gate-2", "", int64(37), from,
			)
			tt.mockSetup(mock, rows)

			events, err := NewRepository(mock).ListLogs(context.Background(), tt.filter)
			require.NoError(t, err)
			require.Len(t, events, 1)

			e := events[0]
			assert.Equal(t, id, e.ID)
			assert.Equal(t, audit.KindRoomRecognition, e.Kind)
			require.NotNil(t, e.StudentID)
			assert.Equal(t, "20210001", *e.StudentID)
			assert.Nil(t, e.IndexNumber)
			assert.Equal(t, "gate-2", e.Source)
			assert.Equal(t, int64(37), e.LatencyMs)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_DeleteLogsBefore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cutoff := time.Now().Add(-90 * 24 * time.Hour)
	mock.ExpectExec(`DELETE FROM recognition_logs WHERE created_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 12))

	deleted, err := NewRepository(mock).DeleteLogsBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
