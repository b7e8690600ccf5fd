//go:build integration

package database_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/examgate/internal/database"
)

func startPostgres(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "pgvector/pgvector:pg16",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "examgate_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test:test@%s:%s/examgate_test?sslmode=disable", host, port.Port())
}

func TestMigratorIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dsn := startPostgres(t)
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	migrator, err := database.NewMigrator(db, "examgate_test", database.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	defer func() { _ = migrator.Close() }()

	t.Run("Up creates every table", func(t *testing.T) {
		require.NoError(t, migrator.Up())
		require.NoError(t, migrator.Up(), "second run is a no-op")

		for _, table := range []string{"students", "exam_rooms", "recognition_logs"} {
			assertTableExists(t, db, table)
		}
	})

	t.Run("Version reports latest migration", func(t *testing.T) {
		version, dirty, err := migrator.Version()
		require.NoError(t, err)
		assert.False(t, dirty)
		assert.Equal(t, uint(3), version)
	})

	t.Run("students reject malformed identifiers", func(t *testing.T) {
		_, err := db.Exec(`
			INSERT INTO students (id, student_id, index_number, first_name, last_name)
			VALUES (gen_random_uuid(), '123', '1234567', 'Ama', 'Mensah')
		`)
		assert.Error(t, err)
	})

	t.Run("exam rooms reject reversed ranges", func(t *testing.T) {
		_, err := db.Exec(`
			INSERT INTO exam_rooms (id, room_code, room_name, index_start, index_end)
			VALUES (gen_random_uuid(), 'HALL-A', 'Hall A', '9000000', '1000000')
		`)
		assert.Error(t, err)
	})

	t.Run("version table is namespaced", func(t *testing.T) {
		assertTableExists(t, db, database.MigrationsTable)
	})

	t.Run("Down rolls back one step", func(t *testing.T) {
		require.NoError(t, migrator.Down())

		version, _, err := migrator.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(2), version)
	})

	t.Run("Steps moves in both directions", func(t *testing.T) {
		require.NoError(t, migrator.Steps(-2))
		version, _, err := migrator.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(0), version)

		require.NoError(t, migrator.Steps(3))
		version, _, err = migrator.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(3), version)
	})
}

func TestNewPoolIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(startPostgres(t)))
	require.NoError(t, err)
	defer pool.Close()

	assert.NoError(t, database.HealthCheck(ctx, pool))
}

func assertTableExists(t *testing.T, db *sql.DB, tableName string) {
	t.Helper()

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)

	require.NoError(t, err)
	assert.True(t, exists, "table %s should exist", tableName)
}
