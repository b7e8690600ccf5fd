package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/saturnino-fabrica-de-software/examgate/internal/api"
	"github.com/saturnino-fabrica-de-software/examgate/internal/audit"
	"github.com/saturnino-fabrica-de-software/examgate/internal/config"
	"github.com/saturnino-fabrica-de-software/examgate/internal/database"
	"github.com/saturnino-fabrica-de-software/examgate/internal/extractor"
	"github.com/saturnino-fabrica-de-software/examgate/internal/matcher"
	"github.com/saturnino-fabrica-de-software/examgate/internal/metrics"
	"github.com/saturnino-fabrica-de-software/examgate/internal/provider/factory"
	"github.com/saturnino-fabrica-de-software/examgate/internal/repository"
	"github.com/saturnino-fabrica-de-software/examgate/internal/repository/memory"
	"github.com/saturnino-fabrica-de-software/examgate/internal/service"
	"github.com/saturnino-fabrica-de-software/examgate/internal/webhook"
	"github.com/saturnino-fabrica-de-software/examgate/internal/workerpool"
	"github.com/saturnino-fabrica-de-software/examgate/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// stores are the persistence backends selected by STORAGE.
type stores struct {
	students service.StudentStore
	rooms    service.RoomStore
	logs     audit.Store
	reports  reportStore
	ping     database.Pinger
	close    func()
}

type reportStore interface {
	service.ReportStore
	metrics.LogPruner
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting examgate API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("storage", cfg.Storage),
		slog.String("provider", cfg.ProviderType),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	// Face pipeline
	faceProvider, err := factory.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create face provider: %w", err)
	}
	if c, ok := faceProvider.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	pool := workerpool.New(cfg.ExtractionWorkers)
	ext := extractor.New(faceProvider, pool, extractor.Config{
		MaxImageBytes: cfg.MaxImageBytes,
		MinDimension:  cfg.MinImageDimension,
		Timeout:       cfg.ExtractionTimeout,
	}, logger)
	m := matcher.New(cfg.IndexMinCandidates)

	policy, err := extractor.ParsePolicy(strings.ToLower(cfg.EnrollMultiFacePolicy))
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Every recognition goes to the log, the store and live room feeds.
	hub := ws.NewHub()
	sinks := []audit.Logger{
		audit.NewSlogLogger(logger),
		audit.NewStoreLogger(st.logs),
		hub,
	}
	if cfg.WebhookURL != "" {
		notifier := webhook.NewNotifier(webhook.Config{
			URL:         cfg.WebhookURL,
			Secret:      cfg.WebhookSecret,
			MaxAttempts: cfg.WebhookMaxAttempts,
		}, logger)
		go notifier.Run(ctx)
		defer notifier.Stop()
		sinks = append(sinks, notifier)
	}
	auditLog := audit.NewMultiLogger(sinks...)

	if cfg.LogRetention > 0 {
		pruner := metrics.NewPruner(st.reports, logger, cfg.LogRetention, cfg.LogPruneInterval)
		go pruner.Start(ctx)
		defer pruner.Stop()
	}

	rooms := service.NewRoomService(st.rooms, st.students, logger)
	students := service.NewStudentService(st.students, ext, m, logger).WithMultiFacePolicy(policy)
	recognition := service.NewRecognitionService(st.students, rooms, ext, m, pool, auditLog, logger).
		WithThreshold(cfg.MatchThreshold)

	logger.Info("face pipeline ready",
		slog.Int("workers", pool.Size()),
		slog.Float64("match_threshold", cfg.MatchThreshold),
		slog.String("enroll_multi_face_policy", policy.String()),
	)

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Students:           students,
		Recognition:        recognition,
		Rooms:              rooms,
		Reports:            service.NewReportService(st.reports, logger),
		Hub:                hub,
		Store:              st.ping,
		APIKey:             cfg.APIKey,
		MaxImageBytes:      int64(cfg.MaxImageBytes),
		RecognizeRateLimit: cfg.RecognizeRateLimit,
		// Multipart framing and text fields on top of the image.
		BodyLimit: cfg.MaxImageBytes + 1<<20,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	logger.Info("server stopped")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		students := memory.NewStudentStore()
		logs := memory.NewLogStore()
		return &stores{
			students: students,
			rooms:    memory.NewRoomStore(),
			logs:     logs,
			reports:  memory.NewReports(students, logs),
			ping:     students,
			close:    func() {},
		}, nil
	}

	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(pool, logger); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("database ready")

	return &stores{
		students: repository.NewStudentRepository(pool),
		rooms:    repository.NewExamRoomRepository(pool),
		logs:     repository.NewRecognitionLogRepository(pool),
		reports:  metrics.NewRepository(pool),
		ping:     pool,
		close:    pool.Close,
	}, nil
}

func migrate(pool *pgxpool.Pool, logger *slog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	migrator, err := database.NewMigrator(db, pool.Config().ConnConfig.Database, database.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	if err := migrator.Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
