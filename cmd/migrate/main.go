package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/saturnino-fabrica-de-software/examgate/internal/config"
	"github.com/saturnino-fabrica-de-software/examgate/internal/database"
)

// migrateConfig is the subset of the API configuration this tool needs.
type migrateConfig struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	action := flag.String("action", "up", "Migration action: up, down, version, force")
	steps := flag.Int("steps", 1, "Number of migrations to roll back (down)")
	version := flag.Int("version", -1, "Version to record as applied (force)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	var cfg migrateConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)

	pool, err := database.NewPool(context.Background(), database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// golang-migrate works on database/sql
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	dbName := pool.Config().ConnConfig.Database
	logger.Info("connected to database", slog.String("database", dbName))

	migrator, err := database.NewMigrator(db, dbName, database.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	switch *action {
	case "up":
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}

	case "down":
		if *steps < 1 {
			return fmt.Errorf("steps must be at least 1, got %d", *steps)
		}
		if err := migrator.Steps(-*steps); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}

	case "version":

	case "force":
		if *version < 0 {
			return errors.New("version flag is required for force action")
		}
		if err := migrator.Force(*version); err != nil {
			return fmt.Errorf("force migration failed: %w", err)
		}

	default:
		return fmt.Errorf("invalid action: %s (use: up, down, version, force)", *action)
	}

	current, dirty, err := migrator.Version()
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}
	logger.Info("schema version",
		slog.String("action", *action),
		slog.Uint64("version", uint64(current)),
		slog.Bool("dirty", dirty),
	)

	return nil
}
