package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Enrollment multi-face policies.
const (
	MultiFaceFirst  = "first"
	MultiFaceReject = "reject"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`
	// LogLevel overrides the environment's default level.
	LogLevel string `envconfig:"LOG_LEVEL"`

	// Storage
	Storage     string `envconfig:"STORAGE" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Provider
	ProviderType     string `envconfig:"PROVIDER_TYPE" default:"deepface"`
	DeepFaceURL      string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel    string `envconfig:"DEEPFACE_MODEL" default:"Facenet"`
	DeepFaceDetector string `envconfig:"DEEPFACE_DETECTOR" default:"retinaface"`
	PigoCascadePath  string `envconfig:"PIGO_CASCADE_PATH" default:"models/facefinder"`
	DlibModelsDir    string `envconfig:"DLIB_MODELS_DIR" default:"models"`

	// Recognition
	MatchThreshold        float64       `envconfig:"MATCH_THRESHOLD" default:"0.6"`
	MaxImageBytes         int           `envconfig:"MAX_IMAGE_BYTES" default:"10485760"`
	MinImageDimension     int           `envconfig:"MIN_IMAGE_DIMENSION" default:"50"`
	ExtractionTimeout     time.Duration `envconfig:"EXTRACTION_TIMEOUT" default:"10s"`
	ExtractionWorkers     int           `envconfig:"EXTRACTION_WORKERS" default:"0"`
	IndexMinCandidates    int           `envconfig:"INDEX_MIN_CANDIDATES" default:"256"`
	EnrollMultiFacePolicy string        `envconfig:"ENROLL_MULTI_FACE_POLICY" default:"first"`
	RecognizeRateLimit    int           `envconfig:"RECOGNIZE_RATE_LIMIT" default:"120"`

	// Audit. LOG_RETENTION=0 keeps recognition logs forever.
	LogRetention       time.Duration `envconfig:"LOG_RETENTION" default:"2160h"`
	LogPruneInterval   time.Duration `envconfig:"LOG_PRUNE_INTERVAL" default:"1h"`
	WebhookURL         string        `envconfig:"WEBHOOK_URL"`
	WebhookSecret      string        `envconfig:"WEBHOOK_SECRET"`
	WebhookMaxAttempts int           `envconfig:"WEBHOOK_MAX_ATTEMPTS" default:"5"`

	// Security
	APIKey string `envconfig:"API_KEY" required:"true"`
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks rules that span several fields.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORAGE=postgres"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE must be %s or %s, got %q", StoragePostgres, StorageMemory, c.Storage))
	}

	if c.MatchThreshold <= 0 {
		errs = append(errs, fmt.Errorf("MATCH_THRESHOLD must be positive, got %v", c.MatchThreshold))
	}
	if c.MaxImageBytes <= 0 {
		errs = append(errs, errors.New("MAX_IMAGE_BYTES must be positive"))
	}
	if c.MinImageDimension < 1 {
		errs = append(errs, errors.New("MIN_IMAGE_DIMENSION must be at least 1"))
	}
	if c.ExtractionTimeout <= 0 {
		errs = append(errs, errors.New("EXTRACTION_TIMEOUT must be positive"))
	}
	if c.ExtractionWorkers < 0 {
		errs = append(errs, errors.New("EXTRACTION_WORKERS must not be negative"))
	}

	if c.LogLevel != "" {
		if _, err := ParseLevel(c.LogLevel); err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}
	if c.LogRetention < 0 {
		errs = append(errs, errors.New("LOG_RETENTION must not be negative"))
	}
	if c.LogRetention > 0 && c.LogPruneInterval <= 0 {
		errs = append(errs, errors.New("LOG_PRUNE_INTERVAL must be positive"))
	}
	if c.WebhookURL != "" {
		if c.WebhookSecret == "" {
			errs = append(errs, errors.New("WEBHOOK_SECRET is required when WEBHOOK_URL is set"))
		}
		if c.WebhookMaxAttempts < 1 {
			errs = append(errs, errors.New("WEBHOOK_MAX_ATTEMPTS must be at least 1"))
		}
	}

	switch strings.ToLower(c.EnrollMultiFacePolicy) {
	case MultiFaceFirst, MultiFaceReject:
	default:
		errs = append(errs, fmt.Errorf("ENROLL_MULTI_FACE_POLICY must be %s or %s", MultiFaceFirst, MultiFaceReject))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
