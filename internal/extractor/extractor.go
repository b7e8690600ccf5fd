// Package extractor turns raw image bytes into at most one face embedding.
//
// Input that is not a usable image is an error. An image that decodes but
// has no face, more than one face under the Reject policy, or whose
// processing times out is a normal Extraction with the matching Status.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"log/slog"
	"time"

	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/webp" // register decoder

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
	"github.com/saturnino-fabrica-de-software/examgate/internal/provider"
	"github.com/saturnino-fabrica-de-software/examgate/internal/workerpool"
)

// Defaults for Config.
const (
	DefaultMaxImageBytes = 10 << 20
	DefaultMinDimension  = 50
	DefaultTimeout       = 10 * time.Second
)

// Status is the outcome of an extraction.
type Status string

const (
	StatusFound         Status = "found"
	StatusNoFace        Status = "no_face"
	StatusMultipleFaces Status = "multiple_faces"
	StatusTimeout       Status = "timeout"
)

// MultiFacePolicy decides what happens when an image contains several faces.
type MultiFacePolicy int

const (
	// Reject reports StatusMultipleFaces.
	Reject MultiFacePolicy = iota
	// PickFirst uses the first face in detector order.
	PickFirst
)

func (p MultiFacePolicy) String() string {
	if p == PickFirst {
		return "first"
	}
	return "reject"
}

// ParsePolicy maps "first" and "reject" to a policy.
func ParsePolicy(s string) (MultiFacePolicy, error) {
	switch s {
	case "first":
		return PickFirst, nil
	case "reject", "":
		return Reject, nil
	}
	return Reject, fmt.Errorf("unknown multi-face policy %q", s)
}

// Extraction is the result of a successful call.
type Extraction struct {
	Status      Status
	Embedding   domain.Embedding
	FaceCount   int
	BoundingBox *provider.BoundingBox
}

// Found reports whether an embedding was produced.
func (e Extraction) Found() bool { return e.Status == StatusFound }

// Config bounds the input and the work per image.
type Config struct {
	MaxImageBytes int
	MinDimension  int
	Timeout       time.Duration
}

// Extractor validates images and runs the face provider on a worker pool.
type Extractor struct {
	provider provider.FaceProvider
	pool     *workerpool.Pool
	config   Config
	logger   *slog.Logger
}

// New creates an Extractor. Zero Config fields take the package defaults.
func New(p provider.FaceProvider, pool *workerpool.Pool, config Config, logger *slog.Logger) *Extractor {
	if config.MaxImageBytes <= 0 {
		config.MaxImageBytes = DefaultMaxImageBytes
	}
	if config.MinDimension <= 0 {
		config.MinDimension = DefaultMinDimension
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Extractor{
		provider: p,
		pool:     pool,
		config:   config,
		logger:   logger.With(slog.String("component", "extractor"), slog.String("provider", p.Name())),
	}
}

// Validate checks size, format and dimensions without running detection.
func (e *Extractor) Validate(img []byte) error {
	if len(img) == 0 {
		return domain.ErrInvalidImage.WithError(errors.New("empty image"))
	}
	if len(img) > e.config.MaxImageBytes {
		return domain.ErrImageTooLarge.WithError(
			fmt.Errorf("%d bytes exceeds limit of %d", len(img), e.config.MaxImageBytes))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return domain.ErrInvalidImage.WithError(err)
	}
	if cfg.Width < e.config.MinDimension || cfg.Height < e.config.MinDimension {
		return domain.ErrImageTooSmall.WithError(
			fmt.Errorf("%s image is %dx%d, minimum is %dx%d",
				format, cfg.Width, cfg.Height, e.config.MinDimension, e.config.MinDimension))
	}
	return nil
}

// Extract validates img and returns the embedding of its face.
func (e *Extractor) Extract(ctx context.Context, img []byte, policy MultiFacePolicy) (Extraction, error) {
	if err := e.Validate(img); err != nil {
		return Extraction{}, err
	}

	tctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	start := time.Now()
	faces, err := workerpool.Do(tctx, e.pool, func(ctx context.Context) ([]provider.DetectedFace, error) {
		return e.provider.Represent(ctx, img)
	})
	if err != nil {
		// Only our own deadline is a timeout outcome; caller cancellation
		// is returned as is.
		if ctx.Err() == nil && tctx.Err() != nil {
			e.logger.Warn("face extraction timed out",
				slog.Duration("timeout", e.config.Timeout),
				slog.Int("image_bytes", len(img)),
			)
			return Extraction{Status: StatusTimeout}, nil
		}
		if ctx.Err() != nil {
			return Extraction{}, ctx.Err()
		}
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			return Extraction{}, err
		}
		return Extraction{}, fmt.Errorf("represent faces: %w", err)
	}

	e.logger.Debug("faces detected",
		slog.Int("faces", len(faces)),
		slog.Duration("elapsed", time.Since(start)),
	)

	switch {
	case len(faces) == 0:
		return Extraction{Status: StatusNoFace}, nil
	case len(faces) > 1 && policy == Reject:
		return Extraction{Status: StatusMultipleFaces, FaceCount: len(faces)}, nil
	}

	face := faces[0]
	embedding := domain.Embedding(face.Embedding).Clone()
	if err := embedding.Validate(); err != nil {
		return Extraction{}, fmt.Errorf("provider %s returned %d components: %w",
			e.provider.Name(), len(face.Embedding), err)
	}

	box := face.BoundingBox
	return Extraction{
		Status:      StatusFound,
		Embedding:   embedding,
		FaceCount:   len(faces),
		BoundingBox: &box,
	}, nil
}
