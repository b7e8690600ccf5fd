// Package factory builds the configured FaceProvider.
package factory

import (
	"fmt"

	"github.com/saturnino-fabrica-de-software/examgate/internal/config"
	"github.com/saturnino-fabrica-de-software/examgate/internal/provider"
	"github.com/saturnino-fabrica-de-software/examgate/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/examgate/internal/provider/dlib"
	"github.com/saturnino-fabrica-de-software/examgate/internal/provider/local"
	"github.com/saturnino-fabrica-de-software/examgate/internal/provider/mock"
)

// ProviderType defines supported face recognition provider types
type ProviderType string

const (
	// ProviderTypeDeepFace calls a DeepFace HTTP server
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeLocal runs the pigo detector in process
	ProviderTypeLocal ProviderType = "local"
	// ProviderTypeMock derives embeddings from image hashes
	ProviderTypeMock ProviderType = "mock"
	// ProviderTypeDlib uses go-face; requires -tags dlib
	ProviderTypeDlib ProviderType = "dlib"
)

// New creates the FaceProvider selected by cfg.ProviderType. An empty type
// selects DeepFace.
func New(cfg *config.Config) (provider.FaceProvider, error) {
	switch ProviderType(cfg.ProviderType) {
	case ProviderTypeDeepFace, "":
		return createDeepFaceProvider(cfg), nil

	case ProviderTypeLocal:
		lc := local.DefaultConfig()
		if cfg.PigoCascadePath != "" {
			lc.CascadePath = cfg.PigoCascadePath
		}
		p, err := local.New(lc)
		if err != nil {
			return nil, fmt.Errorf("create local provider: %w", err)
		}
		return p, nil

	case ProviderTypeMock:
		return mock.New(), nil

	case ProviderTypeDlib:
		p, err := dlib.New(cfg.DlibModelsDir)
		if err != nil {
			return nil, fmt.Errorf("create dlib provider: %w", err)
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s, %s)",
			cfg.ProviderType, ProviderTypeDeepFace, ProviderTypeLocal, ProviderTypeMock, ProviderTypeDlib)
	}
}

func createDeepFaceProvider(cfg *config.Config) provider.FaceProvider {
	dc := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		dc.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		dc.Model = cfg.DeepFaceModel
	}
	if cfg.DeepFaceDetector != "" {
		dc.Detector = cfg.DeepFaceDetector
	}
	// The extractor bounds each call, so the HTTP timeout only needs to
	// catch a hung connection.
	if cfg.ExtractionTimeout > 0 && cfg.ExtractionTimeout < dc.Timeout {
		dc.Timeout = cfg.ExtractionTimeout
	}

	return deepface.NewProvider(dc)
}
