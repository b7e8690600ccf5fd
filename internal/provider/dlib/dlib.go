//go:build dlib

// Package dlib wraps the dlib ResNet face recognizer through go-face. It
// needs cgo, dlib and the model files, so it is only built with -tags dlib.
package dlib

import (
	"context"
	"fmt"
	"sync"

	face "github.com/Kagami/go-face"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
	"github.com/saturnino-fabrica-de-software/examgate/internal/provider"
)

// Available reports whether the binary was built with dlib support.
const Available = true

// Provider implements provider.FaceProvider with dlib descriptors.
type Provider struct {
	mu  sync.Mutex
	rec *face.Recognizer
}

// New loads shape_predictor_5_face_landmarks.dat,
// dlib_face_recognition_resnet_model_v1.dat and mmod_human_face_detector.dat
// from modelsDir.
func New(modelsDir string) (*Provider, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("load dlib models: %w", err)
	}
	return &Provider{rec: rec}, nil
}

// Name implements provider.FaceProvider.
func (p *Provider) Name() string { return "dlib" }

// Represent implements provider.FaceProvider. go-face only decodes JPEG.
func (p *Provider) Represent(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The recognizer is not safe for concurrent use.
	p.mu.Lock()
	faces, err := p.rec.Recognize(image)
	p.mu.Unlock()
	if err != nil {
		if _, ok := err.(face.ImageLoadError); ok {
			return nil, domain.ErrInvalidImage.WithError(err)
		}
		return nil, fmt.Errorf("dlib recognize: %w", err)
	}

	out := make([]provider.DetectedFace, len(faces))
	for i, f := range faces {
		out[i] = provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      float64(f.Rectangle.Min.X),
				Y:      float64(f.Rectangle.Min.Y),
				Width:  float64(f.Rectangle.Dx()),
				Height: float64(f.Rectangle.Dy()),
			},
			Confidence: 1.0, // go-face reports no detection score
			Embedding:  domain.EmbeddingFromFloat32(f.Descriptor[:]),
		}
	}
	return out, nil
}

// Close releases the native recognizer.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rec != nil {
		p.rec.Close()
		p.rec = nil
	}
	return nil
}

var _ provider.FaceProvider = (*Provider)(nil)
