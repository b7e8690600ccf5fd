package deepface

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/saturnino-fabrica-de-software/examgate/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// Provider implements provider.FaceProvider using DeepFace API
type Provider struct {
	client *Client
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

// Name implements provider.FaceProvider.
func (p *Provider) Name() string {
	return "deepface/" + p.client.config.Model
}

// Represent detects every face and returns its embedding.
func (p *Provider) Represent(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(image)

	resp, err := p.client.Represent(ctx, imageBase64)
	if err != nil {
		// enforce_detection makes DeepFace answer 400 when it finds no face.
		if isNoFaceError(err) {
			return []provider.DetectedFace{}, nil
		}
		return nil, fmt.Errorf("represent: %w", err)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		faceArea := float64(result.FacialArea.W * result.FacialArea.H)
		confidence := result.FaceConfidence
		if confidence <= 0 {
			confidence = calculateConfidence(faceArea)
		}

		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      float64(result.FacialArea.X),
				Y:      float64(result.FacialArea.Y),
				Width:  float64(result.FacialArea.W),
				Height: float64(result.FacialArea.H),
			},
			Confidence: confidence,
			Embedding:  result.Embedding,
		})
	}

	return faces, nil
}

func isNoFaceError(err error) bool {
	var se *statusError
	if !errors.As(err, &se) || se.status != 400 {
		return false
	}
	return strings.Contains(strings.ToLower(se.body), "face could not be detected")
}

// calculateConfidence estimates confidence based on face area, for DeepFace
// versions that do not report face_confidence.
func calculateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5
	}
	// Scale from 0.7 to 0.99 based on face area
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}

// Ensure Provider implements provider.FaceProvider
var _ provider.FaceProvider = (*Provider)(nil)
