// Package local is a pure-Go FaceProvider. Faces are found with the pigo
// cascade detector and each face is described by its normalised grayscale
// thumbnail. It needs no external service, which makes it suitable for
// development and for kiosks without network access.
package local

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"sort"

	pigo "github.com/esimov/pigo/core"
	_ "golang.org/x/image/bmp"  // register decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
	"gonum.org/v1/gonum/floats"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
	"github.com/saturnino-fabrica-de-software/examgate/internal/provider"
)

// Thumbnail size; ThumbWidth*ThumbHeight equals domain.EmbeddingDimension.
const (
	ThumbWidth  = 8
	ThumbHeight = 16
)

// Config holds detector tuning.
type Config struct {
	CascadePath      string
	MinSize          int
	MaxSize          int
	ShiftFactor      float64
	ScaleFactor      float64
	IoUThreshold     float64
	QualityThreshold float32
}

// DefaultConfig returns the detector settings used by the pigo examples.
func DefaultConfig() Config {
	return Config{
		CascadePath:      "models/facefinder",
		MinSize:          40,
		MaxSize:          1000,
		ShiftFactor:      0.1,
		ScaleFactor:      1.1,
		IoUThreshold:     0.2,
		QualityThreshold: 5.0,
	}
}

// Provider implements provider.FaceProvider with pigo.
type Provider struct {
	classifier *pigo.Pigo
	config     Config
}

// New loads the cascade file and returns a ready provider.
func New(config Config) (*Provider, error) {
	cascade, err := os.ReadFile(config.CascadePath)
	if err != nil {
		return nil, fmt.Errorf("read pigo cascade: %w", err)
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpack pigo cascade: %w", err)
	}

	return &Provider{classifier: classifier, config: config}, nil
}

// Name implements provider.FaceProvider.
func (p *Provider) Name() string { return "local/pigo" }

// Represent implements provider.FaceProvider.
func (p *Provider) Represent(ctx context.Context, data []byte) ([]provider.DetectedFace, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	gray := toGray(img)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rects := p.detect(gray)
	faces := make([]provider.DetectedFace, 0, len(rects))
	for _, r := range rects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      float64(r.rect.Min.X),
				Y:      float64(r.rect.Min.Y),
				Width:  float64(r.rect.Dx()),
				Height: float64(r.rect.Dy()),
			},
			Confidence: r.confidence,
			Embedding:  Describe(gray, r.rect),
		})
	}

	return faces, nil
}

type detection struct {
	rect       image.Rectangle
	confidence float64
}

func (p *Provider) detect(gray *image.Gray) []detection {
	bounds := gray.Bounds()
	params := pigo.CascadeParams{
		MinSize:     p.config.MinSize,
		MaxSize:     p.config.MaxSize,
		ShiftFactor: p.config.ShiftFactor,
		ScaleFactor: p.config.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: gray.Pix,
			Rows:   bounds.Dy(),
			Cols:   bounds.Dx(),
			Dim:    gray.Stride,
		},
	}

	dets := p.classifier.RunCascade(params, 0.0)
	dets = p.classifier.ClusterDetections(dets, p.config.IoUThreshold)

	out := make([]detection, 0, len(dets))
	for _, det := range dets {
		if det.Q < p.config.QualityThreshold {
			continue
		}
		x := det.Col - det.Scale/2
		y := det.Row - det.Scale/2
		rect := image.Rect(x, y, x+det.Scale, y+det.Scale).Intersect(bounds)
		if rect.Empty() {
			continue
		}
		out = append(out, detection{rect: rect, confidence: qualityToConfidence(det.Q)})
	}

	// raster order: top to bottom, then left to right
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].rect.Min.Y != out[j].rect.Min.Y {
			return out[i].rect.Min.Y < out[j].rect.Min.Y
		}
		return out[i].rect.Min.X < out[j].rect.Min.X
	})
	return out
}

// Describe resamples the face region of gray to a ThumbWidth x ThumbHeight
// thumbnail and returns it mean-centred and scaled to unit length.
func Describe(gray *image.Gray, face image.Rectangle) []float64 {
	thumb := image.NewGray(image.Rect(0, 0, ThumbWidth, ThumbHeight))
	draw.CatmullRom.Scale(thumb, thumb.Bounds(), gray, face, draw.Src, nil)

	v := make([]float64, 0, ThumbWidth*ThumbHeight)
	for y := 0; y < ThumbHeight; y++ {
		for x := 0; x < ThumbWidth; x++ {
			v = append(v, float64(thumb.GrayAt(x, y).Y)/255)
		}
	}

	floats.AddConst(-floats.Sum(v)/float64(len(v)), v)
	if n := floats.Norm(v, 2); n > 0 {
		floats.Scale(1/n, v)
	}
	return v
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// pigo quality scores are unbounded; map them into (0, 1).
func qualityToConfidence(q float32) float64 {
	c := float64(q) / (float64(q) + 10)
	if c < 0 {
		return 0
	}
	return c
}

var _ provider.FaceProvider = (*Provider)(nil)
