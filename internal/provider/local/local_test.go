package local

import (
	"context"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
)

func gradient(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x*7 + y*3) % 256)})
		}
	}
	return img
}

func TestDescribe(t *testing.T) {
	img := gradient(200, 200)
	face := image.Rect(40, 40, 140, 140)

	v := Describe(img, face)
	require.Len(t, v, domain.EmbeddingDimension)
	assert.NoError(t, domain.Embedding(v).Validate())

	var sum, norm float64
	for _, x := range v {
		sum += x
		norm += x * x
	}
	assert.InDelta(t, 0, sum, 1e-9, "mean-centred")
	assert.InDelta(t, 1, math.Sqrt(norm), 1e-9, "unit length")

	assert.Equal(t, v, Describe(img, face), "deterministic")
}

func TestDescribe_FlatRegionIsZeroVector(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	v := Describe(img, img.Bounds())

	for _, x := range v {
		assert.Equal(t, 0.0, x)
	}
}

func TestNew_MissingCascade(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CascadePath = filepath.Join(t.TempDir(), "facefinder")

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestRepresent_UndecodableImage(t *testing.T) {
	p := &Provider{config: DefaultConfig()}

	_, err := p.Represent(context.Background(), []byte("not an image"))
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}

func TestQualityToConfidence(t *testing.T) {
	assert.Equal(t, 0.0, qualityToConfidence(-3))
	assert.InDelta(t, 0.5, qualityToConfidence(10), 1e-9)
	assert.Less(t, qualityToConfidence(1000), 1.0)
}
