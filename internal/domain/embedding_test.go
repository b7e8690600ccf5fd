package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbedding_Validate(t *testing.T) {
	valid := make(Embedding, EmbeddingDimension)
	assert.NoError(t, valid.Validate())

	assert.ErrorIs(t, Embedding(nil).Validate(), ErrInvalidEmbedding)
	assert.ErrorIs(t, make(Embedding, EmbeddingDimension-1).Validate(), ErrInvalidEmbedding)

	withNaN := make(Embedding, EmbeddingDimension)
	withNaN[3] = math.NaN()
	assert.ErrorIs(t, withNaN.Validate(), ErrInvalidEmbedding)

	withInf := make(Embedding, EmbeddingDimension)
	withInf[0] = math.Inf(1)
	assert.ErrorIs(t, withInf.Validate(), ErrInvalidEmbedding)
}

func TestEmbedding_CloneDoesNotAlias(t *testing.T) {
	e := Embedding{1, 2, 3}
	c := e.Clone()
	c[0] = 42

	assert.Equal(t, 1.0, e[0])
	assert.Nil(t, Embedding(nil).Clone())
}

func TestEmbedding_Float32RoundTrip(t *testing.T) {
	e := Embedding{0.5, -0.25, 0.125}
	assert.Equal(t, e, EmbeddingFromFloat32(e.Float32()))
	assert.Nil(t, EmbeddingFromFloat32(nil))
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{0, 1},
		{0.05, 0.95},
		{0.6, 0.4},
		{1, 0},
		{1.7, 0},
		{-0.1, 1},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, Confidence(tt.distance), 1e-12)
	}

	assert.Greater(t, Confidence(0.1), Confidence(0.2), "confidence must decrease with distance")
}
