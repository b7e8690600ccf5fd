package domain

import (
	"fmt"
	"math"
)

// EmbeddingDimension is the number of components produced by the face models
// supported by the providers (dlib / Facenet).
const EmbeddingDimension = 128

// Embedding is a face descriptor. It is stored and transported as a plain
// ordered list of floats.
type Embedding []float64

// Validate reports ErrInvalidEmbedding when the embedding does not have
// exactly EmbeddingDimension finite components.
func (e Embedding) Validate() error {
	if len(e) != EmbeddingDimension {
		return ErrInvalidEmbedding.WithError(
			fmt.Errorf("expected %d components, got %d", EmbeddingDimension, len(e)))
	}
	for i, v := range e {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidEmbedding.WithError(fmt.Errorf("component %d is not finite", i))
		}
	}
	return nil
}

// Clone returns a copy that does not share the backing array.
func (e Embedding) Clone() Embedding {
	if e == nil {
		return nil
	}
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}

// Float32 converts the embedding for vector columns.
func (e Embedding) Float32() []float32 {
	out := make([]float32, len(e))
	for i, v := range e {
		out[i] = float32(v)
	}
	return out
}

// EmbeddingFromFloat32 is the inverse of Float32.
func EmbeddingFromFloat32(v []float32) Embedding {
	if v == nil {
		return nil
	}
	out := make(Embedding, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// Confidence converts a match distance into the display score 1 - distance,
// clamped to [0, 1]. It is monotonic in distance and not a probability.
func Confidence(distance float64) float64 {
	c := 1 - distance
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
