// Package mock is a deterministic FaceProvider for tests and local development.
package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
	"github.com/saturnino-fabrica-de-software/examgate/internal/provider"
)

// script overrides the default behaviour for one image.
type script struct {
	faces []provider.DetectedFace
	err   error
	delay time.Duration
}

// Provider implements provider.FaceProvider. By default every image yields one
// face whose embedding is derived from the image's sha256, so identical bytes
// always produce identical embeddings.
type Provider struct {
	mu      sync.RWMutex
	scripts map[string]script
	calls   int
}

// New creates a mock provider.
func New() *Provider {
	return &Provider{scripts: make(map[string]script)}
}

// Name implements provider.FaceProvider.
func (p *Provider) Name() string { return "mock" }

// SetFaces makes image yield one face per embedding, in the given order.
// Calling it without embeddings makes the image faceless.
func (p *Provider) SetFaces(image []byte, embeddings ...[]float64) {
	faces := make([]provider.DetectedFace, len(embeddings))
	for i, e := range embeddings {
		faces[i] = provider.DetectedFace{
			BoundingBox: provider.BoundingBox{X: float64(10 + 110*i), Y: 10, Width: 100, Height: 100},
			Confidence:  0.99,
			Embedding:   e,
		}
	}

	p.mu.Lock()
	s := p.scripts[key(image)]
	s.faces = faces
	p.scripts[key(image)] = s
	p.mu.Unlock()
}

// SetError makes image fail with err.
func (p *Provider) SetError(image []byte, err error) {
	p.mu.Lock()
	s := p.scripts[key(image)]
	s.err = err
	p.scripts[key(image)] = s
	p.mu.Unlock()
}

// SetDelay makes processing of image take at least d, or until ctx is done.
func (p *Provider) SetDelay(image []byte, d time.Duration) {
	p.mu.Lock()
	s := p.scripts[key(image)]
	s.delay = d
	p.scripts[key(image)] = s
	p.mu.Unlock()
}

// Calls returns how many times Represent was called.
func (p *Provider) Calls() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.calls
}

// Represent implements provider.FaceProvider.
func (p *Provider) Represent(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	p.mu.Lock()
	p.calls++
	s, scripted := p.scripts[key(image)]
	p.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	if scripted && s.faces != nil {
		out := make([]provider.DetectedFace, len(s.faces))
		copy(out, s.faces)
		return out, nil
	}

	return []provider.DetectedFace{{
		BoundingBox: provider.BoundingBox{X: 10, Y: 10, Width: 100, Height: 100},
		Confidence:  0.99,
		Embedding:   Embedding(image),
	}}, nil
}

// Embedding returns the deterministic unit-length embedding the provider
// computes for image.
func Embedding(image []byte) []float64 {
	embedding := make([]float64, domain.EmbeddingDimension)

	// Each counter-suffixed sha256 block yields 8 components.
	var block [36]byte
	seed := sha256.Sum256(image)
	copy(block[:32], seed[:])
	for b := 0; b*8 < len(embedding); b++ {
		binary.BigEndian.PutUint32(block[32:], uint32(b))
		sum := sha256.Sum256(block[:])
		for j := 0; j < 8 && b*8+j < len(embedding); j++ {
			v := binary.BigEndian.Uint32(sum[j*4:])
			embedding[b*8+j] = float64(v)/math.MaxUint32*2 - 1
		}
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}

func key(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

var _ provider.FaceProvider = (*Provider)(nil)
