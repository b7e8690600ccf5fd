//go:build !dlib

package dlib

import (
	"context"

	"github.com/saturnino-fabrica-de-software/examgate/internal/provider"
)

// Available reports whether the binary was built with dlib support.
const Available = false

// Provider is a placeholder so callers compile without cgo.
type Provider struct{}

// New always fails without the dlib build tag.
func New(modelsDir string) (*Provider, error) {
	return nil, ErrNotBuilt
}

func (p *Provider) Name() string { return "dlib" }

func (p *Provider) Represent(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	return nil, ErrNotBuilt
}

func (p *Provider) Close() error { return nil }

var _ provider.FaceProvider = (*Provider)(nil)
