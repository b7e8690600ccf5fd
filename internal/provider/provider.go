package provider

import "context"

// FaceProvider detects faces in an image and computes one embedding per face.
type FaceProvider interface {
	// Represent returns every face found in image, in the detector's order.
	// An image without faces yields an empty slice and a nil error.
	Represent(ctx context.Context, image []byte) ([]DetectedFace, error)

	// Name identifies the backend in logs.
	Name() string
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	BoundingBox BoundingBox `json:"bounding_box"`
	Confidence  float64     `json:"confidence"`
	Embedding   []float64   `json:"-"`
}

// BoundingBox represents the face area in the image
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the box area in pixels.
func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}
