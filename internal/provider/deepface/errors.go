package deepface

import (
	"errors"
	"fmt"
)

var (
	ErrDeepFaceUnavailable = errors.New("deepface service unavailable")
	ErrDeepFaceTimeout     = errors.New("deepface request timeout")
	ErrInvalidResponse     = errors.New("invalid response from deepface")
)

// statusError is a non-2xx answer from the DeepFace server.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("deepface returned status %d: %s", e.status, e.body)
}
