package deepface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	representPath = "/represent"
	maxBackoff    = 30 * time.Second
)

// Config configures the DeepFace HTTP client.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Model    string
	Detector string
	// RetryCount is the number of extra attempts after the first failure.
	RetryCount int
	// RetryBackoff is the first retry delay; later ones double.
	RetryBackoff time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseURL:      "http://localhost:5005",
		Timeout:      30 * time.Second,
		Model:        "Facenet",
		Detector:     "retinaface",
		RetryCount:   3,
		RetryBackoff: time.Second,
	}
}

// Client talks to a DeepFace server.
type Client struct {
	http   *http.Client
	config Config
}

func NewClient(config Config) *Client {
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = time.Second
	}
	return &Client{
		http:   &http.Client{Timeout: config.Timeout},
		config: config,
	}
}

// Represent asks the server for the embedding of every face in the image.
func (c *Client) Represent(ctx context.Context, imageBase64 string) (*RepresentResponse, error) {
	payload, err := json.Marshal(RepresentRequest{
		Img:              "data:image/jpeg;base64," + imageBase64,
		Model:            c.config.Model,
		Detector:         c.config.Detector,
		EnforceDetection: true,
		Align:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var out RepresentResponse
	var lastErr error
	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoffDelay(c.config.RetryBackoff, attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		lastErr = c.post(ctx, representPath, payload, &out)
		if lastErr == nil {
			return &out, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(lastErr) {
			return nil, lastErr
		}
	}

	if errors.Is(lastErr, ErrDeepFaceTimeout) {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %v", ErrDeepFaceUnavailable, lastErr)
}

// backoffDelay returns base for the first retry and doubles it for each
// following one, up to maxBackoff.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt <= 1 {
		return base
	}
	shift := attempt - 1
	if shift > 30 || base<<shift > maxBackoff || base<<shift <= 0 {
		return maxBackoff
	}
	return base << shift
}

// retryable reports whether a failed call may succeed on a later attempt.
// Server errors, timeouts and transport failures qualify.
func retryable(err error) bool {
	if errors.Is(err, ErrInvalidResponse) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.status >= 500
	}
	return true
}

func (c *Client) post(ctx context.Context, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if os.IsTimeout(err) && ctx.Err() == nil {
			return fmt.Errorf("%w: %v", ErrDeepFaceTimeout, err)
		}
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &statusError{status: resp.StatusCode, body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
