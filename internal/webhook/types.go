// Package webhook delivers audit events to an external HTTP endpoint.
// Each delivery is a JSON EventPayload signed with HMAC-SHA256 over the body.
package webhook

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/examgate/internal/audit"
)

const (
	HeaderSignature = "X-Examgate-Signature"
	HeaderEvent     = "X-Examgate-Event"
	HeaderDelivery  = "X-Examgate-Delivery"

	userAgent = "examgate-webhook/1.0"
)

const (
	DefaultMaxAttempts = 5
	DefaultQueueSize   = 256
	DefaultTimeout     = 10 * time.Second
	DefaultBaseDelay   = time.Second
)

// ErrQueueFull is returned by Log when deliveries are not keeping up.
var ErrQueueFull = errors.New("webhook queue is full")

type Config struct {
	URL         string
	Secret      string
	MaxAttempts int
	QueueSize   int
	Timeout     time.Duration
	// BaseDelay is the wait before the first retry. It doubles per attempt.
	BaseDelay time.Duration
}

func (c *Config) setDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
}

// EventPayload is the JSON body of a delivery.
type EventPayload struct {
	Type      string      `json:"type"`
	Data      audit.Event `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventType names an audit event, e.g. "room_recognition.recognized".
func EventType(e audit.Event) string {
	return string(e.Kind) + "." + e.Outcome
}

type job struct {
	id        uuid.UUID
	eventType string
	payload   []byte
}
