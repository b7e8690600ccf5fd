package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/examgate/internal/audit"
)

// Notifier is an audit sink that queues events for delivery. Run must be
// started for anything to be sent.
type Notifier struct {
	cfg    Config
	client *http.Client
	queue  chan job
	logger *slog.Logger
	stopCh chan struct{}
}

func NewNotifier(cfg Config, logger *slog.Logger) *Notifier {
	cfg.setDefaults()

	return &Notifier{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		queue:  make(chan job, cfg.QueueSize),
		logger: logger.With(slog.String("component", "webhook")),
		stopCh: make(chan struct{}),
	}
}

// Log queues the event without blocking.
func (n *Notifier) Log(_ context.Context, event audit.Event) error {
	eventType := EventType(event)

	payload, err := json.Marshal(EventPayload{
		Type:      eventType,
		Data:      event,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	select {
	case n.queue <- job{id: uuid.New(), eventType: eventType, payload: payload}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Send makes one delivery attempt.
func (n *Notifier) Send(ctx context.Context, deliveryID uuid.UUID, eventType string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSignature, Sign(n.cfg.Secret, time.Now(), payload))
	req.Header.Set(HeaderEvent, eventType)
	req.Header.Set(HeaderDelivery, deliveryID.String())
	req.Header.Set("User-Agent", userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook responded HTTP %d", resp.StatusCode)
	}

	return nil
}

var _ audit.Logger = (*Notifier)(nil)
