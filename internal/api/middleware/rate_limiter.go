package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	// Max requests per window
	Max int
	// Window duration
	Window time.Duration
	// KeyGenerator identifies the client; the default is the remote IP.
	// An empty key is never limited.
	KeyGenerator func(c *fiber.Ctx) string
}

// DefaultRateLimiterConfig allows 120 recognitions per minute per client IP.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Max:    120,
		Window: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}
}

type window struct {
	count int
	end   time.Time
}

// RateLimiter is a fixed-window limiter keyed per client. Recognition
// endpoints use it to keep one gate from starving the extraction pool.
type RateLimiter struct {
	config   RateLimiterConfig
	windows  map[string]*window
	mu       sync.Mutex
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	defaults := DefaultRateLimiterConfig()
	if config.Max <= 0 {
		config.Max = defaults.Max
	}
	if config.Window <= 0 {
		config.Window = defaults.Window
	}
	if config.KeyGenerator == nil {
		config.KeyGenerator = defaults.KeyGenerator
	}

	rl := &RateLimiter{
		config:  config,
		windows: make(map[string]*window),
		now:     time.Now,
		done:    make(chan struct{}),
	}

	go rl.sweep()

	return rl
}

// Stop ends the sweep goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// take counts one request for key and returns the count within the
// current window and when that window ends.
func (rl *RateLimiter) take(key string) (int, time.Time) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || !now.Before(w.end) {
		w = &window{end: now.Add(rl.config.Window)}
		rl.windows[key] = w
	}
	w.count++
	return w.count, w.end
}

func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := rl.config.KeyGenerator(c)
		if key == "" {
			return c.Next()
		}

		count, end := rl.take(key)
		remaining := max(rl.config.Max-count, 0)

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.config.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", end.Format(time.RFC3339))

		if count > rl.config.Max {
			wait := int(math.Ceil(end.Sub(rl.now()).Seconds()))
			c.Set("Retry-After", strconv.Itoa(max(wait, 1)))
			return domain.ErrRateLimitExceeded
		}

		return c.Next()
	}
}

// sweep drops windows that ended more than one window ago.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(max(rl.config.Window, time.Minute))
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			cutoff := rl.now().Add(-rl.config.Window)
			rl.mu.Lock()
			for key, w := range rl.windows {
				if w.end.Before(cutoff) {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}
