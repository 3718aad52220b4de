// Package retry decorates an embedding service with retry, rate limiting
// and connection health management.
//
// Transient failures are retried with exponential backoff. Credential
// failures invalidate the cached inner service so the next call rebuilds
// it from scratch. A periodic ping probes connection health before work
// is dispatched.
package retry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/lexquery/lexquery-cli/internal/core/domain"
	"github.com/lexquery/lexquery-cli/internal/core/ports/driven"
	"github.com/lexquery/lexquery-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.EmbeddingService = (*Client)(nil)

// Default configuration values.
const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultPingInterval   = 5 * time.Minute
	DefaultPingTimeout    = 10 * time.Second
	DefaultRequestsPerSec = 10
)

// Factory builds a fresh inner embedding service. Called lazily on first
// use and again after a credential failure invalidates the connection.
type Factory func() (driven.EmbeddingService, error)

// Config holds configuration for the retry client.
type Config struct {
	// MaxRetries is the number of retry attempts for transient failures
	// (default: 3).
	MaxRetries int

	// InitialBackoff is the base delay before the first retry
	// (default: 500ms). Subsequent delays grow exponentially.
	InitialBackoff time.Duration

	// PingInterval is how often the connection is health-probed
	// (default: 5m). Zero keeps the default; negative disables probing.
	PingInterval time.Duration

	// PingTimeout bounds each health probe (default: 10s).
	PingTimeout time.Duration

	// RequestsPerSecond caps the outbound request rate (default: 10).
	RequestsPerSecond float64
}

// Client wraps an embedding service with retry and health management.
type Client struct {
	factory Factory
	cfg     Config
	limiter *rate.Limiter

	mu       sync.Mutex
	inner    driven.EmbeddingService
	lastPing time.Time
}

// NewClient creates a retry client around the given factory.
func NewClient(factory Factory, cfg Config) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.PingInterval == 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = DefaultPingTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSec
	}

	return &Client{
		factory: factory,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// service returns the cached inner service, building it on first use and
// probing its health when the ping interval has elapsed.
func (c *Client) service(ctx context.Context) (driven.EmbeddingService, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inner == nil {
		inner, err := c.factory()
		if err != nil {
			return nil, fmt.Errorf("building embedding service: %w", err)
		}
		c.inner = inner
		c.lastPing = time.Time{}
	}

	if c.cfg.PingInterval > 0 && time.Since(c.lastPing) >= c.cfg.PingInterval {
		pingCtx, cancel := context.WithTimeout(ctx, c.cfg.PingTimeout)
		err := c.inner.Ping(pingCtx)
		cancel()
		if err != nil {
			if domain.IsPersistent(err) {
				c.invalidateLocked()
				return nil, err
			}
			logger.Warn("Embedding service ping failed: %v", err)
		}
		c.lastPing = time.Now()
	}

	return c.inner, nil
}

// invalidateLocked drops the cached service. Caller holds the lock.
func (c *Client) invalidateLocked() {
	if c.inner != nil {
		if err := c.inner.Close(); err != nil {
			logger.Debug("Closing invalidated embedding service: %v", err)
		}
		c.inner = nil
	}
}

// invalidate drops the cached service so the next call rebuilds it.
func (c *Client) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked()
}

// do runs op with rate limiting and exponential-backoff retry on
// transient failures.
func (c *Client) do(ctx context.Context, op func(driven.EmbeddingService) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxRetries)), ctx)

	return backoff.Retry(func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		inner, err := c.service(ctx)
		if err != nil {
			if domain.IsTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		err = op(inner)
		switch {
		case err == nil:
			return nil
		case domain.IsPersistent(err):
			c.invalidate()
			return backoff.Permanent(err)
		case domain.IsTransient(err):
			logger.Debug("Transient embedding failure, will retry: %v", err)
			return err
		default:
			return backoff.Permanent(err)
		}
	}, policy)
}

// Embed generates a vector embedding for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var result []float32
	err := c.do(ctx, func(inner driven.EmbeddingService) error {
		embedding, err := inner.Embed(ctx, text)
		if err != nil {
			return err
		}
		result = embedding
		return nil
	})
	return result, err
}

// EmbedBatch generates embeddings for multiple texts.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var result [][]float32
	err := c.do(ctx, func(inner driven.EmbeddingService) error {
		embeddings, err := inner.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		result = embeddings
		return nil
	})
	return result, err
}

// Dimensions returns the embedding vector size.
func (c *Client) Dimensions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inner == nil {
		inner, err := c.factory()
		if err != nil {
			return 0
		}
		c.inner = inner
	}
	return c.inner.Dimensions()
}

// ModelName returns the name of the embedding model being used.
func (c *Client) ModelName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inner == nil {
		inner, err := c.factory()
		if err != nil {
			return ""
		}
		c.inner = inner
	}
	return c.inner.ModelName()
}

// Ping validates the underlying service is reachable.
func (c *Client) Ping(ctx context.Context) error {
	inner, err := c.service(ctx)
	if err != nil {
		return err
	}
	return inner.Ping(ctx)
}

// Close releases the cached inner service.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inner == nil {
		return nil
	}
	err := c.inner.Close()
	c.inner = nil
	return err
}
