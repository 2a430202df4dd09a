// Package translate localises announcement descriptions through a chain of
// translation providers.
package translate

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/deusflow/freegames/internal/cache"
	"github.com/deusflow/freegames/internal/metrics"
)

// DefaultTimeout bounds one provider call.
const DefaultTimeout = 15 * time.Second

// Provider translates text between two ISO 639-1 languages.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// Limiter gates provider calls.
type Limiter interface {
	Allow(provider string) bool
	Use(provider string) error
}

// Chain tries providers in order and falls back to the original text.
type Chain struct {
	providers []Provider
	from      string
	to        string
	limiter   Limiter
	memo      *cache.Cache[string]
	ttl       time.Duration
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Chain)

func WithLimiter(l Limiter) Option {
	return func(c *Chain) { c.limiter = l }
}

// WithCache memoises successful translations for ttl.
func WithCache(memo *cache.Cache[string], ttl time.Duration) Option {
	return func(c *Chain) {
		c.memo = memo
		c.ttl = ttl
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Chain) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Chain) { c.metrics = m }
}

// NewChain builds a chain translating from one language to another. An
// empty target disables translation.
func NewChain(from, to string, providers []Provider, logger *slog.Logger, opts ...Option) *Chain {
	c := &Chain{
		providers: providers,
		from:      from,
		to:        to,
		timeout:   DefaultTimeout,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transform returns text in the target language, or text itself when no
// provider could do better.
func (c *Chain) Transform(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" || c.to == "" || strings.EqualFold(c.from, c.to) || len(c.providers) == 0 {
		return text
	}

	key := cache.Key(c.from, c.to, text)
	if c.memo != nil {
		if hit, ok := c.memo.Get(key); ok {
			return hit
		}
	}

	for _, p := range c.providers {
		name := p.Name()
		if c.limiter != nil {
			if !c.limiter.Allow(name) {
				continue
			}
			if err := c.limiter.Use(name); err != nil {
				continue
			}
		}

		out, err := c.call(ctx, p, text)
		if err != nil {
			c.logger.Warn("Translation provider failed", "provider", name, "from", c.from, "to", c.to, "error", err)
			continue
		}
		out = SanitizeAIText(out)
		if out == "" || out == text {
			c.logger.Debug("Translation provider returned nothing new", "provider", name)
			continue
		}

		c.logger.Debug("Translated description", "provider", name, "from", c.from, "to", c.to)
		if c.memo != nil {
			c.memo.Set(key, out, c.ttl)
		}
		if c.metrics != nil {
			c.metrics.IncrementSuccessfulTranslations()
		}
		return out
	}

	c.logger.Warn("All translation providers failed, using original", "from", c.from, "to", c.to)
	if c.metrics != nil {
		c.metrics.IncrementFailedTranslations()
	}
	return text
}

func (c *Chain) call(ctx context.Context, p Provider, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return p.Translate(ctx, clip(text), c.from, c.to)
}
