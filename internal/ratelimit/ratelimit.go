// Package ratelimit caps daily requests per translation provider.
package ratelimit

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Budget tracks per-provider request counts against daily limits. A
// provider with no limit, or a limit of 0, is unlimited.
type Budget struct {
	mu        sync.Mutex
	limits    map[string]int
	counts    map[string]int
	resetTime time.Time
	window    time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a budget that resets every 24 hours.
func New(limits map[string]int, logger *slog.Logger) *Budget {
	b := &Budget{
		limits: make(map[string]int, len(limits)),
		counts: make(map[string]int),
		window: 24 * time.Hour,
		now:    time.Now,
		logger: logger,
	}
	for name, n := range limits {
		b.limits[name] = n
	}
	b.resetTime = b.now().Add(b.window)
	return b
}

// Allow reports whether provider has budget left.
func (b *Budget) Allow(provider string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()
	if b.exhausted(provider) {
		b.logger.Debug("Provider rate limit reached", "provider", provider, "used", b.counts[provider], "limit", b.limits[provider])
		return false
	}
	return true
}

// Use consumes one request for provider.
func (b *Budget) Use(provider string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()
	if b.exhausted(provider) {
		return fmt.Errorf("%s rate limit exceeded", provider)
	}
	b.counts[provider]++
	b.logger.Debug("Provider usage", "provider", provider, "used", b.counts[provider], "limit", b.limits[provider])
	return nil
}

// GetStats returns usage per provider.
func (b *Budget) GetStats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := make([]string, 0, len(b.limits))
	for name := range b.limits {
		names = append(names, name)
	}
	sort.Strings(names)

	stats := map[string]interface{}{"reset_time": b.resetTime}
	for _, name := range names {
		stats[name+"_used"] = b.counts[name]
		stats[name+"_limit"] = b.limits[name]
	}
	return stats
}

func (b *Budget) exhausted(provider string) bool {
	limit := b.limits[provider]
	return limit > 0 && b.counts[provider] >= limit
}

// checkReset resets counters if reset time has passed
func (b *Budget) checkReset() {
	if b.now().After(b.resetTime) {
		b.logger.Info("Resetting translation rate limits")
		b.counts = make(map[string]int)
		b.resetTime = b.now().Add(b.window)
	}
}
