package cache

import (
	"context"
	"time"

	"github.com/facturacion/backend/internal/domain/catalog"
	"go.uber.org/zap"
)

type histogramKey struct {
	version string
	field   catalog.Field
}

// InMemoryHistogramCache implements catalog.HistogramCache in process memory.
// It is the L1 tier in front of Redis, and the whole cache when Redis is
// not configured.
type InMemoryHistogramCache struct {
	entries *expiringMap[histogramKey, catalog.Histogram]
	ttl     time.Duration
	logger  *zap.Logger
}

// InMemoryHistogramCacheOption is a functional option for configuring the cache
type InMemoryHistogramCacheOption func(*InMemoryHistogramCache)

// WithInMemoryTTL sets how long histograms are kept
func WithInMemoryTTL(ttl time.Duration) InMemoryHistogramCacheOption {
	return func(c *InMemoryHistogramCache) {
		c.ttl = ttl
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryHistogramCacheOption {
	return func(c *InMemoryHistogramCache) {
		c.logger = logger
	}
}

// NewInMemoryHistogramCache creates a new in-memory histogram cache
func NewInMemoryHistogramCache(opts ...InMemoryHistogramCacheOption) *InMemoryHistogramCache {
	c := &InMemoryHistogramCache{
		entries: newExpiringMap[histogramKey, catalog.Histogram](defaultCleanupInterval),
		ttl:     time.Hour,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached histogram. Callers must not modify it.
func (c *InMemoryHistogramCache) Get(_ context.Context, version string, field catalog.Field) (catalog.Histogram, bool, error) {
	h, ok := c.entries.get(histogramKey{version, field})
	if ok {
		c.logger.Debug("L1 histogram hit", zap.String("version", version), zap.String("field", string(field)))
	}
	return h, ok, nil
}

// Set stores a histogram
func (c *InMemoryHistogramCache) Set(_ context.Context, version string, field catalog.Field, h catalog.Histogram) error {
	if h == nil {
		return nil
	}
	c.entries.set(histogramKey{version, field}, h, c.ttl)
	return nil
}

// Invalidate drops every histogram of the version
func (c *InMemoryHistogramCache) Invalidate(_ context.Context, version string) error {
	c.entries.deleteFunc(func(k histogramKey) bool { return k.version == version })
	c.logger.Debug("Invalidated L1 histograms", zap.String("version", version))
	return nil
}

// Stats returns hit and miss counts
func (c *InMemoryHistogramCache) Stats() Stats {
	return c.entries.stats()
}

// Stop ends the background cleanup
func (c *InMemoryHistogramCache) Stop() {
	c.entries.stop()
}

var _ catalog.HistogramCache = (*InMemoryHistogramCache)(nil)
