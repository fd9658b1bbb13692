package cache

import (
	"context"
	"sync/atomic"

	"github.com/facturacion/backend/internal/domain/catalog"
	"go.uber.org/zap"
)

// TieredHistogramCache implements a two-tier caching strategy
// L1: Local in-memory cache (fast, but local to instance)
// L2: Shared cache, normally Redis
// L2 failures are logged and treated as misses so option listing keeps
// working on the database alone.
type TieredHistogramCache struct {
	l1     *InMemoryHistogramCache
	l2     catalog.HistogramCache
	logger *zap.Logger

	// Stats for monitoring
	l1Hits   int64
	l1Misses int64
	l2Hits   int64
	l2Misses int64
}

// NewTieredHistogramCache creates a new tiered histogram cache
func NewTieredHistogramCache(l1 *InMemoryHistogramCache, l2 catalog.HistogramCache, logger *zap.Logger) *TieredHistogramCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TieredHistogramCache{l1: l1, l2: l2, logger: logger}
}

// Get retrieves a histogram (L1 -> L2). L2 hits are promoted to L1.
func (c *TieredHistogramCache) Get(ctx context.Context, version string, field catalog.Field) (catalog.Histogram, bool, error) {
	if h, ok, _ := c.l1.Get(ctx, version, field); ok {
		atomic.AddInt64(&c.l1Hits, 1)
		return h, true, nil
	}
	atomic.AddInt64(&c.l1Misses, 1)

	h, ok, err := c.l2.Get(ctx, version, field)
	if err != nil {
		c.logger.Warn("L2 histogram cache error", zap.String("version", version), zap.String("field", string(field)), zap.Error(err))
		atomic.AddInt64(&c.l2Misses, 1)
		return nil, false, nil
	}
	if !ok {
		atomic.AddInt64(&c.l2Misses, 1)
		return nil, false, nil
	}
	atomic.AddInt64(&c.l2Hits, 1)
	_ = c.l1.Set(ctx, version, field, h)
	return h, true, nil
}

// Set writes through both tiers
func (c *TieredHistogramCache) Set(ctx context.Context, version string, field catalog.Field, h catalog.Histogram) error {
	_ = c.l1.Set(ctx, version, field, h)
	if err := c.l2.Set(ctx, version, field, h); err != nil {
		c.logger.Warn("Failed to write histogram to L2", zap.String("version", version), zap.Error(err))
	}
	return nil
}

// Invalidate drops the version from both tiers
func (c *TieredHistogramCache) Invalidate(ctx context.Context, version string) error {
	_ = c.l1.Invalidate(ctx, version)
	return c.l2.Invalidate(ctx, version)
}

// Stop stops the L1 sweeper. The L2 client is owned by the caller.
func (c *TieredHistogramCache) Stop() {
	c.l1.Stop()
}

// TieredStats holds hit and miss counters of both tiers
type TieredStats struct {
	L1Hits   int64
	L1Misses int64
	L2Hits   int64
	L2Misses int64
}

// Stats returns the cache statistics
func (c *TieredHistogramCache) Stats() TieredStats {
	return TieredStats{
		L1Hits:   atomic.LoadInt64(&c.l1Hits),
		L1Misses: atomic.LoadInt64(&c.l1Misses),
		L2Hits:   atomic.LoadInt64(&c.l2Hits),
		L2Misses: atomic.LoadInt64(&c.l2Misses),
	}
}

var _ catalog.HistogramCache = (*TieredHistogramCache)(nil)
