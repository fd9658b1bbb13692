package cache

import (
	"context"
	"fmt"

	"github.com/facturacion/backend/internal/domain/catalog"
	"github.com/facturacion/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HistogramCacheFactory creates histogram caches based on configuration
type HistogramCacheFactory struct {
	redisConfig           config.RedisConfig
	catalogConfig         config.CatalogConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// HistogramCacheFactoryOption is a functional option for configuring the factory
type HistogramCacheFactoryOption func(*HistogramCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) HistogramCacheFactoryOption {
	return func(f *HistogramCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) HistogramCacheFactoryOption {
	return func(f *HistogramCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewHistogramCacheFactory creates a new factory
func NewHistogramCacheFactory(redisCfg config.RedisConfig, catalogCfg config.CatalogConfig, opts ...HistogramCacheFactoryOption) *HistogramCacheFactory {
	f := &HistogramCacheFactory{
		redisConfig:           redisCfg,
		catalogConfig:         catalogCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateInMemoryCache creates a process-local histogram cache.
// Instances do not share it, so each one computes histograms once per version.
func (f *HistogramCacheFactory) CreateInMemoryCache() *InMemoryHistogramCache {
	return NewInMemoryHistogramCache(
		WithInMemoryTTL(f.catalogConfig.OptionsCacheTTL),
		WithInMemoryLogger(f.logger),
	)
}

// NoopHistogramCache never stores anything; every Get is a miss
type NoopHistogramCache struct{}

func (NoopHistogramCache) Get(context.Context, string, catalog.Field) (catalog.Histogram, bool, error) {
	return nil, false, nil
}

func (NoopHistogramCache) Set(context.Context, string, catalog.Field, catalog.Histogram) error {
	return nil
}

func (NoopHistogramCache) Invalidate(context.Context, string) error { return nil }

// StopHistogramCache stops the background sweeper of a cache returned by
// CreateCache, if it has one.
func StopHistogramCache(c catalog.HistogramCache) {
	if s, ok := c.(interface{ Stop() }); ok {
		s.Stop()
	}
}

// CreateCache returns a tiered Redis-backed cache when Redis is enabled and
// reachable, otherwise an in-memory cache if fallback is allowed. The
// returned client is nil unless Redis is in use; the caller closes it.
func (f *HistogramCacheFactory) CreateCache() (catalog.HistogramCache, *redis.Client, error) {
	if !f.catalogConfig.CacheEnabled {
		f.logger.Info("Histogram cache disabled")
		return NoopHistogramCache{}, nil, nil
	}
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory histogram cache")
		return f.CreateInMemoryCache(), nil, nil
	}

	client, err := NewRedisClient(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, nil, fmt.Errorf("failed to create Redis histogram cache: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory histogram cache",
			zap.String("addr", f.redisConfig.Addr()),
			zap.Error(err))
		return f.CreateInMemoryCache(), nil, nil
	}

	l2 := NewRedisHistogramCache(client, f.catalogConfig.OptionsCacheTTL, f.logger)
	f.logger.Info("Using tiered histogram cache", zap.String("addr", f.redisConfig.Addr()))
	return NewTieredHistogramCache(f.CreateInMemoryCache(), l2, f.logger), client, nil
}
