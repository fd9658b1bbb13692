package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/facturacion/backend/internal/domain/catalog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const histogramKeyPrefix = "catalog:histogram:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisHistogramCache implements catalog.HistogramCache on Redis so every
// instance shares the histograms of the active dataset.
type RedisHistogramCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisHistogramCache creates a cache with an existing Redis client.
// The caller retains ownership of the client.
func NewRedisHistogramCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisHistogramCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisHistogramCache{client: client, ttl: ttl, logger: logger}
}

func histogramCacheKey(version string, field catalog.Field) string {
	return histogramKeyPrefix + version + ":" + string(field)
}

// Get retrieves a histogram
func (c *RedisHistogramCache) Get(ctx context.Context, version string, field catalog.Field) (catalog.Histogram, bool, error) {
	key := histogramCacheKey(version, field)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get histogram from cache: %w", err)
	}

	var h catalog.Histogram
	if err := json.Unmarshal(data, &h); err != nil {
		c.logger.Warn("Dropping corrupted histogram", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, key)
		return nil, false, nil
	}
	return h, true, nil
}

// Set stores a histogram
func (c *RedisHistogramCache) Set(ctx context.Context, version string, field catalog.Field, h catalog.Histogram) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to marshal histogram: %w", err)
	}
	if err := c.client.Set(ctx, histogramCacheKey(version, field), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set histogram in cache: %w", err)
	}
	return nil
}

// Invalidate deletes every histogram of the version
func (c *RedisHistogramCache) Invalidate(ctx context.Context, version string) error {
	keys := make([]string, 0, len(catalog.SupportedFields()))
	for _, f := range catalog.SupportedFields() {
		keys = append(keys, histogramCacheKey(version, f))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate histograms: %w", err)
	}
	return nil
}

var _ catalog.HistogramCache = (*RedisHistogramCache)(nil)
