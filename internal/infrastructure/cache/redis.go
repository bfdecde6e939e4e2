package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/mediacache/internal/domain/repository"
	"github.com/hszk-dev/mediacache/internal/infrastructure/metrics"
)

const (
	// mediaCacheKeyPrefix is the prefix for media cache keys in Redis.
	mediaCacheKeyPrefix = "media:"
)

// RedisMediaCache implements repository.MediaCache using Redis as the backing store.
// A Redis SET replaces the value atomically, so readers never see a partial payload.
type RedisMediaCache struct {
	client *redis.Client
	logger *slog.Logger
}

// Compile-time verification that RedisMediaCache implements repository.MediaCache.
var _ repository.MediaCache = (*RedisMediaCache)(nil)

// NewRedisMediaCache creates a new Redis-backed media cache.
func NewRedisMediaCache(client *redis.Client, logger *slog.Logger) *RedisMediaCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisMediaCache{
		client: client,
		logger: logger,
	}
}

// Set stores the full media payload in Redis with the specified TTL.
func (c *RedisMediaCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.buildKey(key), data, ttl).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	return nil
}

// Get retrieves a media payload from Redis.
// Returns nil on cache miss and on backend failure; failures are logged.
func (c *RedisMediaCache) Get(ctx context.Context, key string) []byte {
	data, err := c.client.Get(ctx, c.buildKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeRedis).Inc()
			return nil
		}
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		c.logger.Warn("redis get failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeRedis).Inc()
	return data
}

// Exists reports whether key is cached. Backend failures are logged and read as a miss.
func (c *RedisMediaCache) Exists(ctx context.Context, key string) bool {
	n, err := c.client.Exists(ctx, c.buildKey(key)).Result()
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpExists, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		c.logger.Warn("redis exists failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}

	status := metrics.CacheStatusMiss
	if n == 1 {
		status = metrics.CacheStatusHit
	}
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpExists, status, metrics.CacheTypeRedis).Inc()
	return n == 1
}

// Ping verifies the Redis connection is alive.
func (c *RedisMediaCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

// buildKey constructs the Redis key for a media object.
func (c *RedisMediaCache) buildKey(key string) string {
	return mediaCacheKeyPrefix + key
}
