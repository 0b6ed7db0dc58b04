package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/asy251189/HarmonyGuard/pkg/config"
	"github.com/asy251189/HarmonyGuard/pkg/observability/logging"
	"github.com/asy251189/HarmonyGuard/pkg/observability/metrics"
)

// RedisCache shares the result cache across replicas. Entries are stored as
// JSON with Redis-side TTL expiry.
type RedisCache struct {
	client  *redis.Client
	ttl     time.Duration
	enabled bool

	hitCount  int64
	missCount int64
}

// RedisCacheOptions contains configuration for Redis cache initialization.
type RedisCacheOptions struct {
	Enabled    bool
	TTLSeconds int
	Config     config.RedisConfig
}

// NewRedisCache initializes a Redis-backed result cache.
func NewRedisCache(options RedisCacheOptions) *RedisCache {
	if !options.Enabled {
		logging.Debugf("RedisCache: disabled, returning stub")
		return &RedisCache{enabled: false}
	}

	logging.Debugf("RedisCache: connecting to %s db=%d", options.Config.Addr, options.Config.Database)
	client := redis.NewClient(&redis.Options{
		Addr:     options.Config.Addr,
		Password: options.Config.Password,
		DB:       options.Config.Database,
	})

	return &RedisCache{
		client:  client,
		ttl:     time.Duration(options.TTLSeconds) * time.Second,
		enabled: true,
	}
}

func (c *RedisCache) IsEnabled() bool { return c.enabled }

func (c *RedisCache) CheckConnection(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Entry, bool, error) {
	if !c.enabled {
		return nil, false, nil
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		atomic.AddInt64(&c.missCount, 1)
		metrics.RecordCacheOperation("redis", "miss")
		return nil, false, nil
	}
	if err != nil {
		// Cache trouble never fails a detection request.
		metrics.RecordCacheOperation("redis", "error")
		logging.Warnf("RedisCache: get failed: %v", err)
		return nil, false, nil
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		metrics.RecordCacheOperation("redis", "error")
		logging.Warnf("RedisCache: corrupt entry for %s: %v", key, err)
		return nil, false, nil
	}

	atomic.AddInt64(&c.hitCount, 1)
	metrics.RecordCacheOperation("redis", "hit")
	return &entry, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, entry *Entry) error {
	if !c.enabled {
		return nil
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		metrics.RecordCacheOperation("redis", "error")
		logging.Warnf("RedisCache: set failed: %v", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *RedisCache) GetStats() Stats {
	hits := atomic.LoadInt64(&c.hitCount)
	misses := atomic.LoadInt64(&c.missCount)
	stats := Stats{
		HitCount:  hits,
		MissCount: misses,
		HitRatio:  hitRatio(hits, misses),
	}
	if c.enabled {
		if n, err := c.client.DBSize(context.Background()).Result(); err == nil {
			stats.TotalEntries = int(n)
		}
	}
	return stats
}
