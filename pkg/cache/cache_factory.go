package cache

import (
	"fmt"

	"github.com/asy251189/HarmonyGuard/pkg/config"
	"github.com/asy251189/HarmonyGuard/pkg/observability/logging"
)

// NewBackend builds the configured cache backend.
func NewBackend(cfg config.CacheConfig) (Backend, error) {
	switch cfg.Backend {
	case "", "memory":
		logging.Infof("Creating in-memory result cache (enabled=%t, max_entries=%d, ttl=%ds)",
			cfg.Enabled, cfg.MaxEntries, cfg.TTLSeconds)
		return NewInMemoryCache(InMemoryCacheOptions{
			Enabled:    cfg.Enabled,
			MaxEntries: cfg.MaxEntries,
			TTLSeconds: cfg.TTLSeconds,
		}), nil
	case "redis":
		logging.Infof("Creating redis result cache (enabled=%t, addr=%s, ttl=%ds)",
			cfg.Enabled, cfg.Redis.Addr, cfg.TTLSeconds)
		return NewRedisCache(RedisCacheOptions{
			Enabled:    cfg.Enabled,
			TTLSeconds: cfg.TTLSeconds,
			Config:     cfg.Redis,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Backend)
	}
}
