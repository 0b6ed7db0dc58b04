package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asy251189/HarmonyGuard/pkg/config"
	"github.com/asy251189/HarmonyGuard/pkg/detection"
)

func testEntry(severity float64) *Entry {
	return &Entry{
		Result: detection.EnsembleResult{
			SeverityScore:     severity,
			Confidence:        0.9,
			Labels:            []detection.Category{detection.CategoryHarassment},
			DetectedLanguages: []string{"en"},
		},
		Decision:  detection.DecisionFlag,
		CreatedAt: time.Now(),
	}
}

func TestKey(t *testing.T) {
	th := detection.Thresholds{AllowBelow: 0.5, BlockAtOrAbove: 0.8}

	t.Run("same request fingerprints equally", func(t *testing.T) {
		assert.Equal(t,
			Key("you are stupid", []string{"en", "hi"}, th, true),
			Key("you are stupid", []string{"hi", "en"}, th, true),
			"hint order must not change the key")
	})

	t.Run("every input dimension changes the key", func(t *testing.T) {
		base := Key("you are stupid", []string{"en"}, th, true)
		assert.NotEqual(t, base, Key("you are stupid!", []string{"en"}, th, true))
		assert.NotEqual(t, base, Key("you are stupid", []string{"hi"}, th, true))
		assert.NotEqual(t, base, Key("you are stupid", []string{"en"}, detection.Thresholds{AllowBelow: 0.4, BlockAtOrAbove: 0.8}, true))
		assert.NotEqual(t, base, Key("you are stupid", []string{"en"}, th, false))
	})
}

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get round trip", func(t *testing.T) {
		c := NewInMemoryCache(InMemoryCacheOptions{Enabled: true, MaxEntries: 10, TTLSeconds: 60})
		require.NoError(t, c.Set(ctx, "k1", testEntry(0.7)))

		got, ok, err := c.Get(ctx, "k1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 0.7, got.Result.SeverityScore)
		assert.Equal(t, detection.DecisionFlag, got.Decision)
	})

	t.Run("miss on unknown key", func(t *testing.T) {
		c := NewInMemoryCache(InMemoryCacheOptions{Enabled: true, MaxEntries: 10, TTLSeconds: 60})
		_, ok, err := c.Get(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("disabled cache never stores", func(t *testing.T) {
		c := NewInMemoryCache(InMemoryCacheOptions{Enabled: false, MaxEntries: 10, TTLSeconds: 60})
		require.NoError(t, c.Set(ctx, "k1", testEntry(0.7)))
		_, ok, err := c.Get(ctx, "k1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("LRU eviction drops the coldest entry", func(t *testing.T) {
		c := NewInMemoryCache(InMemoryCacheOptions{Enabled: true, MaxEntries: 2, TTLSeconds: 60})
		require.NoError(t, c.Set(ctx, "a", testEntry(0.1)))
		require.NoError(t, c.Set(ctx, "b", testEntry(0.2)))

		// Touch "a" so "b" becomes the eviction candidate.
		_, ok, _ := c.Get(ctx, "a")
		require.True(t, ok)

		require.NoError(t, c.Set(ctx, "c", testEntry(0.3)))

		_, ok, _ = c.Get(ctx, "a")
		assert.True(t, ok)
		_, ok, _ = c.Get(ctx, "b")
		assert.False(t, ok)
		_, ok, _ = c.Get(ctx, "c")
		assert.True(t, ok)
	})

	t.Run("expired entries are misses", func(t *testing.T) {
		c := NewInMemoryCache(InMemoryCacheOptions{Enabled: true, MaxEntries: 10, TTLSeconds: 60})
		require.NoError(t, c.Set(ctx, "k1", testEntry(0.7)))

		// Force expiry instead of sleeping.
		c.mu.Lock()
		c.entries["k1"].Value.(*memoryEntry).expiresAt = time.Now().Add(-time.Second)
		c.mu.Unlock()

		_, ok, err := c.Get(ctx, "k1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("stats track hits and misses", func(t *testing.T) {
		c := NewInMemoryCache(InMemoryCacheOptions{Enabled: true, MaxEntries: 10, TTLSeconds: 60})
		require.NoError(t, c.Set(ctx, "k1", testEntry(0.7)))
		c.Get(ctx, "k1")
		c.Get(ctx, "k1")
		c.Get(ctx, "missing")

		stats := c.GetStats()
		assert.Equal(t, int64(2), stats.HitCount)
		assert.Equal(t, int64(1), stats.MissCount)
		assert.InDelta(t, 2.0/3.0, stats.HitRatio, 1e-9)
		assert.Equal(t, 1, stats.TotalEntries)
	})
}

func TestNewBackend(t *testing.T) {
	t.Run("memory backend by default", func(t *testing.T) {
		b, err := NewBackend(config.CacheConfig{Backend: "memory", Enabled: true, MaxEntries: 10, TTLSeconds: 60})
		require.NoError(t, err)
		_, ok := b.(*InMemoryCache)
		assert.True(t, ok)
	})

	t.Run("disabled redis backend needs no server", func(t *testing.T) {
		b, err := NewBackend(config.CacheConfig{Backend: "redis", Enabled: false})
		require.NoError(t, err)
		assert.False(t, b.IsEnabled())
		require.NoError(t, b.CheckConnection(context.Background()))
	})

	t.Run("unknown backend is rejected", func(t *testing.T) {
		_, err := NewBackend(config.CacheConfig{Backend: "memcached"})
		require.Error(t, err)
	})
}
