package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asy251189/HarmonyGuard/pkg/observability/metrics"
)

// InMemoryCache is the default backend: a bounded LRU map with per-entry
// expiry. Safe for concurrent use.
type InMemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front = most recently used
	maxEntries int
	ttl        time.Duration
	enabled    bool

	hitCount  int64
	missCount int64
}

type memoryEntry struct {
	key       string
	entry     *Entry
	expiresAt time.Time
}

// InMemoryCacheOptions configures the in-memory backend.
type InMemoryCacheOptions struct {
	Enabled    bool
	MaxEntries int
	TTLSeconds int
}

// NewInMemoryCache initializes the in-memory backend.
func NewInMemoryCache(options InMemoryCacheOptions) *InMemoryCache {
	return &InMemoryCache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: options.MaxEntries,
		ttl:        time.Duration(options.TTLSeconds) * time.Second,
		enabled:    options.Enabled,
	}
}

func (c *InMemoryCache) IsEnabled() bool { return c.enabled }

func (c *InMemoryCache) CheckConnection(ctx context.Context) error { return nil }

func (c *InMemoryCache) Get(ctx context.Context, key string) (*Entry, bool, error) {
	if !c.enabled {
		return nil, false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		atomic.AddInt64(&c.missCount, 1)
		metrics.RecordCacheOperation("memory", "miss")
		return nil, false, nil
	}
	me := elem.Value.(*memoryEntry)
	if c.ttl > 0 && time.Now().After(me.expiresAt) {
		c.order.Remove(elem)
		delete(c.entries, key)
		atomic.AddInt64(&c.missCount, 1)
		metrics.RecordCacheOperation("memory", "miss")
		return nil, false, nil
	}

	c.order.MoveToFront(elem)
	atomic.AddInt64(&c.hitCount, 1)
	metrics.RecordCacheOperation("memory", "hit")
	return me.entry, true, nil
}

func (c *InMemoryCache) Set(ctx context.Context, key string, entry *Entry) error {
	if !c.enabled {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		me := elem.Value.(*memoryEntry)
		me.entry = entry
		me.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return nil
	}

	c.entries[key] = c.order.PushFront(&memoryEntry{
		key:       key,
		entry:     entry,
		expiresAt: time.Now().Add(c.ttl),
	})

	for c.maxEntries > 0 && c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*memoryEntry).key)
		metrics.RecordCacheOperation("memory", "evict")
	}
	return nil
}

func (c *InMemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	return nil
}

func (c *InMemoryCache) GetStats() Stats {
	c.mu.Lock()
	size := c.order.Len()
	c.mu.Unlock()

	hits := atomic.LoadInt64(&c.hitCount)
	misses := atomic.LoadInt64(&c.missCount)
	return Stats{
		TotalEntries: size,
		HitCount:     hits,
		MissCount:    misses,
		HitRatio:     hitRatio(hits, misses),
	}
}
