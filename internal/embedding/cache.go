package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// DefaultCacheSize bounds the in-memory cache when no size is configured.
const DefaultCacheSize = 512

// SharedCache is an optional second cache tier shared between processes.
type SharedCache interface {
	Get(ctx context.Context, key string) (Vector, bool, error)
	Set(ctx context.Context, key string, v Vector) error
}

// CacheStats reports cache activity.
type CacheStats struct {
	Entries int `json:"entries"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}

// Cache wraps an Embedder with a bounded in-memory map keyed by a content
// fingerprint. When full, the oldest inserted entry is evicted. Reads do not
// refresh an entry's position.
type Cache struct {
	inner  Embedder
	shared SharedCache
	max    int

	mu     sync.Mutex
	items  map[string]Vector
	order  []string
	hits   int
	misses int
}

// NewCache wraps inner. maxEntries <= 0 means DefaultCacheSize. shared may be nil.
func NewCache(inner Embedder, maxEntries int, shared SharedCache) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheSize
	}
	return &Cache{
		inner:  inner,
		shared: shared,
		max:    maxEntries,
		items:  make(map[string]Vector),
	}
}

// Fingerprint is the cache key for text.
func Fingerprint(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:16])
}

func (c *Cache) Embed(ctx context.Context, text string) (Vector, error) {
	key := Fingerprint(text)

	c.mu.Lock()
	if v, ok := c.items[key]; ok {
		c.hits++
		c.mu.Unlock()
		return v, nil
	}
	c.misses++
	c.mu.Unlock()

	if c.shared != nil {
		if v, ok, err := c.shared.Get(ctx, key); err == nil && ok {
			c.put(key, v)
			return v, nil
		}
	}

	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.put(key, v)
	if c.shared != nil {
		_ = c.shared.Set(ctx, key, v)
	}
	return v, nil
}

func (c *Cache) Dims() int { return c.inner.Dims() }

func (c *Cache) put(key string, v Vector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; ok {
		return
	}
	c.items[key] = v
	c.order = append(c.order, key)
	for len(c.order) > c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: len(c.items), Hits: c.hits, Misses: c.misses}
}

// Reset empties the cache and its counters.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]Vector)
	c.order = nil
	c.hits, c.misses = 0, 0
}
