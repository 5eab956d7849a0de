// internal/vision/cache.go
package vision

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores verification verdicts keyed by image fingerprint. A miss is
// reported through the ok return, never through an error.
type Cache interface {
	Get(ctx context.Context, key string) (verdict bool, ok bool, err error)
	Set(ctx context.Context, key string, verdict bool, ttl time.Duration) error
}

const (
	cacheValueYes = "1"
	cacheValueNo  = "0"
)

// RedisCache persists verdicts in Redis so repeated runs skip the
// classifier for images already seen.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "vision:verify:"
	}
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (bool, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err == redis.Nil {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return val == cacheValueYes, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, verdict bool, ttl time.Duration) error {
	val := cacheValueNo
	if verdict {
		val = cacheValueYes
	}
	return c.client.Set(ctx, c.prefix+key, val, ttl).Err()
}

// MemoryCache is the in-process fallback used when Redis is disabled or
// unreachable. Entries expire lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	verdict   bool
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (bool, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return false, false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return false, false, nil
	}
	return entry.verdict, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, verdict bool, ttl time.Duration) error {
	entry := memoryEntry{verdict: verdict}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}
