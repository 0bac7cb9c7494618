package dict

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache remembers dictionary verdicts so repeated plays of the same
// word skip the network. A miss is (_, false, nil).
type Cache interface {
	Get(ctx context.Context, word string) (valid bool, ok bool, err error)
	Put(ctx context.Context, word string, valid bool) error
}

// RedisCache shares verdicts across restarts.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) key(word string) string { return "dict:w:" + strings.ToLower(word) }

func (c *RedisCache) Get(ctx context.Context, word string) (bool, bool, error) {
	val, err := c.rdb.Get(ctx, c.key(word)).Result()
	if err == redis.Nil {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return val == "1", true, nil
}

func (c *RedisCache) Put(ctx context.Context, word string, valid bool) error {
	val := "0"
	if valid {
		val = "1"
	}
	return c.rdb.Set(ctx, c.key(word), val, c.ttl).Err()
}

// MemoryCache is the single-process fallback when no Redis is
// configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	ttl     time.Duration
}

type memEntry struct {
	valid bool
	exp   time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryCache{entries: make(map[string]memEntry), ttl: ttl}
}

func (c *MemoryCache) Get(_ context.Context, word string) (bool, bool, error) {
	key := strings.ToLower(word)
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return false, false, nil
	}
	if time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return false, false, nil
	}
	return e.valid, true, nil
}

func (c *MemoryCache) Put(_ context.Context, word string, valid bool) error {
	c.mu.Lock()
	c.entries[strings.ToLower(word)] = memEntry{valid: valid, exp: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}
