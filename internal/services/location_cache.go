package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	intconfig "travelbooking/internal/config"

	"github.com/redis/go-redis/v9"
)

// suggestionCache stores city lookups keyed by normalized query.
type suggestionCache interface {
	Get(ctx context.Context, key string) ([]CitySuggestion, bool)
	Set(ctx context.Context, key string, v []CitySuggestion)
}

type memoryEntry struct {
	value   []CitySuggestion
	expires time.Time
}

// MemoryCache is a bounded TTL map used when Redis is not configured.
type MemoryCache struct {
	TTL time.Duration
	Max int

	mu    sync.RWMutex
	items map[string]memoryEntry
}

func NewMemoryCache(ttl time.Duration, max int) *MemoryCache {
	return &MemoryCache{TTL: ttl, Max: max, items: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]CitySuggestion, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || time.Now().After(e.expires) {
		return nil, false
	}
	return e.value, true
}

func (c *MemoryCache) Set(_ context.Context, key string, v []CitySuggestion) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.Max > 0 && len(c.items) >= c.Max {
		for k, e := range c.items {
			if now.After(e.expires) {
				delete(c.items, k)
			}
		}
		// still full: drop an arbitrary entry
		for k := range c.items {
			if len(c.items) < c.Max {
				break
			}
			delete(c.items, k)
		}
	}
	c.items[key] = memoryEntry{value: v, expires: now.Add(c.TTL)}
}

// RedisCache keeps suggestions as JSON strings with a TTL.
type RedisCache struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

func (c RedisCache) Get(ctx context.Context, key string) ([]CitySuggestion, bool) {
	raw, err := c.Client.Get(ctx, c.Prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var out []CitySuggestion
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c RedisCache) Set(ctx context.Context, key string, v []CitySuggestion) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.Client.Set(ctx, c.Prefix+key, raw, c.TTL).Err()
}

var (
	sharedCacheOnce sync.Once
	sharedCache     suggestionCache
)

// defaultSuggestionCache uses the Redis connection when one was opened at startup.
func defaultSuggestionCache() suggestionCache {
	sharedCacheOnce.Do(func() {
		if intconfig.Redis != nil {
			sharedCache = RedisCache{Client: intconfig.Redis, Prefix: "cities:", TTL: 24 * time.Hour}
			return
		}
		sharedCache = NewMemoryCache(6*time.Hour, 1000)
	})
	return sharedCache
}
