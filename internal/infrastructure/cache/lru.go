package cache

import (
	"context"
	"time"

	"github.com/georglynx/grocerycompare/internal/domain"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUCache is a size-bounded cache. Every entry shares the same TTL, fixed at construction;
// the ttl passed to Set is ignored.
type LRUCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewLRUCache creates a cache holding at most size entries, each living for ttl
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = 512
	}
	return &LRUCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get retrieves a value from the cache
func (c *LRUCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, ok := c.lru.Get(key)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return value, nil
}

// Set stores a copy of value, evicting the least recently used entry when full
func (c *LRUCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	c.lru.Add(key, stored)
	return nil
}

// Delete removes a value from the cache
func (c *LRUCache) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Exists reports whether key is present without touching its recency
func (c *LRUCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.lru.Peek(key)
	return ok, nil
}

// Size returns the number of live entries
func (c *LRUCache) Size() int {
	return c.lru.Len()
}
