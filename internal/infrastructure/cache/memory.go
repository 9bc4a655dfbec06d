package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cartcompare/backend/internal/domain"
)

// cacheItem represents a single snapshot in the cache with expiration
type cacheItem struct {
	Listings   []domain.Listing
	Expiration time.Time
}

// MemoryCache is a thread-safe in-memory snapshot cache with TTL support
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		data: make(map[string]cacheItem),
	}

	// Start cleanup goroutine to remove expired entries every 10 minutes
	go c.cleanupExpired()

	return c
}

// Get retrieves a snapshot from the cache. The returned slice is a copy so
// callers cannot mutate the cached snapshot.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]domain.Listing, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return nil, domain.ErrCacheMiss
	}

	if time.Now().After(item.Expiration) {
		return nil, domain.ErrCacheMiss
	}

	return append([]domain.Listing(nil), item.Listings...), nil
}

// Set stores a snapshot in the cache with TTL
func (c *MemoryCache) Set(ctx context.Context, key string, listings []domain.Listing, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		Listings:   append([]domain.Listing(nil), listings...),
		Expiration: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a snapshot from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Clear removes all snapshots from the cache
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]cacheItem)
	return nil
}

// Size returns the current number of snapshots in the cache (for debugging/monitoring)
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// cleanupExpired removes expired entries from the cache periodically
func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		now := time.Now()
		for key, item := range c.data {
			if now.After(item.Expiration) {
				delete(c.data, key)
			}
		}
		c.mutex.Unlock()
	}
}
