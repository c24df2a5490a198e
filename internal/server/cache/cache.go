// Package cache holds rendered API responses until the collection changes.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a TTL cache keyed by request.
type Cache struct {
	store *gocache.Cache
}

// New creates a cache whose entries expire after ttl.
func New(ttl, cleanupInterval time.Duration) *Cache {
	return &Cache{store: gocache.New(ttl, cleanupInterval)}
}

// Get retrieves a value from the cache.
func (c *Cache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.store.Set(key, value, gocache.DefaultExpiration)
}

// Clear drops every entry. Called whenever the collection changes.
func (c *Cache) Clear() {
	c.store.Flush()
}

// Stats reports cache occupancy.
type Stats struct {
	ItemCount int `json:"item_count"`
}

// Stats returns current cache statistics.
func (c *Cache) Stats() Stats {
	return Stats{ItemCount: c.store.ItemCount()}
}
