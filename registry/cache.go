package registry

import (
	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of registries a Cache keeps when no size is
// given.
const DefaultCacheSize = 256

// Cache keeps the registries of recently encoded payloads, keyed by a caller
// chosen key such as coil.Digest of the payload. Least recently used entries
// are evicted first. A Cache is safe for concurrent use.
type Cache struct {
	lru *lru.Cache[string, *Registry]
}

// NewCache creates a cache holding up to size registries.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, *Registry](size)
	if err != nil {
		return nil, errors.Wrap(err, "create registry cache")
	}

	return &Cache{lru: c}, nil
}

// Put stores a copy of reg under key and reports whether an entry was evicted.
func (c *Cache) Put(key string, reg *Registry) bool {
	return c.lru.Add(key, reg.Clone())
}

// Get returns a copy of the registry stored under key.
func (c *Cache) Get(key string) (*Registry, bool) {
	reg, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}

	return reg.Clone(), true
}

// Remove drops key from the cache.
func (c *Cache) Remove(key string) bool {
	return c.lru.Remove(key)
}

// Len returns the number of cached registries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge removes every entry.
func (c *Cache) Purge() {
	c.lru.Purge()
}
