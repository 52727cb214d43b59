// Package cache provides caching utilities for project metadata.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// MetadataCache provides thread-safe LRU caching for decoded data
// dictionaries, keyed by a project identity hash.
type MetadataCache struct {
	cache *lru.Cache[string, []map[string]any]
}

// NewMetadataCache creates a new LRU cache with the specified maximum number
// of projects.
func NewMetadataCache(maxItems int) (*MetadataCache, error) {
	c, err := lru.New[string, []map[string]any](maxItems)
	if err != nil {
		return nil, err
	}
	return &MetadataCache{cache: c}, nil
}

// Get retrieves a dictionary from the cache by its project key.
// Returns the dictionary and true if found, nil and false otherwise.
func (c *MetadataCache) Get(projectKey string) ([]map[string]any, bool) {
	return c.cache.Get(projectKey)
}

// Put adds or updates a dictionary in the cache.
func (c *MetadataCache) Put(projectKey string, metadata []map[string]any) {
	c.cache.Add(projectKey, metadata)
}

// Drop removes a project's dictionary, forcing the next read to refetch.
func (c *MetadataCache) Drop(projectKey string) {
	c.cache.Remove(projectKey)
}

// Len returns the current number of cached projects.
func (c *MetadataCache) Len() int {
	return c.cache.Len()
}
