// Package storage provides response caches for provider clients
package storage

import (
	"context"
	"sync"

	"github.com/bobmcallan/stockperf/internal/interfaces"
)

// MemoryCache is a run-scoped response cache. It keeps every entry for the
// lifetime of the process; the CLI uses it so a portfolio run never fetches
// the same provider payload twice.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryCache creates an empty in-memory response cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string][]byte),
	}
}

func cacheKey(provider, key string) string {
	return provider + "|" + key
}

// Get returns a cached payload, if present
func (c *MemoryCache) Get(_ context.Context, provider, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	payload, ok := c.entries[cacheKey(provider, key)]
	return payload, ok
}

// Set stores a payload
func (c *MemoryCache) Set(_ context.Context, provider, key string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf := make([]byte, len(payload))
	copy(buf, payload)
	c.entries[cacheKey(provider, key)] = buf
	return nil
}

// Close releases the cache
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string][]byte)
	return nil
}

var _ interfaces.ResponseCache = (*MemoryCache)(nil)
