// Package badger provides a BadgerHold-backed TTL response cache.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/stockperf/internal/common"
	"github.com/bobmcallan/stockperf/internal/interfaces"
)

// CachedResponse is one stored provider payload.
type CachedResponse struct {
	Key      string `badgerhold:"key"`
	Provider string
	Payload  []byte
	StoredAt time.Time
}

// Cache is a persistent response cache with a fixed TTL. The server uses it
// so watchlist refreshes and API calls share provider payloads across runs.
type Cache struct {
	db     *badgerhold.Store
	ttl    time.Duration
	logger *common.Logger
}

// NewCache opens a BadgerHold-backed cache at the given directory path.
func NewCache(logger *common.Logger, path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	logger.Debug().Str("path", path).Dur("ttl", ttl).Msg("Response cache opened")

	return &Cache{
		db:     db,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func entryKey(provider, key string) string {
	return provider + "|" + key
}

// Get returns a cached payload if present and within TTL. Expired entries
// are removed on read.
func (c *Cache) Get(_ context.Context, provider, key string) ([]byte, bool) {
	k := entryKey(provider, key)

	var entry CachedResponse
	if err := c.db.Get(k, &entry); err != nil {
		if !errors.Is(err, badgerhold.ErrNotFound) {
			c.logger.Warn().Err(err).Str("key", k).Msg("Cache read failed")
		}
		return nil, false
	}

	if time.Since(entry.StoredAt) > c.ttl {
		if err := c.db.Delete(k, CachedResponse{}); err != nil {
			c.logger.Warn().Err(err).Str("key", k).Msg("Failed to evict expired entry")
		}
		return nil, false
	}

	return entry.Payload, true
}

// Set stores a payload, replacing any existing entry
func (c *Cache) Set(_ context.Context, provider, key string, payload []byte) error {
	entry := CachedResponse{
		Key:      entryKey(provider, key),
		Provider: provider,
		Payload:  payload,
		StoredAt: time.Now(),
	}

	if err := c.db.Upsert(entry.Key, entry); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

var _ interfaces.ResponseCache = (*Cache)(nil)
