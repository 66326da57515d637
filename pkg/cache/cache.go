// Package cache stores computed layouts so unchanged diagrams are not laid
// out twice.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry under a directory, used by the CLI
//   - [RedisCache]: a shared cache for the HTTP server
//   - [NullCache]: never stores anything, for --no-cache and tests
//
// Keys come from a [Keyer], which hashes the diagram and every option that
// changes the output:
//
//	key := keyer.LayoutKey(cache.Hash(input), cache.LayoutKeyOpts{Rankdir: "LR"})
//	if data, ok, _ := c.Get(ctx, key); ok {
//	    // reuse data
//	}
package cache

import (
	"context"
	"time"
)

// Entry lifetimes.
const (
	TTLLayout = 7 * 24 * time.Hour
	TTLRender = 30 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the stored value and true, or false on a miss. Expired
	// entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}
