// Package cache provides the result cache for packing runs. The engine is
// deterministic for a fixed seed, so a serialized result can be keyed by a
// hash of the request and reused.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Cache defines the interface for caching serialized pack results with TTL.
type Cache interface {
	// Get retrieves a value from the cache by key.
	// Returns the value and true if found and not expired, otherwise nil and false.
	Get(key string) ([]byte, bool)

	// Set stores a value in the cache with the given key and TTL.
	// TTL of 0 means use the default cache TTL.
	Set(key string, value []byte, ttl time.Duration)

	// Delete removes a value from the cache.
	Delete(key string)

	// Clear removes all values from the cache.
	Clear()

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats represents cache statistics.
type Stats struct {
	Hits      uint64 // Total cache hits
	Misses    uint64 // Total cache misses
	KeysAdded uint64 // Total keys added
	Evictions uint64 // Total evictions
	Size      int64  // Approximate size in bytes
	Items     int64  // Current number of items
}

// RequestKey builds a deterministic cache key from any JSON-serializable
// request. Marshaling a struct (not a map) keeps field order stable.
func RequestKey(prefix string, req any) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("cache: marshal request for key: %w", err)
	}
	return fmt.Sprintf("%s:%016x", prefix, xxhash.Sum64(data)), nil
}
