package port

import (
	"context"
	"time"
)

// Cache defines the minimal contract for a key-value cache used by the application.
// Implementations should be concurrency-safe.
// All methods must be context-aware to allow caller-driven timeouts/cancellation.
// Values are plain strings; callers own their encoding.
type Cache interface {
	// Get fetches the value for key. A missing key returns ("", ErrMiss);
	// other errors are transport or server failures.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key with the provided TTL. Zero or negative TTL means
	// no expiration (persist until evicted).
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Close releases any resources held by the cache.
	Close() error
}

// ErrMiss signals a cache miss.
var ErrMiss = errMiss{}

type errMiss struct{}

func (e errMiss) Error() string { return "cache: miss" }
