// Package cache provides the optional response cache for tool calls.
//
// Payloads are the backend's raw JSON bytes; the cache never interprets
// them. Store failures are never surfaced: a failing store behaves as an
// always-miss, always-no-op store and the forwarder is called directly.
package cache

import (
	"context"
	"time"
)

// Store abstracts the cache storage backend. Implementations must be
// safe for concurrent use and must provide atomic per-key get/set.
type Store interface {
	// Get returns the payload for key, or false on miss. Expired or
	// unreadable entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores payload under key, overwriting any existing entry.
	// Failures are swallowed.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration)
	// Delete removes key if present.
	Delete(ctx context.Context, key string)
}
