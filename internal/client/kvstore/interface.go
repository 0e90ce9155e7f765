// Package kvstore provides the durable key-value store backing the client's
// local state: the pending-report queue, the reference-data cache, and the
// auth tokens. Values are opaque byte slices; higher layers serialize whole
// collections as single JSON blobs and rewrite them atomically per key.
package kvstore

import "context"

// Store describes the durable key-value operations the client needs.
type Store interface {
	// Get returns the value stored under key, or (nil, nil) if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// SetMulti stores all pairs atomically: either all are written or none.
	SetMulti(ctx context.Context, pairs map[string][]byte) error

	// DeleteMulti removes all keys atomically.
	DeleteMulti(ctx context.Context, keys []string) error

	// Close releases the underlying storage.
	Close() error
}
