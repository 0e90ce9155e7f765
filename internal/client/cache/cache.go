// Package cache is the durable last-known-good store for reference data
// (projects, element hierarchies, unit types). Entries carry a timestamp but
// no TTL: reference data changes rarely, callers always try a live refresh
// first, and a stale entry beats no entry when offline.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/civilog/civilog-cli/internal/client/kvstore"
)

const (
	KeyProjects  = "kc-cache-projects"
	KeyUnitTypes = "kc-cache-unit-types"
)

// KeyElements returns the cache key for one project's element hierarchy.
func KeyElements(projectID string) string {
	return "kc-cache-elements:" + projectID
}

// Envelope wraps a cached payload with its write timestamp (unix millis).
type Envelope[T any] struct {
	UpdatedAt int64 `json:"updatedAt"`
	Data      T     `json:"data"`
}

// Cache is a typed view over the kvstore.
type Cache struct {
	kv kvstore.Store
}

func New(kv kvstore.Store) *Cache {
	return &Cache{kv: kv}
}

// Get returns the cached payload under key. Absent and corrupt entries are
// both reported as a miss, never as an error.
func Get[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var zero T

	raw, err := c.kv.Get(ctx, key)
	if err != nil || raw == nil {
		return zero, false
	}

	var env Envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, false
	}
	return env.Data, true
}

// Set stores data under key wrapped in a timestamped envelope.
func Set[T any](ctx context.Context, c *Cache, key string, data T) error {
	env := Envelope[T]{UpdatedAt: time.Now().UnixMilli(), Data: data}

	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode cache[%s]: %w", key, err)
	}
	if err := c.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to persist cache[%s]: %w", key, err)
	}
	return nil
}
