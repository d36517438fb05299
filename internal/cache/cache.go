// Package cache provides the TTL key-value and set store used by the
// matching engine for match records, notification dedup, and advisory
// locks. The store is an optimization, not a source of truth: callers are
// expected to tolerate unavailability and recompute on demand.
package cache

import (
	"context"
	"time"
)

// Cache is the narrow contract the matching engine depends on.
// The production implementation is Redis; tests use the in-memory Store.
type Cache interface {
	// Get returns the value for key, or nil if the key is absent/expired
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given ttl
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetNX stores value under key only if the key is absent.
	// Returns true if the value was stored. This is the atomicity
	// primitive behind notification dedup and per-id locks.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// SetAdd adds members to the set at key and refreshes its ttl
	SetAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error

	// SetMembers returns all members of the set at key, nil if absent
	SetMembers(ctx context.Context, key string) ([]string, error)

	// SetRemove removes members from the set at key
	SetRemove(ctx context.Context, key string, members ...string) error
}
