package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-memory Cache implementation. It backs tests and serves
// as a degraded fallback when Redis is not configured. Expiry is enforced
// lazily on read.
type Memory struct {
	mu     sync.RWMutex
	values map[string]memoryEntry
	sets   map[string]memorySet

	// FailWrites makes every mutating call return an error. Tests use it
	// to exercise cache-unavailable code paths.
	FailWrites bool
	failErr    error
}

type memoryEntry struct {
	expiresAt time.Time
	value     []byte
}

type memorySet struct {
	expiresAt time.Time
	members   map[string]struct{}
}

// NewMemory creates an in-memory cache
func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]memoryEntry),
		sets:   make(map[string]memorySet),
	}
}

// SetFailure makes all mutating operations fail with err (nil to reset)
func (m *Memory) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailWrites = err != nil
	m.failErr = err
}

func (m *Memory) writeError() error {
	if m.FailWrites {
		return m.failErr
	}
	return nil
}

func expired(at time.Time) bool {
	return !at.IsZero() && time.Now().After(at)
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

// Get returns the value for key, or nil if absent or expired
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.values[key]
	if !ok || expired(entry.expiresAt) {
		return nil, nil
	}
	return entry.value, nil
}

// Set stores value under key with the given ttl
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writeError(); err != nil {
		return err
	}

	m.values[key] = memoryEntry{value: value, expiresAt: expiry(ttl)}
	return nil
}

// SetNX stores value under key only if absent; returns true when stored
func (m *Memory) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writeError(); err != nil {
		return false, err
	}

	if entry, ok := m.values[key]; ok && !expired(entry.expiresAt) {
		return false, nil
	}

	m.values[key] = memoryEntry{value: value, expiresAt: expiry(ttl)}
	return true, nil
}

// Delete removes the given keys
func (m *Memory) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writeError(); err != nil {
		return err
	}

	for _, key := range keys {
		delete(m.values, key)
		delete(m.sets, key)
	}
	return nil
}

// SetAdd adds members to the set at key and refreshes its ttl
func (m *Memory) SetAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writeError(); err != nil {
		return err
	}

	set, ok := m.sets[key]
	if !ok || expired(set.expiresAt) {
		set = memorySet{members: make(map[string]struct{})}
	}
	for _, member := range members {
		set.members[member] = struct{}{}
	}
	set.expiresAt = expiry(ttl)
	m.sets[key] = set
	return nil
}

// SetMembers returns all members of the set at key
func (m *Memory) SetMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.sets[key]
	if !ok || expired(set.expiresAt) {
		return nil, nil
	}

	members := make([]string, 0, len(set.members))
	for member := range set.members {
		members = append(members, member)
	}
	return members, nil
}

// SetRemove removes members from the set at key
func (m *Memory) SetRemove(ctx context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writeError(); err != nil {
		return err
	}

	set, ok := m.sets[key]
	if !ok {
		return nil
	}
	for _, member := range members {
		delete(set.members, member)
	}
	return nil
}
