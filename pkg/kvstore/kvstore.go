// Package kvstore defines the key-value storage abstraction the shield
// integration layer depends on: challenge tickets, blocked-IP entries, and
// memoized bot scores all live behind this interface. The decision core in
// pkg/shield never touches it.
//
// Memory is the in-process implementation used in tests and single-node
// deployments; production deployments swap in a distributed cache behind the
// same interface without touching decision logic.
package kvstore

import (
	"sync"
	"time"
)

// Store is a minimal TTL key-value store.
type Store interface {
	// Get returns the value for key and whether it exists and is unexpired.
	Get(key string) (string, bool)

	// Set stores a value. ttl <= 0 means no expiry.
	Set(key, value string, ttl time.Duration)

	// Delete removes a key. Deleting an absent key is a no-op.
	Delete(key string)
}

// entry pairs a value with its expiry; a zero expiry never lapses.
type entry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process Store. Expiry is lazy on read; call Prune from a
// background ticker if the key space grows unbounded. Safe for concurrent
// use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry

	now func() time.Time // test hook
}

// Compile-time interface check.
var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the live value for key.
func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return "", false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		m.Delete(key)
		return "", false
	}
	return e.value, true
}

// Set stores value under key for ttl; ttl <= 0 stores without expiry.
func (m *Memory) Set(key, value string, ttl time.Duration) {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
}

// Delete removes key.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Prune removes expired entries eagerly.
func (m *Memory) Prune() {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(m.entries, key)
		}
	}
}
