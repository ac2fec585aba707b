// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

// memoryEntry is a node in the LRU doubly-linked list.
type memoryEntry struct {
	key       string
	value     []byte
	prev      *memoryEntry
	next      *memoryEntry
	expiresAt time.Time
}

// MemoryBackend is a thread-safe in-process Backend with LRU eviction and
// per-entry TTL. It is the default backend for single-node deployments and
// tests; multi-node deployments use the redis backend so invalidation is
// visible across replicas.
//
// The implementation uses a doubly-linked list for ordering and a hashmap
// for lookups, giving O(1) Get, Set, and eviction.
type MemoryBackend struct {
	mu sync.Mutex

	// capacity is the maximum number of entries
	capacity int

	// items maps keys to linked list nodes for O(1) lookup
	items map[string]*memoryEntry

	// head and tail are sentinel nodes for the doubly-linked list
	// head.next is the most recently used, tail.prev is the least recently used
	head *memoryEntry
	tail *memoryEntry
}

// NewMemoryBackend creates a memory backend bounded to capacity entries.
func NewMemoryBackend(capacity int) *MemoryBackend {
	if capacity <= 0 {
		capacity = 10000 // Default capacity
	}

	b := &MemoryBackend{
		capacity: capacity,
		items:    make(map[string]*memoryEntry, capacity),
		head:     &memoryEntry{},
		tail:     &memoryEntry{},
	}

	// Initialize linked list sentinels
	b.head.next = b.tail
	b.tail.prev = b.head

	return b
}

// Get retrieves a value. Expired entries are removed lazily and reported
// as misses. Found entries move to the front (most recently used).
func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, exists := b.items[key]
	if !exists {
		return nil, false, nil
	}

	if time.Now().After(entry.expiresAt) {
		b.removeEntry(entry)
		return nil, false, nil
	}

	b.moveToFront(entry)
	return entry.value, true, nil
}

// Set adds or updates an entry. If the backend is at capacity, the least
// recently used entry is evicted.
func (b *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiresAt := time.Now().Add(ttl)

	if entry, exists := b.items[key]; exists {
		entry.value = value
		entry.expiresAt = expiresAt
		b.moveToFront(entry)
		return nil
	}

	entry := &memoryEntry{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	}
	b.addToFront(entry)
	b.items[key] = entry

	for len(b.items) > b.capacity {
		b.evictOldest()
	}

	return nil
}

// Scan returns all live keys matching a redis-style glob pattern.
// Keys never contain "/", so path.Match gives redis-compatible semantics
// for the "*", "?" and character-class forms used here.
func (b *MemoryBackend) Scan(_ context.Context, pattern string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	var keys []string
	for key, entry := range b.items {
		if now.After(entry.expiresAt) {
			continue
		}
		ok, err := path.Match(pattern, key)
		if err != nil {
			return nil, err
		}
		if ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Delete removes the given keys. Missing keys are ignored.
func (b *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, key := range keys {
		if entry, exists := b.items[key]; exists {
			b.removeEntry(entry)
		}
	}
	return nil
}

// Ping always succeeds for the in-process backend.
func (b *MemoryBackend) Ping(_ context.Context) error {
	return nil
}

// Close clears the backend.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = make(map[string]*memoryEntry, b.capacity)
	b.head.next = b.tail
	b.tail.prev = b.head
	return nil
}

// Len returns the current number of entries, including not-yet-collected
// expired ones.
func (b *MemoryBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Internal methods (must be called with lock held)

// addToFront adds an entry to the front of the list (most recently used).
func (b *MemoryBackend) addToFront(entry *memoryEntry) {
	entry.prev = b.head
	entry.next = b.head.next
	b.head.next.prev = entry
	b.head.next = entry
}

// moveToFront moves an existing entry to the front of the list.
func (b *MemoryBackend) moveToFront(entry *memoryEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	b.addToFront(entry)
}

// removeEntry removes an entry from both the list and the map.
func (b *MemoryBackend) removeEntry(entry *memoryEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(b.items, entry.key)
}

// evictOldest removes the least recently used entry.
func (b *MemoryBackend) evictOldest() {
	oldest := b.tail.prev
	if oldest == b.head {
		return // List is empty
	}
	b.removeEntry(oldest)
}

var _ Backend = (*MemoryBackend)(nil)
