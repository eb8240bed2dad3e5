package state

import (
	"context"
	"sync"
	"time"
)

type memoryEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// MemoryStore is an in-process Store for development and tests.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	entries map[int64]memoryEntry[T]
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore constructs a MemoryStore. A zero ttl keeps entries forever.
func NewMemoryStore[T any](ttl time.Duration) *MemoryStore[T] {
	return &MemoryStore[T]{
		entries: make(map[int64]memoryEntry[T]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the stored value or the zero value if absent or expired.
func (m *MemoryStore[T]) Get(_ context.Context, userID int64) (T, error) {
	m.mu.RLock()
	entry, ok := m.entries[userID]
	m.mu.RUnlock()

	var zero T
	if !ok {
		return zero, nil
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, userID)
		m.mu.Unlock()
		return zero, nil
	}
	return entry.value, nil
}

// Set stores the value and refreshes its expiry.
func (m *MemoryStore[T]) Set(_ context.Context, userID int64, value T) error {
	entry := memoryEntry[T]{value: value}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[userID] = entry
	m.mu.Unlock()
	return nil
}

// Clear removes the state of a user.
func (m *MemoryStore[T]) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	delete(m.entries, userID)
	m.mu.Unlock()
	return nil
}

// Len reports how many users currently hold state.
func (m *MemoryStore[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
