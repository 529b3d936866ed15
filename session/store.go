package session

import (
	"context"
	"sync"
)

// Store holds the serialized result of one page session. Writes replace
// the whole value; a reader never observes a partial write.
type Store interface {
	// Load returns the stored value and whether one is present.
	Load(ctx context.Context) (string, bool, error)

	// Save overwrites the stored value.
	Save(ctx context.Context, value string) error

	// Clear removes the value.
	Clear(ctx context.Context) error
}

// MemoryStore is a Store for sessions without a live page.
type MemoryStore struct {
	mu    sync.RWMutex
	value string
	set   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value, m.set, nil
}

func (m *MemoryStore) Save(_ context.Context, value string) error {
	m.mu.Lock()
	m.value, m.set = value, true
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.value, m.set = "", false
	m.mu.Unlock()
	return nil
}
