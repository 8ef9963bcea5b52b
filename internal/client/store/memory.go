package store

import (
	"context"
	"sync"
)

// MemoryStore keeps the pair in process memory only. It backs --ephemeral
// runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

var _ CredentialStore = (*MemoryStore)(nil)

func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(_ context.Context, access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = access, refresh
	return nil
}

func (m *MemoryStore) Read() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.access, m.access != ""
}

func (m *MemoryStore) Refresh() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refresh, m.refresh != ""
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = "", ""
	return nil
}
