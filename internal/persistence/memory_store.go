package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps sessions for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

// SaveSession stores an encoded copy of rec, so later mutation of the
// live session does not leak into the store.
func (m *MemoryStore) SaveSession(_ context.Context, rec *SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session %q: %w", rec.Name, err)
	}
	m.mu.Lock()
	m.sessions[rec.Name] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) LoadSession(_ context.Context, name string) (*SessionRecord, error) {
	m.mu.RLock()
	data, ok := m.sessions[name]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session %q: %w", name, err)
	}
	return &rec, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
