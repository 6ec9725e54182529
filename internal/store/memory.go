package store

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]Record{}}
}

func (m *MemoryStore) Load(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	record.Sessions = append([]Session(nil), record.Sessions...)
	return record, nil
}

func (m *MemoryStore) Upsert(_ context.Context, id string, snapshot Snapshot, session Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record := m.records[id]
	record.ID = id
	record.Strategy = snapshot
	record.Sessions = append(record.Sessions, session)
	m.records[id] = record
	return nil
}
