package repository

import (
	"context"
	"sync"
	"time"
)

// MemorySnapshotStore is used when no Postgres URL is configured. Snapshots
// live as long as the process.
type MemorySnapshotStore struct {
	mu    sync.RWMutex
	items map[string]Snapshot
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{items: make(map[string]Snapshot)}
}

func (m *MemorySnapshotStore) SaveSnapshot(_ context.Context, key string, payload []byte) error {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	m.mu.Lock()
	m.items[key] = Snapshot{Key: key, Payload: cp, CapturedAt: time.Now().UTC()}
	m.mu.Unlock()
	return nil
}

func (m *MemorySnapshotStore) LoadSnapshot(_ context.Context, key string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.items[key]
	if !ok {
		return Snapshot{}, ErrSnapshotNotFound
	}
	return snap, nil
}
