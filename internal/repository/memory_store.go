package repository

import (
	"context"
	"sync"
)

// MemoryStore keeps snapshots in process memory. Used by tests and the
// "memory" backend.
type MemoryStore struct {
	mu        sync.Mutex
	snapshots map[string]Snapshot
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]Snapshot)}
}

func (s *MemoryStore) Load(ctx context.Context, name string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[name]
	if !ok {
		return nil, ErrNoSnapshot
	}
	return &Snapshot{Version: snap.Version, Data: append([]byte(nil), snap.Data...)}, nil
}

func (s *MemoryStore) Replace(ctx context.Context, name string, expected int64, data []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshots[name].Version != expected {
		return 0, ErrVersionConflict
	}
	next := expected + 1
	s.snapshots[name] = Snapshot{Version: next, Data: append([]byte(nil), data...)}
	return next, nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
