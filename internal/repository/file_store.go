package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps one JSON document per collection under dir.
// Writes go to a temp file and are renamed into place.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

type fileEnvelope struct {
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Data      json.RawMessage `json:"data"`
}

// NewFileStore creates the data directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Load(ctx context.Context, name string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(name)
}

func (s *FileStore) read(name string) (*Snapshot, error) {
	raw, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}

	var env fileEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("corrupt snapshot %s: %w", name, err)
	}
	return &Snapshot{Version: env.Version, Data: env.Data}, nil
}

func (s *FileStore) Replace(ctx context.Context, name string, expected int64, data []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	snap, err := s.read(name)
	switch {
	case err == nil:
		current = snap.Version
	case errors.Is(err, ErrNoSnapshot):
	default:
		return 0, err
	}
	if current != expected {
		return 0, ErrVersionConflict
	}

	env := fileEnvelope{Version: expected + 1, UpdatedAt: time.Now().UTC(), Data: data}
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return 0, err
	}

	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		return 0, err
	}
	return env.Version, nil
}

func (s *FileStore) Close(ctx context.Context) error {
	return nil
}
