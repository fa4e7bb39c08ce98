package repository

import (
	"context"
	"errors"
)

var (
	// ErrNoSnapshot is returned by Load when a collection was never written
	ErrNoSnapshot = errors.New("snapshot not found")
	// ErrVersionConflict is returned by Replace when the stored version moved
	ErrVersionConflict = errors.New("snapshot version conflict")
)

// Snapshot is the full serialized content of one logical collection
type Snapshot struct {
	Version int64
	Data    []byte
}

// Store persists whole-collection snapshots keyed by collection name.
// Replace succeeds only if the stored version still equals expected
// (0 meaning "no snapshot yet") and returns the new version.
type Store interface {
	Load(ctx context.Context, name string) (*Snapshot, error)
	Replace(ctx context.Context, name string, expected int64, data []byte) (int64, error)
	Close(ctx context.Context) error
}
