package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Lockable is a collection handle that takes part in ordered locking
type Lockable interface {
	sync.Locker
	lockRank() int
}

// Collection is a mutex-guarded handle on one logical collection.
// Load and Replace must be called with the lock held; a read-modify-write
// sequence is atomic only if the lock is held across all of it.
//
// Every Load re-reads the store, so writes made by another process sharing
// it (the seed tool) are seen on the next access. Replace is guarded by the
// version of the last Load or Replace. Load decodes a fresh copy, so callers
// may mutate freely.
type Collection[D any] struct {
	mu    sync.Mutex
	name  string
	rank  int
	store Store
	empty func() D

	loaded  bool
	version int64
	data    []byte
}

func newCollection[D any](store Store, name string, rank int, empty func() D) *Collection[D] {
	return &Collection[D]{name: name, rank: rank, store: store, empty: empty}
}

func (c *Collection[D]) Lock()         { c.mu.Lock() }
func (c *Collection[D]) Unlock()       { c.mu.Unlock() }
func (c *Collection[D]) lockRank() int { return c.rank }

// Name returns the logical collection name
func (c *Collection[D]) Name() string { return c.name }

func (c *Collection[D]) ensureLoaded(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	return c.refresh(ctx)
}

func (c *Collection[D]) refresh(ctx context.Context) error {
	snap, err := c.store.Load(ctx, c.name)
	switch {
	case errors.Is(err, ErrNoSnapshot):
		c.version, c.data = 0, nil
	case err != nil:
		return fmt.Errorf("failed to load %s: %w", c.name, err)
	default:
		c.version, c.data = snap.Version, snap.Data
	}
	c.loaded = true
	return nil
}

// Load returns a decoded copy of the current snapshot
func (c *Collection[D]) Load(ctx context.Context) (D, error) {
	if err := c.refresh(ctx); err != nil {
		var zero D
		return zero, err
	}
	if c.data == nil {
		return c.empty(), nil
	}

	var d D
	if err := json.Unmarshal(c.data, &d); err != nil {
		var zero D
		return zero, fmt.Errorf("failed to decode %s: %w", c.name, err)
	}
	return d, nil
}

// Exists reports whether the collection was ever persisted
func (c *Collection[D]) Exists(ctx context.Context) (bool, error) {
	if err := c.refresh(ctx); err != nil {
		return false, err
	}
	return c.version > 0, nil
}

// Replace persists d as the whole new snapshot
func (c *Collection[D]) Replace(ctx context.Context, d D) error {
	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.name, err)
	}

	version, err := c.store.Replace(ctx, c.name, c.version, data)
	if err != nil {
		if errors.Is(err, ErrVersionConflict) {
			// someone else wrote; reload on next access
			c.loaded = false
		}
		return fmt.Errorf("failed to replace %s: %w", c.name, err)
	}
	c.version, c.data = version, data
	return nil
}

// Read takes the lock, loads and releases
func (c *Collection[D]) Read(ctx context.Context) (D, error) {
	c.Lock()
	defer c.Unlock()
	return c.Load(ctx)
}

// Acquire locks the given collections in global rank order and returns
// the function that releases them in reverse order.
func Acquire(cols ...Lockable) (release func()) {
	sorted := append([]Lockable(nil), cols...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].lockRank() < sorted[j].lockRank()
	})
	for _, c := range sorted {
		c.Lock()
	}
	return func() {
		for i := len(sorted) - 1; i >= 0; i-- {
			sorted[i].Unlock()
		}
	}
}
