// internal/records/collection.go
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/sol-splitter/internal/storage"
)

// ErrNotFound is returned when an id (or name) has no matching entry.
var ErrNotFound = errors.New("record not found")

// collection is a JSON-array-backed list with read-modify-write persistence.
// It assumes a single writer; external changes to the store are only seen on the next load.
type collection[T any] struct {
	mu     sync.RWMutex
	key    string
	store  storage.Storage
	items  []T
	logger *zap.Logger
}

func newCollection[T any](key string, store storage.Storage, logger *zap.Logger) *collection[T] {
	return &collection[T]{key: key, store: store, logger: logger}
}

// load replaces the in-memory list with the stored one. A malformed blob is logged and treated as empty.
func (c *collection[T]) load(ctx context.Context) error {
	data, ok, err := c.store.Load(ctx, c.key)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", c.key, err)
	}

	var items []T
	if ok && len(data) > 0 {
		if err := json.Unmarshal(data, &items); err != nil {
			c.logger.Warn("Stored blob is malformed, starting empty",
				zap.String("key", c.key),
				zap.Error(err))
			items = nil
		}
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}

func (c *collection[T]) snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// update applies fn to a copy of the list, persists the result and only then swaps it in.
func (c *collection[T]) update(ctx context.Context, fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := make([]T, len(c.items))
	copy(current, c.items)

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		next = []T{}
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.key, err)
	}
	if err := c.store.Save(ctx, c.key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", c.key, err)
	}
	c.items = next
	return nil
}
