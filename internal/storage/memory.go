// internal/storage/memory.go
package storage

import (
	"context"
	"sync"
)

// MemoryStorage keeps blobs in process memory.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string][]byte)}
}

func (m *MemoryStorage) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[key]
	if !ok {
		return nil, false, nil
	}
	// copy so callers cannot mutate stored state
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (m *MemoryStorage) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return ErrEmptyKey
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.blobs[key] = buf
	m.mu.Unlock()
	return nil
}
