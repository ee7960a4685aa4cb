// internal/storage/storage.go
package storage

import (
	"context"
	"errors"
)

// Keys used by the record stores.
const (
	KeyHistory  = "solana-splitter-history"
	KeyContacts = "solana-splitter-contacts"
	KeyPresets  = "solana-splitter-presets"
)

var ErrEmptyKey = errors.New("storage key is empty")

// Storage is a JSON blob store keyed by name. It gives no transactional guarantees.
type Storage interface {
	// Load returns the blob for key; ok is false when nothing is stored.
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	// Save replaces the blob for key.
	Save(ctx context.Context, key string, data []byte) error
}
