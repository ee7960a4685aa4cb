// internal/records/records.go
package records

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sol-splitter/internal/storage"
)

// Records groups the three persisted collections of one session.
type Records struct {
	History  *History
	Contacts *Contacts
	Presets  *Presets
}

// Option tweaks store construction.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) { o.newID = gen }
}

func buildOptions(opts []Option) options {
	o := options{
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open loads all collections from store. It is meant to be called once at session start.
func Open(ctx context.Context, store storage.Storage, logger *zap.Logger, opts ...Option) (*Records, error) {
	history, err := NewHistory(ctx, store, logger, opts...)
	if err != nil {
		return nil, err
	}
	contacts, err := NewContacts(ctx, store, logger, opts...)
	if err != nil {
		return nil, err
	}
	presets, err := NewPresets(ctx, store, logger, opts...)
	if err != nil {
		return nil, err
	}
	logger.Info("Records loaded",
		zap.Int("history", history.Len()),
		zap.Int("contacts", len(contacts.List())),
		zap.Int("presets", len(presets.List())))
	return &Records{History: history, Contacts: contacts, Presets: presets}, nil
}
