// internal/records/contacts.go
package records

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sol-splitter/internal/storage"
	"github.com/rovshanmuradov/sol-splitter/internal/storage/models"
	"github.com/rovshanmuradov/sol-splitter/internal/types"
	"github.com/rovshanmuradov/sol-splitter/internal/validation"
)

const maxSuggestionDistance = 3

// Contacts is the address book.
type Contacts struct {
	col    *collection[models.Contact]
	opts   options
	logger *zap.Logger
}

// ContactUpdate replaces the non-nil fields of a contact.
type ContactUpdate struct {
	Name    *string
	Address *string
}

// NotFoundError carries close name matches for a failed lookup.
type NotFoundError struct {
	Query       string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("no contact named %q", e.Query)
	}
	return fmt.Sprintf("no contact named %q, did you mean: %s?", e.Query, strings.Join(e.Suggestions, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewContacts(ctx context.Context, store storage.Storage, logger *zap.Logger, opts ...Option) (*Contacts, error) {
	logger = logger.Named("contacts")
	c := &Contacts{
		col:    newCollection[models.Contact](storage.KeyContacts, store, logger),
		opts:   buildOptions(opts),
		logger: logger,
	}
	if err := c.col.load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func validateContact(name, address string) error {
	if strings.TrimSpace(name) == "" {
		return types.NewValidationError("Name is required")
	}
	if !validation.IsValidAddress(address) {
		return types.NewValidationError("Invalid Solana address")
	}
	return nil
}

func (c *Contacts) Add(ctx context.Context, name, address string) (models.Contact, error) {
	name, address = strings.TrimSpace(name), strings.TrimSpace(address)
	if err := validateContact(name, address); err != nil {
		return models.Contact{}, err
	}
	contact := models.Contact{ID: c.opts.newID(), Name: name, Address: address}
	err := c.col.update(ctx, func(items []models.Contact) ([]models.Contact, error) {
		return append(items, contact), nil
	})
	if err != nil {
		return models.Contact{}, err
	}
	c.logger.Info("Contact added", zap.String("id", contact.ID), zap.String("name", contact.Name))
	return contact, nil
}

// Update replaces fields of the contact with the given id. No previous values are kept.
func (c *Contacts) Update(ctx context.Context, id string, upd ContactUpdate) (models.Contact, error) {
	var updated models.Contact
	err := c.col.update(ctx, func(items []models.Contact) ([]models.Contact, error) {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			next := items[i]
			if upd.Name != nil {
				next.Name = strings.TrimSpace(*upd.Name)
			}
			if upd.Address != nil {
				next.Address = strings.TrimSpace(*upd.Address)
			}
			if err := validateContact(next.Name, next.Address); err != nil {
				return nil, err
			}
			items[i] = next
			updated = next
			return items, nil
		}
		return nil, fmt.Errorf("contact %s: %w", id, ErrNotFound)
	})
	if err != nil {
		return models.Contact{}, err
	}
	c.logger.Info("Contact updated", zap.String("id", id))
	return updated, nil
}

func (c *Contacts) Remove(ctx context.Context, id string) error {
	return c.col.update(ctx, func(items []models.Contact) ([]models.Contact, error) {
		for i := range items {
			if items[i].ID == id {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("contact %s: %w", id, ErrNotFound)
	})
}

func (c *Contacts) List() []models.Contact {
	return c.col.snapshot()
}

func (c *Contacts) Get(id string) (models.Contact, bool) {
	for _, ct := range c.col.snapshot() {
		if ct.ID == id {
			return ct, true
		}
	}
	return models.Contact{}, false
}

// FindByName matches case-insensitively. On a miss the error lists the closest names.
func (c *Contacts) FindByName(name string) (models.Contact, error) {
	query := strings.ToLower(strings.TrimSpace(name))
	items := c.col.snapshot()
	for _, ct := range items {
		if strings.ToLower(ct.Name) == query {
			return ct, nil
		}
	}

	type candidate struct {
		name string
		dist int
	}
	var candidates []candidate
	for _, ct := range items {
		d := levenshtein.ComputeDistance(query, strings.ToLower(ct.Name))
		if d <= maxSuggestionDistance {
			candidates = append(candidates, candidate{ct.Name, d})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })

	nf := &NotFoundError{Query: name}
	for _, cand := range candidates {
		nf.Suggestions = append(nf.Suggestions, cand.name)
	}
	return models.Contact{}, nf
}

// Resolve returns ref unchanged when it is a valid address, otherwise the address of the contact named ref.
func (c *Contacts) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if validation.IsValidAddress(ref) {
		return ref, nil
	}
	ct, err := c.FindByName(ref)
	if err != nil {
		return "", err
	}
	return ct.Address, nil
}
