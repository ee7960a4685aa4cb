// internal/records/presets.go
package records

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/sol-splitter/internal/storage"
	"github.com/rovshanmuradov/sol-splitter/internal/storage/models"
	"github.com/rovshanmuradov/sol-splitter/internal/types"
	"github.com/rovshanmuradov/sol-splitter/internal/validation"
)

// Presets holds saved recipient lists. Saved presets are read-only apart from removal.
type Presets struct {
	col    *collection[models.Preset]
	opts   options
	logger *zap.Logger
}

func NewPresets(ctx context.Context, store storage.Storage, logger *zap.Logger, opts ...Option) (*Presets, error) {
	logger = logger.Named("presets")
	p := &Presets{
		col:    newCollection[models.Preset](storage.KeyPresets, store, logger),
		opts:   buildOptions(opts),
		logger: logger,
	}
	if err := p.col.load(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Save snapshots recipients under name.
func (p *Presets) Save(ctx context.Context, name string, recipients []types.Recipient) (models.Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Preset{}, types.NewValidationError("Preset name is required")
	}
	if !validation.ValidateRecipientCount(len(recipients)) {
		return models.Preset{}, types.NewValidationError(fmt.Sprintf("You must have between %d and %d recipients",
			types.MinRecipients, types.MaxRecipients))
	}
	preset := models.Preset{
		ID:         p.opts.newID(),
		Name:       name,
		Recipients: types.CloneRecipients(recipients),
	}
	err := p.col.update(ctx, func(items []models.Preset) ([]models.Preset, error) {
		return append(items, preset), nil
	})
	if err != nil {
		return models.Preset{}, err
	}
	p.logger.Info("Preset saved",
		zap.String("id", preset.ID),
		zap.String("name", preset.Name),
		zap.Int("recipients", len(preset.Recipients)))
	return clonePreset(preset), nil
}

// Load returns a copy of the preset's recipients, ready to be edited.
func (p *Presets) Load(id string) ([]types.Recipient, error) {
	for _, preset := range p.col.snapshot() {
		if preset.ID == id {
			return types.CloneRecipients(preset.Recipients), nil
		}
	}
	return nil, fmt.Errorf("preset %s: %w", id, ErrNotFound)
}

// LoadByName is Load keyed on a case-insensitive name.
func (p *Presets) LoadByName(name string) ([]types.Recipient, error) {
	query := strings.ToLower(strings.TrimSpace(name))
	for _, preset := range p.col.snapshot() {
		if strings.ToLower(preset.Name) == query {
			return types.CloneRecipients(preset.Recipients), nil
		}
	}
	return nil, fmt.Errorf("preset %q: %w", name, ErrNotFound)
}

func (p *Presets) Remove(ctx context.Context, id string) error {
	return p.col.update(ctx, func(items []models.Preset) ([]models.Preset, error) {
		for i := range items {
			if items[i].ID == id {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("preset %s: %w", id, ErrNotFound)
	})
}

func (p *Presets) List() []models.Preset {
	items := p.col.snapshot()
	for i := range items {
		items[i] = clonePreset(items[i])
	}
	return items
}

func clonePreset(p models.Preset) models.Preset {
	p.Recipients = types.CloneRecipients(p.Recipients)
	return p
}
