// internal/records/presets_yaml.go
package records

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/rovshanmuradov/sol-splitter/internal/storage/models"
)

// PresetFile is the on-disk YAML layout for sharing presets.
type PresetFile struct {
	Presets []models.Preset `yaml:"presets"`
}

// ExportYAML writes every preset to w.
func (p *Presets) ExportYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(PresetFile{Presets: p.List()}); err != nil {
		return fmt.Errorf("failed to encode presets: %w", err)
	}
	return enc.Close()
}

// ImportYAML saves every preset found in r under a fresh id. Stored ids in the file are ignored.
func (p *Presets) ImportYAML(ctx context.Context, r io.Reader) ([]models.Preset, error) {
	var file PresetFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(file.Presets) == 0 {
		return nil, fmt.Errorf("no presets found in file")
	}

	imported := make([]models.Preset, 0, len(file.Presets))
	for _, preset := range file.Presets {
		saved, err := p.Save(ctx, preset.Name, preset.Recipients)
		if err != nil {
			return imported, fmt.Errorf("preset %q: %w", preset.Name, err)
		}
		imported = append(imported, saved)
	}
	return imported, nil
}
