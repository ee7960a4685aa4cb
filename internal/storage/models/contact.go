// internal/storage/models/contact.go
package models

import "github.com/rovshanmuradov/sol-splitter/internal/types"

type Contact struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Preset is a saved recipient list. Recipients is a snapshot taken at save time.
type Preset struct {
	ID         string            `json:"id" yaml:"id,omitempty"`
	Name       string            `json:"name" yaml:"name"`
	Recipients []types.Recipient `json:"recipients" yaml:"recipients"`
}
