package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines keyboard shortcuts for the progress view.
type KeyMap struct {
	Quit    key.Binding
	Approve key.Binding
	Decline key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "cancel"),
		),
		Approve: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y/enter", "approve"),
		),
		Decline: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n/esc", "decline"),
		),
	}
}
