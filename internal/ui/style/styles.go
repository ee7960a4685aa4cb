package style

import "github.com/charmbracelet/lipgloss"

// Styles are the text styles shared by the CLI output and the progress view.
type Styles struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
	Link    lipgloss.Style
	Active  lipgloss.Style
	Box     lipgloss.Style
}

func DefaultStyles() Styles {
	p := DefaultPalette()
	return Styles{
		Title:   lipgloss.NewStyle().Foreground(p.Primary).Bold(true),
		Success: lipgloss.NewStyle().Foreground(p.Success).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(p.Error).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(p.Warning),
		Muted:   lipgloss.NewStyle().Foreground(p.TextMuted),
		Link:    lipgloss.NewStyle().Foreground(p.Info).Underline(true),
		Active:  lipgloss.NewStyle().Foreground(p.Secondary),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Primary).
			Padding(0, 2),
	}
}
