// Package styles defines the TUI colour theme and lipgloss styles.
package styles

import "github.com/charmbracelet/lipgloss"

// Theme is the colour palette the styles are built from.
type Theme struct {
	Primary    lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color
}

// DefaultTheme is a dark palette with a cyan accent.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#06B6D4"),
		Foreground: lipgloss.Color("#CDD6F4"),
		Muted:      lipgloss.Color("#6C7086"),
		Error:      lipgloss.Color("#F38BA8"),
		Border:     lipgloss.Color("#45475A"),
	}
}

// Styles holds the rendered lipgloss styles for each part of the
// conversation view.
type Styles struct {
	Title      lipgloss.Style
	Question   lipgloss.Style
	Answer     lipgloss.Style
	Source     lipgloss.Style
	Error      lipgloss.Style
	Help       lipgloss.Style
	InputField lipgloss.Style
}

// DefaultStyles builds styles from the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// NewStyles builds styles from theme; nil means the default theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	base := lipgloss.NewStyle()
	return &Styles{
		Title:    base.Foreground(theme.Primary).Bold(true),
		Question: base.Foreground(theme.Primary),
		Answer:   base.Foreground(theme.Foreground),
		Source:   base.Foreground(theme.Muted),
		Error:    base.Foreground(theme.Error),
		Help:     base.Foreground(theme.Muted),
		InputField: base.
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
	}
}
