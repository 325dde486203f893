// Package styles provides the colour palette and lipgloss styles of the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Similarity bands used to colour search scores.
const (
	StrongMatch = 0.75
	FairMatch   = 0.5
)

// fallbackPrefix introduces a fallback warning returned by the broker.
const fallbackPrefix = "Simulated: "

// Theme is the colour palette of the TUI.
type Theme struct {
	// Accent colours for headings and selection.
	Primary   lipgloss.Color
	Secondary lipgloss.Color

	// Text and surface colours.
	Background lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color

	// Outcome colours.
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	// Mode colours, one per backend mix.
	Simulation lipgloss.Color
	Hybrid     lipgloss.Color
	Production lipgloss.Color
}

// DefaultTheme returns the dark palette.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"), // Purple
		Secondary:  lipgloss.Color("#06B6D4"), // Cyan
		Background: lipgloss.Color("#1E1E2E"), // Dark gray
		Foreground: lipgloss.Color("#CDD6F4"), // Light gray
		Muted:      lipgloss.Color("#6C7086"), // Medium gray
		Border:     lipgloss.Color("#45475A"), // Border gray
		Success:    lipgloss.Color("#A6E3A1"), // Green
		Warning:    lipgloss.Color("#F9E2AF"), // Yellow
		Error:      lipgloss.Color("#F38BA8"), // Red
		Simulation: lipgloss.Color("#FAB387"), // Peach
		Hybrid:     lipgloss.Color("#89B4FA"), // Blue
		Production: lipgloss.Color("#A6E3A1"), // Green
	}
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Help     lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Border     lipgloss.Style

	// Badge is the base of ModeBadge.
	Badge lipgloss.Style

	// Fallback renders warnings for calls served by a simulated backend.
	Fallback lipgloss.Style
}

// NewStyles derives styles from theme, or from DefaultTheme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	return &Styles{
		theme: theme,

		Title:    fg(theme.Primary).Bold(true),
		Subtitle: fg(theme.Secondary).Bold(true),
		Normal:   fg(theme.Foreground),
		Muted:    fg(theme.Muted),
		Selected: fg(theme.Foreground).Bold(true).Background(theme.Primary),
		Help:     fg(theme.Muted),

		Error:   fg(theme.Error),
		Success: fg(theme.Success),
		Warning: fg(theme.Warning),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		StatusBar: fg(theme.Muted).
			Background(lipgloss.Color("#181825")).
			Padding(0, 1),

		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		Badge: fg(theme.Background).
			Bold(true).
			Background(theme.Simulation).
			Padding(0, 1),

		Fallback: fg(theme.Simulation).Italic(true),
	}
}

// DefaultStyles returns styles for the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette behind these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// ModeBadge returns the badge style for mode. Unknown modes render as
// simulation.
func (s *Styles) ModeBadge(mode domain.Mode) lipgloss.Style {
	switch mode {
	case domain.ModeProduction:
		return s.Badge.Background(s.theme.Production)
	case domain.ModeHybridEmbeddings, domain.ModeHybridStorage:
		return s.Badge.Background(s.theme.Hybrid)
	default:
		return s.Badge.Background(s.theme.Simulation)
	}
}

// FallbackNotice renders a broker fallback warning.
func (s *Styles) FallbackNotice(warning string) string {
	return s.Fallback.Render(fallbackPrefix + warning)
}

// Score returns the style for a similarity score.
func (s *Styles) Score(similarity float64) lipgloss.Style {
	switch {
	case similarity >= StrongMatch:
		return s.Success
	case similarity >= FairMatch:
		return s.Subtitle.UnsetBold()
	default:
		return s.Muted
	}
}
