package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/eolscan/internal/core/domain"
)

// Theme defines the colour palette for terminal output.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Border is the table border colour.
	Border lipgloss.Color

	// Risk colours, most to least severe.
	Critical lipgloss.Color
	High     lipgloss.Color
	Medium   lipgloss.Color
	Low      lipgloss.Color
	Unknown  lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:  lipgloss.Color("#7C3AED"), // Purple
		Muted:    lipgloss.Color("#6C7086"), // Medium gray
		Border:   lipgloss.Color("#45475A"), // Border gray
		Critical: lipgloss.Color("#F38BA8"), // Red
		High:     lipgloss.Color("#FAB387"), // Peach
		Medium:   lipgloss.Color("#F9E2AF"), // Yellow
		Low:      lipgloss.Color("#A6E3A1"), // Green
		Unknown:  lipgloss.Color("#9399B2"), // Gray
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	// Title style for headers.
	Title lipgloss.Style

	// Header style for table header cells.
	Header lipgloss.Style

	// Cell style for regular table cells.
	Cell lipgloss.Style

	// Muted style for less important text.
	Muted lipgloss.Style

	// Border style for table borders.
	Border lipgloss.Style

	risk map[domain.RiskLevel]lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	riskStyle := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Bold(true).Foreground(c)
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary).
			Padding(0, 1),

		Cell: lipgloss.NewStyle().
			Padding(0, 1),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Border: lipgloss.NewStyle().
			Foreground(theme.Border),

		risk: map[domain.RiskLevel]lipgloss.Style{
			domain.RiskCritical: riskStyle(theme.Critical),
			domain.RiskHigh:     riskStyle(theme.High),
			domain.RiskMedium:   riskStyle(theme.Medium),
			domain.RiskLow:      riskStyle(theme.Low),
			domain.RiskUnknown:  riskStyle(theme.Unknown),
		},
	}
}

// PlainStyles returns styles that render text unchanged, for pipes and files.
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()
	cell := lipgloss.NewStyle().Padding(0, 1)
	return &Styles{
		theme:  DefaultTheme(),
		Title:  plain,
		Header: cell,
		Cell:   cell,
		Muted:  plain,
		Border: plain,
		risk:   map[domain.RiskLevel]lipgloss.Style{},
	}
}

// Risk returns the style for a risk tier.
func (s *Styles) Risk(level domain.RiskLevel) lipgloss.Style {
	if st, ok := s.risk[level]; ok {
		return st
	}
	return lipgloss.NewStyle()
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
