// Package styles defines the visual styling for the report viewer.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette. Adaptive colors keep the matrix readable on light terminals.
var (
	Primary   = lipgloss.AdaptiveColor{Light: "#00747A", Dark: "#3FC1C9"}
	Secondary = lipgloss.AdaptiveColor{Light: "#9A5B00", Dark: "#F5A623"}
	Subtle    = lipgloss.AdaptiveColor{Light: "#B8B8B8", Dark: "#4A4A4A"}

	Nonzero = lipgloss.AdaptiveColor{Light: "#1B1B1B", Dark: "#E8E8E8"}
	Error   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF6B6B"}

	Highlight     = lipgloss.AdaptiveColor{Light: "#E3F4F5", Dark: "#1F3B3D"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#5C5C5C", Dark: "#A0A0A0"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#9E9E9E", Dark: "#5E5E5E"}
)

// Layout.
var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(Primary).MarginBottom(1)
	SubTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(Secondary)
	DocStyle      = lipgloss.NewStyle().Margin(1, 2)

	// CardStyle frames the matrix and each chart.
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Subtle).
			Padding(0, 1).
			MarginBottom(1)

	ErrorTextStyle = lipgloss.NewStyle().Foreground(Error).Bold(true)
)

// Help line.
var (
	HelpStyle          = lipgloss.NewStyle().Foreground(TextMuted)
	HelpKeyStyle       = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	HelpDescStyle      = lipgloss.NewStyle().Foreground(TextSecondary)
	HelpSeparatorStyle = lipgloss.NewStyle().Foreground(Subtle)
)

// Matrix table.
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Secondary).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(Subtle)

	TableSelectedStyle = lipgloss.NewStyle().
				Foreground(Nonzero).
				Background(Highlight).
				Bold(true)
)

// CountStyle returns the style of a report cell. Empty cells fade out.
func CountStyle(n int) lipgloss.Style {
	if n == 0 {
		return lipgloss.NewStyle().Foreground(TextMuted)
	}
	return lipgloss.NewStyle().Foreground(Nonzero)
}

// CenterBoth centers content in a width x height box.
func CenterBoth(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
