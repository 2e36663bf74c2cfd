// Package styles holds the lipgloss palette and styles shared by the
// console TUI and the plain line console.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray
	InfoColor      = lipgloss.Color("#60A5FA") // Blue

	// Convenience styles for colors
	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)

	// Engine states
	StateRunning = lipgloss.Color("#10B981") // Green
	StateStopped = lipgloss.Color("#9CA3AF") // Gray
	StateEnded   = lipgloss.Color("#FB923C") // Orange: output ended, not yet stopped
	StateBusy    = lipgloss.Color("#FBBF24") // Yellow: move request outstanding

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	// Output line kinds
	EchoLine    = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)
	InfoLine    = lipgloss.NewStyle().Foreground(InfoColor)
	ResultLine  = lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	ErrorLine   = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	WarningLine = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	NoticeLine  = lipgloss.NewStyle().Foreground(WarningColor)

	OutputArea = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor)

	StatusBar = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(SurfaceColor).
			Padding(0, 1)

	StatusBadge = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			MarginRight(1)

	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	Banner = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(WarningColor).
		Bold(true).
		Padding(0, 1)
)

// StateColor returns the badge color for an engine state name.
func StateColor(state string) lipgloss.Color {
	switch state {
	case "running":
		return StateRunning
	case "ended":
		return StateEnded
	case "thinking":
		return StateBusy
	default:
		return StateStopped
	}
}

// Badge renders state as a colored badge.
func Badge(state string) string {
	return StatusBadge.
		Foreground(SurfaceColor).
		Background(StateColor(state)).
		Render(state)
}
