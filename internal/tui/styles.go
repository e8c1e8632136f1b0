package tui

import "github.com/charmbracelet/lipgloss"

// One Dark Pro color palette
var (
	ColorFgPrimary = lipgloss.Color("#ABB2BF")
	ColorFgMuted   = lipgloss.Color("#636B78")
	ColorRed       = lipgloss.Color("#E06C75")
	ColorGreen     = lipgloss.Color("#98C379")
	ColorYellow    = lipgloss.Color("#E5C07B")
	ColorBlue      = lipgloss.Color("#61AFEF")
	ColorMagenta   = lipgloss.Color("#C678DD")
	ColorBorder    = lipgloss.Color("#3F4451")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 3)

	ClockStyle = lipgloss.NewStyle().
			Foreground(ColorFgPrimary).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorFgMuted)

	PausedStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true).
			Blink(true)
)

// phaseStyles colors the phase banner.
var phaseStyles = map[string]lipgloss.Style{
	"IDLE":      lipgloss.NewStyle().Foreground(ColorFgMuted).Bold(true),
	"COUNTDOWN": lipgloss.NewStyle().Foreground(ColorYellow).Bold(true),
	"ROUND":     lipgloss.NewStyle().Foreground(ColorGreen).Bold(true),
	"REST":      lipgloss.NewStyle().Foreground(ColorBlue).Bold(true),
	"DONE":      lipgloss.NewStyle().Foreground(ColorMagenta).Bold(true),
}
