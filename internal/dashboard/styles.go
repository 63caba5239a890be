package dashboard

import "github.com/charmbracelet/lipgloss"

// One Dark Pro color palette
var (
	ColorBgHighlight = lipgloss.Color("#2C313C")

	ColorFgPrimary = lipgloss.Color("#ABB2BF")
	ColorFgMuted   = lipgloss.Color("#636B78")
	ColorFgComment = lipgloss.Color("#5C6370")

	ColorRed     = lipgloss.Color("#E06C75")
	ColorGreen   = lipgloss.Color("#98C379")
	ColorYellow  = lipgloss.Color("#E5C07B")
	ColorBlue    = lipgloss.Color("#61AFEF")
	ColorMagenta = lipgloss.Color("#C678DD")
	ColorCyan    = lipgloss.Color("#56B6C2")

	ColorBorder = lipgloss.Color("#3F4451")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true).
			PaddingLeft(1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	PanelTitleStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorFgMuted)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorFgPrimary)

	TagStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	DetailStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(ColorBlue).
			PaddingLeft(1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorFgMuted).
			PaddingLeft(1).
			PaddingRight(1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorFgComment).
			PaddingLeft(1)
)

// Watchdog status badges
var (
	StatusFocusedStyle = lipgloss.NewStyle().
				Foreground(ColorGreen).
				Bold(true)

	StatusWarningStyle = lipgloss.NewStyle().
				Foreground(ColorYellow).
				Bold(true)

	StatusAlertedStyle = lipgloss.NewStyle().
				Foreground(ColorBgHighlight).
				Background(ColorRed).
				Bold(true).
				Padding(0, 1)

	StatusUnknownStyle = lipgloss.NewStyle().
				Foreground(ColorCyan)
)

// statusStyle picks the badge for a watchdog status string.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case "focused":
		return StatusFocusedStyle
	case "warning":
		return StatusWarningStyle
	case "alerted_distracted":
		return StatusAlertedStyle
	default:
		return StatusUnknownStyle
	}
}
