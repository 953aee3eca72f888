package tui

import "github.com/charmbracelet/lipgloss"

// Colors adapt to light and dark terminal backgrounds.
var (
	colorMuted   = lipgloss.AdaptiveColor{Light: "245", Dark: "240"}
	colorText    = lipgloss.AdaptiveColor{Light: "236", Dark: "252"}
	colorSubtle  = lipgloss.AdaptiveColor{Light: "242", Dark: "244"}
	colorOK      = lipgloss.AdaptiveColor{Light: "28", Dark: "46"}
	colorFail    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorWarn    = lipgloss.AdaptiveColor{Light: "166", Dark: "214"}
	colorSpinner = lipgloss.AdaptiveColor{Light: "31", Dark: "86"}
	colorUser    = lipgloss.AdaptiveColor{Light: "130", Dark: "220"}
)

var (
	iconPending  = lipgloss.NewStyle().Foreground(colorMuted).Render("○")
	iconComplete = lipgloss.NewStyle().Foreground(colorOK).Render("✓")
	iconError    = lipgloss.NewStyle().Foreground(colorFail).Render("✗")
	iconSkipped  = lipgloss.NewStyle().Foreground(colorMuted).Render("–")

	taskNameStyle = lipgloss.NewStyle().Foreground(colorText)
	taskDimStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	messageStyle  = lipgloss.NewStyle().Foreground(colorSubtle)
	errorStyle    = lipgloss.NewStyle().Foreground(colorFail)
	spinnerStyle  = lipgloss.NewStyle().Foreground(colorSpinner)
	warnStyle     = lipgloss.NewStyle().Foreground(colorWarn)
	footerStyle   = lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1)
	userStyle     = lipgloss.NewStyle().Foreground(colorUser).Bold(true)
)

// StatusIcon returns the glyph drawn before a task. Running tasks show the
// current spinner frame.
func StatusIcon(status TaskStatus, spinnerFrame string) string {
	switch status {
	case StatusRunning:
		return spinnerStyle.Render(spinnerFrame)
	case StatusComplete:
		return iconComplete
	case StatusError:
		return iconError
	case StatusSkipped:
		return iconSkipped
	default:
		return iconPending
	}
}
