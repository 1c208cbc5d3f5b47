package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/muurk/castctl/internal/controller"
	"github.com/muurk/castctl/internal/status"
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - playing, connected
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors, disconnected
	WarningColor = lipgloss.Color("#FFA500") // Orange - paused, waiting
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
)

var (
	// TitleStyle is for the track title
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	// ArtistStyle is for the artist line under the title
	ArtistStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// LabelStyle is for field labels ("Volume", "App")
	LabelStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(8)

	// ValueStyle is for field values
	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// HeaderTitleStyle is for the banner title
	HeaderTitleStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true).
				PaddingLeft(2)

	// HeaderCommandStyle is for the command path under the title
	HeaderCommandStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	// HeaderParamKeyStyle is for parameter keys (e.g., "Device:")
	HeaderParamKeyStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	// HeaderParamValueStyle is for parameter values
	HeaderParamValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	// ErrorTitleStyle is for the error result title
	ErrorTitleStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// ErrorMessageStyle is for error message text and the dashboard error line
	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	// NoticeStyle is for transient dashboard messages
	NoticeStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	// SuccessTitleStyle is for the success result title
	SuccessTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	// TroubleshootingItemStyle is for hint lines under an error
	TroubleshootingItemStyle = lipgloss.NewStyle().
					Foreground(MutedColor)
)

// Markers
const (
	SuccessMarker = "✓"
	FailureMarker = "✗"
	PlayingMarker = "▶"
	PausedMarker  = "⏸"
	IdleMarker    = "■"
	MutedMarker   = "🔇"
)

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// IsTerminal reports whether stdout is a terminal
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ConnectionColor picks the color for a connection phase
func ConnectionColor(c controller.ConnectionStatus) lipgloss.Color {
	switch c {
	case controller.Disconnected:
		return ErrorColor
	case controller.ApplicationRunning, controller.Connected:
		return SuccessColor
	default:
		return WarningColor
	}
}

// PlayerMarker returns the glyph and color for a player state
func PlayerMarker(p status.PlayerState) (string, lipgloss.Color) {
	switch p {
	case status.Playing:
		return PlayingMarker, SuccessColor
	case status.Paused:
		return PausedMarker, WarningColor
	case status.Buffering:
		return PlayingMarker, WarningColor
	default:
		return IdleMarker, MutedColor
	}
}

// BoxStyle returns the rounded card border used by the status view
func BoxStyle(width int, color lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Width(width-2).
		Padding(0, 1)
}
