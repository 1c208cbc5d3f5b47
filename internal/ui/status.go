package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/castctl/internal/controller"
)

// FormatStatus renders a snapshot as the plain line dump used by scripts:
//
//	V:<volume><M when muted>
//	D:<displayName>
//	S:<statusText>
//	A/T:<artist>/<title>
//	S:<playerState> <duration>/<currentTime>
//
// Nothing is printed before the device has reported status, and only the
// volume line when no application is running.
func FormatStatus(snap controller.Snapshot) string {
	if snap.Connection == controller.Disconnected || snap.Connection == controller.TransportAlive || snap.Volume < 0 {
		return ""
	}

	var b strings.Builder
	muted := " "
	if snap.Muted {
		muted = "M"
	}
	fmt.Fprintf(&b, "V:%.2f%s\n", snap.Volume, muted)
	if snap.SessionID == "" {
		return b.String()
	}
	fmt.Fprintf(&b, "D:%s\n", snap.DisplayName)
	fmt.Fprintf(&b, "S:%s\n", snap.StatusText)
	fmt.Fprintf(&b, "A/T:%s/%s\n", snap.Artist, snap.Title)
	fmt.Fprintf(&b, "S:%s %.1f/%.1f\n", snap.PlayerState, snap.Duration, snap.CurrentTime)
	return b.String()
}

// FormatClock renders seconds as m:ss, or h:mm:ss past an hour
func FormatClock(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(seconds)
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// formatVolume renders the volume as a percentage, or "?" when unknown
func formatVolume(volume float64, muted bool) string {
	if volume < 0 {
		return "?"
	}
	v := fmt.Sprintf("%d%%", int(math.Round(volume*100)))
	if muted {
		v += " " + MutedMarker
	}
	return v
}

// playbackRatio is currentTime/duration clamped to [0, 1]
func playbackRatio(current, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, current/duration))
}

// RenderStatus renders a snapshot as a styled card. bar draws the playback
// position; its width is adjusted to the card.
func RenderStatus(snap controller.Snapshot, bar progress.Model, width int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	inner := width - 6
	snap.Snapshot = snap.Snapshot.Truncated(inner)

	conn := lipgloss.NewStyle().
		Foreground(ConnectionColor(snap.Connection)).
		Render("● " + snap.Connection.String())
	host := ArtistStyle.Render(snap.Host)
	lines := []string{lipgloss.JoinHorizontal(lipgloss.Top, conn, "  ", host), ""}

	field := func(label, value string) string {
		return LabelStyle.Render(label) + ValueStyle.Render(value)
	}
	lines = append(lines, field("Volume", formatVolume(snap.Volume, snap.Muted)))

	if snap.SessionID != "" {
		lines = append(lines,
			field("App", snap.DisplayName),
			field("Status", snap.StatusText),
		)
	}

	if snap.MediaSessionID >= 0 {
		marker, color := PlayerMarker(snap.PlayerState)
		title := snap.Title
		if title == "" {
			title = "(untitled)"
		}
		lines = append(lines, "",
			lipgloss.NewStyle().Foreground(color).Render(marker)+" "+TitleStyle.Render(title),
		)
		if snap.Artist != "" {
			lines = append(lines, "  "+ArtistStyle.Render(snap.Artist))
		}

		bar.Width = inner - 16
		if bar.Width < 10 {
			bar.Width = 10
		}
		clock := fmt.Sprintf(" %s / %s", FormatClock(snap.CurrentTime), FormatClock(snap.Duration))
		lines = append(lines, bar.ViewAs(playbackRatio(snap.CurrentTime, snap.Duration))+ArtistStyle.Render(clock))
	}

	return BoxStyle(width, ConnectionColor(snap.Connection)).Render(strings.Join(lines, "\n"))
}
