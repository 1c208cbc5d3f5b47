package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/castctl/internal/castproto"
	"github.com/muurk/castctl/internal/controller"
)

// Printer provides methods for printing UI components to a writer.
// This is how the one-shot CLI commands produce styled output.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a banner box
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	p.Println(RenderHeader(title, command, params, p.width))
}

// PrintStatus prints a snapshot as a status card
func (p *Printer) PrintStatus(snap controller.Snapshot) {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	p.Println(RenderStatus(snap, bar, p.width))
}

// PrintSuccess prints a one-line success message with optional details
func (p *Printer) PrintSuccess(title string, details map[string]string) {
	p.Println(RenderSuccess(title, details))
}

// PrintError prints an error box with the troubleshooting hint for err
func (p *Printer) PrintError(title string, err error) {
	p.Println(RenderErrorBox(title, err, p.width))
}

// sortedKeys keeps banner and detail output stable
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RenderHeader renders a banner box
func RenderHeader(title, command string, params map[string]string, width int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	titleLine := HeaderTitleStyle.Render(strings.ToUpper(title))
	commandLine := HeaderCommandStyle.Render(command)
	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, commandLine)

	if len(params) > 0 {
		dividerWidth := width - 6 // border and padding
		if dividerWidth < 10 {
			dividerWidth = 10
		}
		divider := lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Render(strings.Repeat("─", dividerWidth))

		var paramLines []string
		for _, key := range sortedKeys(params) {
			paramLines = append(paramLines,
				HeaderParamKeyStyle.Render(key+":")+" "+HeaderParamValueStyle.Render(params[key]))
		}
		content = lipgloss.JoinVertical(lipgloss.Left, content, divider, strings.Join(paramLines, "\n"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Render(content)
}

// RenderSuccess renders "✓ title" followed by indented details
func RenderSuccess(title string, details map[string]string) string {
	lines := []string{SuccessTitleStyle.Render(SuccessMarker + " " + title)}
	for _, key := range sortedKeys(details) {
		lines = append(lines, "  "+LabelStyle.Render(key)+ValueStyle.Render(details[key]))
	}
	return strings.Join(lines, "\n")
}

// RenderErrorBox renders an error result box with a troubleshooting hint
func RenderErrorBox(title string, err error, width int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	lines := []string{
		"",
		ErrorTitleStyle.Render(fmt.Sprintf("%s  FAILED  ─  %s", FailureMarker, title)),
		"",
	}
	if err != nil {
		lines = append(lines,
			ErrorMessageStyle.Width(width-8).Render("Error: "+err.Error()),
			"",
			TroubleshootingItemStyle.Render(castproto.Hint(err)),
			"",
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(ErrorColor).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}
