package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/muurk/castctl/internal/controller"
	"github.com/muurk/castctl/internal/runner"
)

// Dashboard step sizes
const (
	SeekStep   = 10.0 // seconds
	VolumeStep = 0.05

	defaultCommandTimeout = 3 * time.Second
)

// Backend is what the dashboard needs from a runner.Runner
type Backend interface {
	Do(ctx context.Context, cmd runner.Command) error
	Subscribe() (id uuid.UUID, updates <-chan controller.Snapshot, cancel func())
}

type snapshotMsg controller.Snapshot

type streamClosedMsg struct{}

type commandResultMsg struct {
	cmd runner.Command
	err error
}

// watchKeyMap defines key bindings for the dashboard
type watchKeyMap struct {
	Pause      key.Binding
	Next       key.Binding
	Prev       key.Binding
	SeekBack   key.Binding
	SeekFwd    key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
	Mute       key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Next, k.Prev, k.Mute, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Next, k.Prev},
		{k.SeekBack, k.SeekFwd},
		{k.VolumeUp, k.VolumeDown, k.Mute},
		{k.Help, k.Quit},
	}
}

func newWatchKeyMap() watchKeyMap {
	return watchKeyMap{
		Pause:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Next:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		Prev:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev")),
		SeekBack:   key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "-10s")),
		SeekFwd:    key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "+10s")),
		VolumeUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		VolumeDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		Mute:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// WatchModel is the live dashboard behind "castctl watch"
type WatchModel struct {
	backend Backend
	updates <-chan controller.Snapshot
	cancel  func()

	snap    controller.Snapshot
	width   int
	notice  string
	lastErr error

	// CommandTimeout bounds each key-triggered command
	CommandTimeout time.Duration

	keys    watchKeyMap
	help    help.Model
	spinner spinner.Model
	bar     progress.Model
	quit    bool
}

// NewWatchModel subscribes to backend. The subscription is released when
// the model quits.
func NewWatchModel(backend Backend) WatchModel {
	_, updates, cancel := backend.Subscribe()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	snap := controller.Snapshot{}
	snap.Volume = -1
	snap.MediaSessionID = -1

	return WatchModel{
		backend:        backend,
		updates:        updates,
		cancel:         cancel,
		snap:           snap,
		width:          GetTerminalWidth(),
		CommandTimeout: defaultCommandTimeout,
		keys:           newWatchKeyMap(),
		help:           help.New(),
		spinner:        s,
		bar:            progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

// Snapshot returns the last snapshot the dashboard received
func (m WatchModel) Snapshot() controller.Snapshot {
	return m.snap
}

// Init implements tea.Model
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.updates), m.spinner.Tick)
}

func waitForSnapshot(updates <-chan controller.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return streamClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

// Update implements tea.Model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if m.width > MaxContentWidth {
			m.width = MaxContentWidth
		}
		m.help.Width = m.width
		return m, nil

	case snapshotMsg:
		m.snap = controller.Snapshot(msg)
		return m, waitForSnapshot(m.updates)

	case streamClosedMsg:
		m.quit = true
		return m, tea.Quit

	case commandResultMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			m.notice = ""
		} else {
			m.lastErr = nil
			m.notice = SuccessMarker + " " + msg.cmd.String()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m WatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd runner.Command
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quit = true
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Pause):
		cmd = runner.Command{Kind: runner.KindPause, Toggle: true}
	case key.Matches(msg, m.keys.Next):
		cmd = runner.Command{Kind: runner.KindNext}
	case key.Matches(msg, m.keys.Prev):
		cmd = runner.Command{Kind: runner.KindPrev}
	case key.Matches(msg, m.keys.SeekBack):
		cmd = runner.Command{Kind: runner.KindSeek, Relative: true, Value: -SeekStep}
	case key.Matches(msg, m.keys.SeekFwd):
		cmd = runner.Command{Kind: runner.KindSeek, Relative: true, Value: SeekStep}
	case key.Matches(msg, m.keys.VolumeUp):
		cmd = runner.Command{Kind: runner.KindVolume, Relative: true, Value: VolumeStep}
	case key.Matches(msg, m.keys.VolumeDown):
		cmd = runner.Command{Kind: runner.KindVolume, Relative: true, Value: -VolumeStep}
	case key.Matches(msg, m.keys.Mute):
		cmd = runner.Command{Kind: runner.KindMute, Toggle: true}
	default:
		return m, nil
	}

	m.notice = "sending " + cmd.String() + "…"
	return m, m.send(cmd)
}

func (m WatchModel) send(cmd runner.Command) tea.Cmd {
	backend, timeout := m.backend, m.CommandTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return commandResultMsg{cmd: cmd, err: backend.Do(ctx, cmd)}
	}
}

// connecting reports whether the dashboard should show the spinner
func (m WatchModel) connecting() bool {
	switch m.snap.Connection {
	case controller.Disconnected, controller.TransportAlive, controller.ConnectToApplication:
		return true
	default:
		return false
	}
}

// View implements tea.Model
func (m WatchModel) View() string {
	if m.quit {
		return ""
	}

	var b strings.Builder
	b.WriteString(RenderStatus(m.snap, m.bar, m.width))
	b.WriteString("\n")

	switch {
	case m.connecting():
		b.WriteString(m.spinner.View() + " " + NoticeStyle.Render("connecting…"))
	case m.lastErr != nil:
		b.WriteString(ErrorMessageStyle.Render(FailureMarker + " " + m.lastErr.Error()))
	case m.notice != "":
		b.WriteString(NoticeStyle.Render(m.notice))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// RunWatch runs the dashboard until the user quits, ctx is cancelled or the
// backend stops.
func RunWatch(ctx context.Context, backend Backend) error {
	model := NewWatchModel(backend)
	defer model.cancel()

	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
