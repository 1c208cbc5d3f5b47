package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/castctl/internal/config"
	"github.com/muurk/castctl/internal/controller"
	"github.com/muurk/castctl/internal/logging"
	"github.com/muurk/castctl/internal/runner"
	"github.com/muurk/castctl/internal/transport"
	"github.com/muurk/castctl/internal/ui"
)

// Command flags
var (
	statusJSON     bool
	pauseToggle    bool
	seekRelative   bool
	volumeRelative bool
)

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(prevCmd)
	rootCmd.AddCommand(seekCmd)
	rootCmd.AddCommand(volumeCmd)
	rootCmd.AddCommand(muteCmd)

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the status as JSON")
	pauseCmd.Flags().BoolVar(&pauseToggle, "toggle", false, "Resume if already paused")
	seekCmd.Flags().BoolVar(&seekRelative, "relative", false, "Treat the position as an offset from the current time")
	volumeCmd.Flags().BoolVar(&volumeRelative, "relative", false, "Treat the level as an offset from the current volume")
}

// session is a resolved device and the settings to reach it
type session struct {
	registry *config.Registry
	target   config.Target
	prefs    config.Preferences
}

// openSession loads the registry and resolves --device and --port
func openSession() (*session, error) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	target, err := registry.Resolve(deviceArg)
	if err != nil {
		return nil, err
	}
	if portOverride > 0 {
		target.Port = portOverride
	}

	logging.Debug("Resolved device",
		zap.String("name", target.Name),
		zap.String("address", target.String()))

	return &session{
		registry: registry,
		target:   target,
		prefs:    registry.Preferences.Effective(),
	}, nil
}

// newController builds a controller with a fresh TLS transport
func (s *session) newController() *controller.Controller {
	tlsConfig := transport.NewClientTLSConfig(s.prefs.TLSOptions(s.target.Host))
	logging.Debug("TLS client settings", zap.Any("tls", transport.Info(tlsConfig)))
	return controller.New(transport.NewTLSTransport(tlsConfig), s.prefs.ControllerOptions(s.target.Port))
}

// newRunner builds a poll supervisor for the long-running commands
func (s *session) newRunner() *runner.Runner {
	return runner.New(s.newController(), runner.Config{
		Host:         s.target.Host,
		PollInterval: s.prefs.PollInterval,
	})
}

// markSeen stamps a saved device after a successful session. Failure to save
// is not fatal for the command.
func (s *session) markSeen() {
	if s.target.Name == "" {
		return
	}
	s.registry.UpdateDeviceLastSeen(s.target.Name)
	if err := s.registry.Save(); err != nil {
		logging.Warn("Failed to save configuration", zap.Error(err))
	}
}

// exec runs one connect-command-disconnect session bounded by --timeout
func (s *session) exec(ctx context.Context, cmd *runner.Command) (controller.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	snap, err := runner.Exec(ctx, s.newController(), s.target.Host, cmd, s.prefs.PollInterval)
	if err != nil {
		return snap, err
	}
	s.markSeen()
	return snap, nil
}

// statusCmd prints the device and media status
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show device and media status",
	Long: `Connect to the device, wait for its status to settle and print it.

On a terminal the status is shown as a card. When the output is redirected
the compact V:/D:/S:/A/T: dump is printed instead, one field per line.`,
	Example: `  # Status of the default device
  castctl status

  # Status as JSON for scripting
  castctl status --device 192.168.1.20 --json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	s, err := openSession()
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	snap, err := s.exec(cmd.Context(), nil)
	if err != nil {
		printer.PrintError("Status of "+s.target.String(), err)
		return err
	}

	switch {
	case statusJSON:
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		printer.Println(string(data))
	case ui.IsTerminal():
		printer.PrintStatus(snap)
	default:
		printer.Print(ui.FormatStatus(snap))
	}
	return nil
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Resume playback",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, runner.Command{Kind: runner.KindPlay})
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback",
	Long:  `Pause playback. With --toggle a paused session is resumed instead.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, runner.Command{Kind: runner.KindPause, Toggle: pauseToggle})
	},
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Skip to the next item",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, runner.Command{Kind: runner.KindNext})
	},
}

var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Go back to the previous item",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, runner.Command{Kind: runner.KindPrev})
	},
}

var seekCmd = &cobra.Command{
	Use:   "seek <seconds>",
	Short: "Seek within the current item",
	Long: `Seek to a position in seconds. A leading + or - (or --relative) moves
relative to the current position. The target is clamped to the item.`,
	Example: `  # Jump to 1:30
  castctl seek 90

  # Skip ahead 30 seconds
  castctl seek +30

  # Go back 10 seconds (-- stops flag parsing)
  castctl seek -- -10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := runner.ParseCommand(string(runner.KindSeek), args[0])
		if err != nil {
			return err
		}
		c.Relative = c.Relative || seekRelative
		return runControl(cmd, c)
	},
}

var volumeCmd = &cobra.Command{
	Use:   "volume <level>",
	Short: "Set the device volume",
	Long: `Set the volume as a fraction (0.4) or percentage (40%). A leading + or -
(or --relative) changes it relative to the current level. The result is
clamped to 0..1.`,
	Example: `  castctl volume 0.4
  castctl volume 40%
  castctl volume +5%
  castctl volume -- -0.1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := runner.ParseCommand(string(runner.KindVolume), args[0])
		if err != nil {
			return err
		}
		c.Relative = c.Relative || volumeRelative
		return runControl(cmd, c)
	},
}

var muteCmd = &cobra.Command{
	Use:       "mute [on|off|toggle]",
	Short:     "Mute or unmute the device",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off", "toggle"},
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := ""
		if len(args) == 1 {
			arg = args[0]
		}
		c, err := runner.ParseCommand(string(runner.KindMute), arg)
		if err != nil {
			return err
		}
		return runControl(cmd, c)
	},
}

// runControl issues one command and reports the resulting state
func runControl(cmd *cobra.Command, c runner.Command) error {
	cmd.SilenceUsage = true

	if err := c.Validate(); err != nil {
		return err
	}
	s, err := openSession()
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	snap, err := s.exec(cmd.Context(), &c)
	if err != nil {
		printer.PrintError(c.String()+" on "+s.target.String(), err)
		return err
	}

	printer.PrintSuccess(c.String(), controlDetails(s.target, snap))
	return nil
}

// controlDetails summarises the state after a command
func controlDetails(target config.Target, snap controller.Snapshot) map[string]string {
	details := map[string]string{"Device": target.String()}
	if target.Name != "" {
		details["Device"] = target.Name + " (" + target.String() + ")"
	}
	if snap.Volume >= 0 {
		v := fmt.Sprintf("%.0f%%", snap.Volume*100)
		if snap.Muted {
			v += " muted"
		}
		details["Volume"] = v
	}
	if snap.MediaSessionID >= 0 {
		details["State"] = snap.PlayerState.String()
		if snap.Title != "" {
			details["Title"] = snap.Title
		}
	}
	return details
}
