// Castctl controls a cast media receiver over its TLS control channel.
//
// It connects to the device on port 8009, follows the running application
// and its media session, and issues playback and volume commands. Besides
// one-shot commands it offers a live terminal dashboard (watch) and an
// HTTP/WebSocket bridge (serve) for other programs.
//
// Usage:
//
//	castctl [command] [flags]
//
// See 'castctl --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/castctl/internal/logging"
	"github.com/muurk/castctl/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	deviceArg      string
	portOverride   int
	logLevel       string
	commandTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "castctl",
	Short: "Cast Receiver Control Utility",
	Long: `A command line controller for cast media receivers.

Connects to a receiver over its TLS control channel (port 8009), follows the
running application and media session, and controls playback and volume.

Devices can be saved by name with 'castctl devices add' and picked with
--device. A literal host or host:port works too.`,
	Version:       version.Full(),
	SilenceErrors: true,
	Example: `  # Show what the default device is playing
  castctl status

  # Pause or resume on a specific receiver
  castctl pause --toggle --device 192.168.1.20

  # Live dashboard
  castctl watch --device kitchen

  # HTTP and WebSocket bridge on :8080
  castctl serve`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Initialize(logLevel); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&deviceArg, "device", "d", "", "Saved device name or host[:port] (default: the saved default device)")
	rootCmd.PersistentFlags().IntVar(&portOverride, "port", 0, "Device TLS port (overrides the saved or default port)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to $"+logging.LogLevelEnvVar)
	rootCmd.PersistentFlags().DurationVar(&commandTimeout, "timeout", 10*time.Second, "How long a one-shot command may take, including connecting")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Line("castctl"))
	},
}
