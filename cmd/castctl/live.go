package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/muurk/castctl/internal/bridge"
	"github.com/muurk/castctl/internal/runner"
	"github.com/muurk/castctl/internal/ui"
)

// Serve flags
var (
	listenAddr     string
	serveRateLimit int
)

func init() {
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Address to listen on (default: listen_addr from the config, or :8080)")
	serveCmd.Flags().IntVar(&serveRateLimit, "rate-limit", bridge.DefaultRateLimit, "Command requests allowed per client IP per minute")
}

// watchCmd runs the live dashboard
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live status dashboard",
	Long: `Open a full-screen dashboard that follows the device status and
accepts playback keys. The connection is kept open and re-established with
backoff when it drops.

Keys:
  space  pause / resume      n / p  next / previous
  ← / →  seek -10s / +10s    + / -  volume up / down
  m      mute / unmute       q      quit`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	s, err := openSession()
	if err != nil {
		return err
	}
	if !ui.IsTerminal() {
		return fmt.Errorf("watch needs a terminal; use 'castctl status' or 'castctl serve' instead")
	}

	return withRunner(cmd.Context(), s.newRunner(), func(ctx context.Context, r *runner.Runner) error {
		return ui.RunWatch(ctx, r)
	})
}

// serveCmd runs the HTTP/WebSocket bridge
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket bridge",
	Long: `Keep a session with the device open and expose it over HTTP.

Endpoints:
  GET  /status            latest status as JSON
  POST /commands/{name}   play, pause, next, prev, seek, volume, mute
  GET  /ws                status stream over WebSocket
  GET  /metrics           Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
	Example: `  # Bridge for the default device on :8080
  castctl serve

  # Custom address
  castctl serve --device kitchen --listen 127.0.0.1:9090

  # Pause from another program
  curl -X POST localhost:8080/commands/pause -d '{"toggle":true}'`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	s, err := openSession()
	if err != nil {
		return err
	}

	addr := listenAddr
	if addr == "" {
		addr = s.prefs.ListenAddr
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	printer.PrintHeader("Bridge", "castctl serve", map[string]string{
		"Device":     s.target.String(),
		"Listen":     addr,
		"Rate limit": strconv.Itoa(serveRateLimit) + "/min per client",
	})

	err = withRunner(cmd.Context(), s.newRunner(), func(ctx context.Context, r *runner.Runner) error {
		return bridge.New(bridge.Config{Addr: addr, RateLimit: serveRateLimit}, r).Serve(ctx)
	})
	if err != nil {
		printer.PrintError("Bridge on "+addr, err)
		return err
	}
	return nil
}

// withRunner runs r in the background for the duration of fn and stops it
// afterwards. Errors from both are combined.
func withRunner(ctx context.Context, r *runner.Runner, fn func(context.Context, *runner.Runner) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- r.Run(ctx)
	}()

	err := fn(ctx, r)
	cancel()
	return multierr.Append(err, <-runErr)
}
