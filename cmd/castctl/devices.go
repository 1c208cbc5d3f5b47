package main

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/castctl/internal/castproto"
	"github.com/muurk/castctl/internal/config"
	"github.com/muurk/castctl/internal/ui"
)

// Device command flags
var (
	deviceNickname string
	deviceDefault  bool
)

func init() {
	rootCmd.AddCommand(devicesCmd)
	devicesCmd.AddCommand(devicesListCmd)
	devicesCmd.AddCommand(devicesAddCmd)
	devicesCmd.AddCommand(devicesRemoveCmd)

	devicesAddCmd.Flags().StringVar(&deviceNickname, "nickname", "", "Friendly name shown in listings")
	devicesAddCmd.Flags().BoolVar(&deviceDefault, "default", false, "Make this the default device")
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Manage saved devices",
	Long: `Save receivers by name so they can be picked with --device.

The first device saved becomes the default, used when --device is omitted.`,
}

var devicesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved devices",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		registry, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		printer := ui.NewPrinter(cmd.OutOrStdout())
		if len(registry.Devices) == 0 {
			printer.Println("No saved devices.")
			printer.Println("Use 'castctl devices add <name> <host[:port]>' to save one.")
			return nil
		}

		for _, name := range registry.Names() {
			printer.Println(formatDevice(name, registry.GetDevice(name), name == registry.Default))
		}
		return nil
	},
}

var devicesAddCmd = &cobra.Command{
	Use:   "add <name> <host[:port]>",
	Short: "Save a device",
	Example: `  castctl devices add kitchen 192.168.1.20
  castctl devices add office office.lan:8009 --nickname "Office speaker" --default`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		registry, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		host, port, err := splitHostPort(args[1])
		if err != nil {
			return err
		}
		if err := registry.AddDevice(args[0], host, port, deviceNickname); err != nil {
			return err
		}
		if deviceDefault {
			registry.Default = args[0]
		}
		if err := registry.Save(); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}

		target, _ := registry.Resolve(args[0])
		details := map[string]string{"Address": target.String()}
		if registry.Default == args[0] {
			details["Default"] = "yes"
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("saved "+args[0], details)
		return nil
	},
}

var devicesRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Forget a saved device",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		registry, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if !registry.RemoveDevice(args[0]) {
			return fmt.Errorf("no saved device named %q", args[0])
		}
		if err := registry.Save(); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}

		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("removed "+args[0], nil)
		return nil
	},
}

// splitHostPort accepts "host" or "host:port". Port 0 means the default.
func splitHostPort(arg string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(arg)
	if err != nil {
		// no port given
		return strings.TrimSpace(arg), 0, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q", arg)
	}
	return host, port, nil
}

// formatDevice renders one line of 'devices list'
func formatDevice(name string, device *config.Device, isDefault bool) string {
	marker := "  "
	if isDefault {
		marker = ui.SuccessMarker + " "
	}

	port := device.Port
	if port == 0 {
		port = castproto.DefaultPort
	}
	line := marker + ui.TitleStyle.Render(name) + "  " +
		ui.ValueStyle.Render(net.JoinHostPort(device.Host, strconv.Itoa(port)))

	if device.Nickname != "" {
		line += "  " + ui.ArtistStyle.Render(device.Nickname)
	}
	if !device.LastSeen.IsZero() {
		line += "  " + ui.ArtistStyle.Render("seen "+device.LastSeen.Local().Format(time.DateTime))
	}
	return line
}
