// Package config provides user configuration management for castctl.
//
// This package manages a YAML-based configuration file that stores saved cast
// receivers (name, host, port, nickname) and connection preferences. The
// configuration follows OS-specific conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/castctl/config.yaml or $HOME/.config/castctl/config.yaml
//   - macOS: $HOME/.config/castctl/config.yaml
//   - Windows: %LOCALAPPDATA%\castctl\config.yaml
//
// The CASTCTL_CONFIG environment variable overrides the location.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := registry.AddDevice("kitchen", "192.168.1.20", 0, "Kitchen speaker"); err != nil {
//	    log.Fatal(err)
//	}
//
//	target, err := registry.Resolve("kitchen")
//	opts := registry.Preferences.ControllerOptions(target.Port)
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
