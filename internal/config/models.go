package config

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/castctl/internal/castproto"
	"github.com/muurk/castctl/internal/controller"
	"github.com/muurk/castctl/internal/runner"
	"github.com/muurk/castctl/internal/transport"
)

// CurrentVersion is the registry file format version
const CurrentVersion = 1

// Preference defaults
const (
	DefaultPollInterval = runner.DefaultPollInterval
	DefaultListenAddr   = ":8080"
)

// Registry represents the entire user configuration file.
// This stores saved devices and application preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Default     string             `yaml:"default,omitempty"` // Device used when --device is not given
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by device name
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device is a saved cast receiver
type Device struct {
	Host     string    `yaml:"host"`
	Port     int       `yaml:"port,omitempty"`      // 0 means castproto.DefaultPort
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last successful connection
}

// Preferences tune the controller, the poll supervisor and the bridge.
// Zero values mean the built-in default.
type Preferences struct {
	PingInterval    time.Duration `yaml:"ping_interval,omitempty"`
	ReadTimeout     time.Duration `yaml:"read_timeout,omitempty"`
	ResponseWindow  time.Duration `yaml:"response_window,omitempty"`
	PollInterval    time.Duration `yaml:"poll_interval,omitempty"`
	FrameBufferSize int           `yaml:"frame_buffer_size,omitempty"`
	JSONScratchSize int           `yaml:"json_scratch_size,omitempty"`
	MaxErrors       int           `yaml:"max_errors,omitempty"`
	AllowSelfSigned *bool         `yaml:"allow_self_signed,omitempty"` // nil means true
	ListenAddr      string        `yaml:"listen_addr,omitempty"`
}

// Target is a resolved device address
type Target struct {
	Name string // saved device name, empty for a literal host
	Host string
	Port int
}

// String returns host:port
func (t Target) String() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Devices:     make(map[string]*Device),
		Preferences: DefaultPreferences(),
	}
}

// DefaultPreferences returns preferences with every field set to its default
func DefaultPreferences() *Preferences {
	opts := controller.DefaultOptions()
	allow := true
	return &Preferences{
		PingInterval:    opts.PingInterval,
		ReadTimeout:     opts.ReadTimeout,
		ResponseWindow:  opts.ResponseWindow,
		PollInterval:    DefaultPollInterval,
		FrameBufferSize: opts.FrameBufferSize,
		JSONScratchSize: opts.JSONScratchSize,
		MaxErrors:       opts.MaxErrors,
		AllowSelfSigned: &allow,
		ListenAddr:      DefaultListenAddr,
	}
}

// GetDevice retrieves a saved device by name.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// EnsureDevice ensures a device entry exists in the registry and returns it
func (r *Registry) EnsureDevice(name string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	if device, exists := r.Devices[name]; exists {
		return device
	}
	device := &Device{}
	r.Devices[name] = device
	return device
}

// AddDevice saves or replaces a device. The first device added becomes the
// default.
func (r *Registry) AddDevice(name, host string, port int, nickname string) error {
	name = strings.TrimSpace(name)
	host = strings.TrimSpace(host)
	if name == "" {
		return fmt.Errorf("device name must not be empty")
	}
	if host == "" {
		return fmt.Errorf("device %q needs a host", name)
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}

	device := r.EnsureDevice(name)
	device.Host = host
	device.Port = port
	device.Nickname = nickname
	if r.Default == "" {
		r.Default = name
	}
	return nil
}

// RemoveDevice deletes a saved device, clearing the default if it pointed at
// it. It reports whether the device existed.
func (r *Registry) RemoveDevice(name string) bool {
	if _, ok := r.Devices[name]; !ok {
		return false
	}
	delete(r.Devices, name)
	if r.Default == name {
		r.Default = ""
	}
	return true
}

// Names returns the saved device names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Devices))
	for name := range r.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UpdateDeviceLastSeen stamps a saved device with the current time. Unknown
// names are ignored.
func (r *Registry) UpdateDeviceLastSeen(name string) {
	if device, ok := r.Devices[name]; ok {
		device.LastSeen = time.Now()
	}
}

// Resolve maps a saved device name to its address. Anything else is taken
// as a literal host, optionally with a port. An empty argument resolves the
// default device.
func (r *Registry) Resolve(nameOrHost string) (Target, error) {
	nameOrHost = strings.TrimSpace(nameOrHost)
	if nameOrHost == "" {
		if r.Default == "" {
			return Target{}, fmt.Errorf("no device given and no default device saved (use --device or \"castctl devices add\")")
		}
		nameOrHost = r.Default
	}

	if device, ok := r.Devices[nameOrHost]; ok {
		port := device.Port
		if port == 0 {
			port = castproto.DefaultPort
		}
		return Target{Name: nameOrHost, Host: device.Host, Port: port}, nil
	}

	host, port := nameOrHost, castproto.DefaultPort
	if h, p, err := net.SplitHostPort(nameOrHost); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return Target{}, fmt.Errorf("invalid port in %q", nameOrHost)
		}
		host, port = h, n
	}
	return Target{Host: host, Port: port}, nil
}

// Effective returns a copy with every unset field filled from the defaults
func (p *Preferences) Effective() Preferences {
	d := DefaultPreferences()
	if p == nil {
		return *d
	}
	out := *p
	if out.PingInterval <= 0 {
		out.PingInterval = d.PingInterval
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.ResponseWindow <= 0 {
		out.ResponseWindow = d.ResponseWindow
	}
	if out.PollInterval <= 0 {
		out.PollInterval = d.PollInterval
	}
	if out.FrameBufferSize <= 0 {
		out.FrameBufferSize = d.FrameBufferSize
	}
	if out.JSONScratchSize <= 0 {
		out.JSONScratchSize = d.JSONScratchSize
	}
	if out.MaxErrors <= 0 {
		out.MaxErrors = d.MaxErrors
	}
	if out.AllowSelfSigned == nil {
		out.AllowSelfSigned = d.AllowSelfSigned
	}
	if out.ListenAddr == "" {
		out.ListenAddr = d.ListenAddr
	}
	return out
}

// SelfSignedAllowed reports whether unverified device certificates are accepted
func (p *Preferences) SelfSignedAllowed() bool {
	e := p.Effective()
	return *e.AllowSelfSigned
}

// ControllerOptions converts the preferences for controller.New. They are
// fixed for the controller's lifetime.
func (p *Preferences) ControllerOptions(port int) controller.Options {
	e := p.Effective()
	return controller.Options{
		Port:            port,
		PingInterval:    e.PingInterval,
		ReadTimeout:     e.ReadTimeout,
		ResponseWindow:  e.ResponseWindow,
		MaxErrors:       e.MaxErrors,
		FrameBufferSize: e.FrameBufferSize,
		JSONScratchSize: e.JSONScratchSize,
	}
}

// TLSOptions returns the transport TLS settings for host
func (p *Preferences) TLSOptions(host string) transport.TLSOptions {
	return transport.TLSOptions{
		AllowSelfSigned: p.SelfSignedAllowed(),
		ServerName:      host,
	}
}
