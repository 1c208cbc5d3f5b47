package controller

import (
	"fmt"
	"time"

	"github.com/muurk/castctl/internal/castproto"
	"github.com/muurk/castctl/internal/status"
)

// ConnectionStatus is the connection phase reported by Loop and
// GetConnection.
type ConnectionStatus int

const (
	Disconnected ConnectionStatus = iota
	TransportAlive
	Connected
	ApplicationRunning
	WaitingForResponse
	ConnectToApplication
)

// String returns the phase name used in logs, metrics and JSON
func (s ConnectionStatus) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case TransportAlive:
		return "transport-alive"
	case Connected:
		return "connected"
	case ApplicationRunning:
		return "application-running"
	case WaitingForResponse:
		return "waiting-for-response"
	case ConnectToApplication:
		return "connect-to-application"
	default:
		return fmt.Sprintf("ConnectionStatus(%d)", int(s))
	}
}

// MarshalText encodes the phase as its name
func (s ConnectionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Defaults for Options
const (
	DefaultPingInterval    = 5 * time.Second
	DefaultReadTimeout     = castproto.DefaultReadTimeout
	DefaultResponseWindow  = 500 * time.Millisecond
	DefaultMaxErrors       = 5
	DefaultFrameBufferSize = 4096
	DefaultJSONScratchSize = status.DefaultScratchSize
)

// Options are fixed when the controller is created
type Options struct {
	// Port is the device TLS port
	Port int
	// PingInterval is the keepalive threshold; three times it marks a
	// channel dead
	PingInterval time.Duration
	// ReadTimeout bounds the wait for the rest of a partial frame
	ReadTimeout time.Duration
	// ResponseWindow is how long an outstanding request may go unanswered
	// before it counts as a timeout
	ResponseWindow time.Duration
	// MaxErrors is the number of consecutive timeouts that tear down the link
	MaxErrors int
	// FrameBufferSize is the shared read and write buffer size
	FrameBufferSize int
	// JSONScratchSize bounds the status payloads that are interpreted
	JSONScratchSize int
	// Now is the clock; nil means time.Now
	Now func() time.Time
}

// DefaultOptions returns the standard configuration
func DefaultOptions() Options {
	return Options{
		Port:            castproto.DefaultPort,
		PingInterval:    DefaultPingInterval,
		ReadTimeout:     DefaultReadTimeout,
		ResponseWindow:  DefaultResponseWindow,
		MaxErrors:       DefaultMaxErrors,
		FrameBufferSize: DefaultFrameBufferSize,
		JSONScratchSize: DefaultJSONScratchSize,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Port <= 0 {
		o.Port = d.Port
	}
	if o.PingInterval <= 0 {
		o.PingInterval = d.PingInterval
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = d.ReadTimeout
	}
	if o.ResponseWindow <= 0 {
		o.ResponseWindow = d.ResponseWindow
	}
	if o.MaxErrors <= 0 {
		o.MaxErrors = d.MaxErrors
	}
	if o.FrameBufferSize <= castproto.LengthPrefixSize {
		o.FrameBufferSize = d.FrameBufferSize
	}
	if o.JSONScratchSize <= 0 {
		o.JSONScratchSize = d.JSONScratchSize
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Snapshot is the externally visible state of a controller
type Snapshot struct {
	Connection ConnectionStatus `json:"connection"`
	Host       string           `json:"host,omitempty"`
	status.Snapshot
}
