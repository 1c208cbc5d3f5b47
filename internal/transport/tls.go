package transport

import (
	"crypto/tls"

	"github.com/muurk/castctl/internal/logging"
)

// TLSOptions controls how the device certificate is checked.
type TLSOptions struct {
	// AllowSelfSigned skips chain verification. Cast receivers present
	// device certificates that do not chain to a public root.
	AllowSelfSigned bool

	// ServerName overrides SNI. Empty uses the dialed host.
	ServerName string
}

// NewClientTLSConfig creates a TLS client configuration for cast receivers
func NewClientTLSConfig(opts TLSOptions) *tls.Config {
	config := &tls.Config{
		ServerName: opts.ServerName,
		MinVersion: tls.VersionTLS12,

		InsecureSkipVerify: opts.AllowSelfSigned, //nolint:gosec // receivers use self-signed device certs

		// Runs for every handshake, verified or not
		VerifyConnection: func(cs tls.ConnectionState) error {
			logging.LogTLSHandshake(cs.ServerName, cs.Version, cs.CipherSuite)
			return nil
		},
	}

	return config
}

// Info returns human-readable TLS configuration information
func Info(config *tls.Config) map[string]interface{} {
	return map[string]interface{}{
		"min_version":       tlsVersion(config.MinVersion),
		"verify_chain":      !config.InsecureSkipVerify,
		"server_name":       config.ServerName,
		"session_tickets":   !config.SessionTicketsDisabled,
		"client_cert_count": len(config.Certificates),
	}
}

func tlsVersion(v uint16) string {
	switch v {
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	case 0:
		return "default"
	default:
		return tls.VersionName(v)
	}
}
