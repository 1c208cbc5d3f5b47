// Package logging provides structured logging for castctl.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used by the cast engine, the poll supervisor and the HTTP bridge.
//
// # Log Levels
//
//   - Debug: frame traffic, hex dumps, keepalive pings, TLS details
//   - Info: connection phase changes, bridge requests
//   - Warn: dropped or truncated frames, dead-link escalation
//   - Error: startup failures only
//
// # Structured Logging
//
//	logging.Info("Application session found",
//	    zap.String("host", "192.168.1.20"),
//	    zap.String("session_id", sessionID),
//	)
//
// # Configuration
//
// Logging is silent unless a level is given, either with the --log-level
// flag or through the CASTCTL_LOG_LEVEL environment variable. This keeps
// the terminal dashboard and the one-shot commands readable.
//
//	if err := logging.Initialize(level); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Console output goes to stderr so that `castctl status` output can still be
// piped.
package logging
