// Package ui renders castctl's terminal output.
//
// One-shot commands print through a Printer: a status card for "castctl
// status", a success line after a command and an error box carrying the
// castproto.Hint for the failure. FormatStatus is the plain alternative for
// scripts and non-terminal output.
//
// WatchModel is the interactive dashboard behind "castctl watch". It
// subscribes to a runner, redraws on every snapshot and turns key presses
// into runner commands:
//
//	space  play/pause        n / p  next / previous
//	← / →  seek -10s / +10s   + / -  volume ±5%
//	m      toggle mute        q      quit
//
// Busy and no-media refusals are shown on the status line; the next key
// press simply tries again.
//
// # Logging Integration
//
// Logging is controlled by the CASTCTL_LOG_LEVEL environment variable or
// the --log-level flag. When unset, zap logging is silent so it does not
// tear the dashboard.
package ui
