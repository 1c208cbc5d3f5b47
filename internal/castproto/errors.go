package castproto

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeTransportUnavailable indicates a write while the transport is down
	ErrTypeTransportUnavailable ErrorType = iota
	// ErrTypeEncoding indicates the envelope could not be serialized
	ErrTypeEncoding
	// ErrTypeShortWrite indicates the transport accepted only part of a frame
	ErrTypeShortWrite
	// ErrTypeTransportOpen indicates the TCP/TLS connection could not be opened
	ErrTypeTransportOpen
	// ErrTypeBusy indicates a request is still awaiting its response
	ErrTypeBusy
	// ErrTypeNoActiveMedia indicates no media session is known
	ErrTypeNoActiveMedia
	// ErrTypeTruncatedFrame indicates a field ran past the end of its frame
	ErrTypeTruncatedFrame
	// ErrTypeMalformedFrame indicates a field header that cannot be skipped
	ErrTypeMalformedFrame
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeTransportUnavailable:
		return "Transport Unavailable"
	case ErrTypeEncoding:
		return "Encoding Failure"
	case ErrTypeShortWrite:
		return "Short Write"
	case ErrTypeTransportOpen:
		return "Transport Open Failure"
	case ErrTypeBusy:
		return "Busy"
	case ErrTypeNoActiveMedia:
		return "No Active Media"
	case ErrTypeTruncatedFrame:
		return "Truncated Frame"
	case ErrTypeMalformedFrame:
		return "Malformed Frame"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is returned by channel writes, the decoder and the controller's
// command methods.
type Error struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable error message
	Err     error     // Underlying error (if any)
	Host    string    // Device host (for context)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Type, so callers can write
// errors.Is(err, castproto.ErrBusy).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// Sentinels for errors.Is comparisons
var (
	ErrTransportUnavailable = &Error{Type: ErrTypeTransportUnavailable, Message: "transport is not connected"}
	ErrBusy                 = &Error{Type: ErrTypeBusy, Message: "a request is awaiting its response"}
	ErrNoActiveMedia        = &Error{Type: ErrTypeNoActiveMedia, Message: "no media session is active"}
	ErrTruncatedFrame       = &Error{Type: ErrTypeTruncatedFrame, Message: "field runs past end of frame"}
)

// NewEncodingError wraps an envelope serialization failure
func NewEncodingError(message string, err error) *Error {
	return &Error{Type: ErrTypeEncoding, Message: message, Err: err}
}

// NewShortWriteError reports a partially written frame
func NewShortWriteError(written, want int, err error) *Error {
	return &Error{
		Type:    ErrTypeShortWrite,
		Message: fmt.Sprintf("transport accepted %d of %d bytes", written, want),
		Err:     err,
	}
}

// NewTransportOpenError reports a failed TCP/TLS connect
func NewTransportOpenError(host string, err error) *Error {
	return &Error{
		Type:    ErrTypeTransportOpen,
		Message: fmt.Sprintf("cannot open connection to %s", host),
		Err:     err,
		Host:    host,
	}
}

// NewMalformedError reports a field the decoder cannot skip
func NewMalformedError(message string) *Error {
	return &Error{Type: ErrTypeMalformedFrame, Message: message}
}

func errorType(err error) (ErrorType, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Type, true
	}
	return 0, false
}

// IsBusy checks if a command was rejected because a request is outstanding
func IsBusy(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeBusy
}

// IsNoActiveMedia checks if a media command was rejected for lack of a session
func IsNoActiveMedia(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeNoActiveMedia
}

// IsTransportError checks if the error means the connection is unusable or suspect
func IsTransportError(err error) bool {
	t, ok := errorType(err)
	if !ok {
		return false
	}
	return t == ErrTypeTransportUnavailable ||
		t == ErrTypeShortWrite ||
		t == ErrTypeTransportOpen
}

// IsFrameError checks if the error came from decoding an inbound frame
func IsFrameError(err error) bool {
	t, ok := errorType(err)
	return ok && (t == ErrTypeTruncatedFrame || t == ErrTypeMalformedFrame)
}

// IsRetryable checks if the same call may succeed on a later poll cycle
func IsRetryable(err error) bool {
	t, ok := errorType(err)
	if !ok {
		return false
	}
	switch t {
	case ErrTypeBusy, ErrTypeNoActiveMedia, ErrTypeTransportOpen, ErrTypeTransportUnavailable:
		return true
	default:
		return false
	}
}

// Hint returns user-facing troubleshooting advice for an error
func Hint(err error) string {
	t, ok := errorType(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch t {
	case ErrTypeTransportOpen:
		return strings.Join([]string{
			"Could not reach the cast device.",
			"Troubleshooting:",
			"  • Check that the device is powered on and on the same network",
			"  • Verify the address (port 8009 is the default)",
			"  • Self-signed certificates must be allowed (allow_self_signed: true)",
		}, "\n")
	case ErrTypeTransportUnavailable, ErrTypeShortWrite:
		return "The connection to the device was lost. It will be re-established on the next attempt."
	case ErrTypeBusy:
		return "The device has not answered the previous request yet. Try again in a moment."
	case ErrTypeNoActiveMedia:
		return "Nothing is playing on the device, or the media session changed. Wait for the next status update."
	case ErrTypeEncoding:
		return "The command was too large to encode. This is a bug; please report it."
	default:
		return "The device sent a frame that could not be decoded."
	}
}
