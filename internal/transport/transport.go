package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/muurk/castctl/internal/logging"
	"go.uber.org/zap"
)

// Transport is a buffered, non-blocking view of one secure stream.
//
// Available, Peek and Read only ever look at bytes already received;
// none of them wait for the network beyond a short poll. That lets the
// controller decide how long it is willing to block.
type Transport interface {
	// Connect opens the stream. Any previous stream is closed first.
	Connect(ctx context.Context, host string, port int) error
	// Connected reports whether the stream is open and has not failed.
	Connected() bool
	// Available returns how many received bytes can be read right now.
	Available() int
	// Peek copies up to len(p) buffered bytes without consuming them.
	Peek(p []byte) int
	// Read consumes up to len(p) buffered bytes.
	Read(p []byte) int
	// Write sends p and returns how many bytes were accepted.
	Write(p []byte) (int, error)
	// Close tears the stream down. Safe to call repeatedly.
	Close() error
}

const (
	// DefaultDialTimeout bounds the TCP connect plus TLS handshake
	DefaultDialTimeout = 5 * time.Second

	// DefaultPollWait is how long Available may wait for new bytes
	DefaultPollWait = time.Millisecond

	// DefaultWriteTimeout bounds a single Write
	DefaultWriteTimeout = 2 * time.Second

	readChunk = 4096
)

// TLSTransport implements Transport over crypto/tls.
type TLSTransport struct {
	Config       *tls.Config
	DialTimeout  time.Duration
	PollWait     time.Duration
	WriteTimeout time.Duration

	host    string
	conn    net.Conn
	pending []byte
	chunk   []byte
	alive   bool
}

// NewTLSTransport returns a transport using cfg for every connection.
func NewTLSTransport(cfg *tls.Config) *TLSTransport {
	return &TLSTransport{
		Config:       cfg,
		DialTimeout:  DefaultDialTimeout,
		PollWait:     DefaultPollWait,
		WriteTimeout: DefaultWriteTimeout,
		chunk:        make([]byte, readChunk),
	}
}

// Connect dials host:port and completes the TLS handshake.
func (t *TLSTransport) Connect(ctx context.Context, host string, port int) error {
	_ = t.Close()

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: t.DialTimeout},
		Config:    t.Config,
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	t.host = host
	t.conn = conn
	t.pending = nil
	t.alive = true
	logging.LogConnection(addr, "tls_connected")
	return nil
}

// Connected reports whether the stream is still usable.
func (t *TLSTransport) Connected() bool {
	return t.conn != nil && t.alive
}

// Available pulls whatever the socket has ready and returns the buffered size.
func (t *TLSTransport) Available() int {
	t.fill()
	return len(t.pending)
}

// Peek copies buffered bytes without consuming them.
func (t *TLSTransport) Peek(p []byte) int {
	return copy(p, t.pending)
}

// Read consumes buffered bytes.
func (t *TLSTransport) Read(p []byte) int {
	n := copy(p, t.pending)
	t.pending = t.pending[n:]
	if len(t.pending) == 0 {
		t.pending = nil
	}
	return n
}

// Write sends p with a bounded deadline.
func (t *TLSTransport) Write(p []byte) (int, error) {
	if !t.Connected() {
		return 0, net.ErrClosed
	}
	if t.WriteTimeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.WriteTimeout))
	}
	n, err := t.conn.Write(p)
	if err != nil {
		// A timed out TLS write leaves the record layer unusable.
		t.markDead(err)
	}
	return n, err
}

// Close closes the underlying connection.
func (t *TLSTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.alive = false
	t.pending = nil
	logging.LogConnection(t.host, "closed")
	return err
}

func (t *TLSTransport) fill() {
	if !t.Connected() {
		return
	}
	if t.chunk == nil {
		t.chunk = make([]byte, readChunk)
	}

	_ = t.conn.SetReadDeadline(time.Now().Add(t.PollWait))
	n, err := t.conn.Read(t.chunk)
	if n > 0 {
		t.pending = append(t.pending, t.chunk[:n]...)
	}
	if err == nil || errors.Is(err, os.ErrDeadlineExceeded) {
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return
	}
	t.markDead(err)
}

func (t *TLSTransport) markDead(err error) {
	if !t.alive {
		return
	}
	t.alive = false
	logging.Warn("Transport failed",
		zap.String("host", t.host),
		zap.Error(err),
	)
}
