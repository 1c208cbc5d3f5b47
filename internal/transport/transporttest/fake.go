// Package transporttest provides an in-memory transport.Transport for tests.
package transporttest

import (
	"bytes"
	"context"
	"errors"
	"net"
)

// Fake is an in-memory Transport. Inbound bytes are queued with Feed and
// everything written is captured for inspection.
type Fake struct {
	// ConnectErr is returned by the next Connect calls when set.
	ConnectErr error
	// WriteLimit caps how many bytes one Write accepts. Zero means no cap.
	WriteLimit int
	// WriteErr is returned by Write when set.
	WriteErr error

	Host  string
	Port  int
	Dials int

	connected bool
	closes    int
	inbound   bytes.Buffer
	written   [][]byte
}

// NewConnected returns a Fake that is already open.
func NewConnected() *Fake {
	return &Fake{connected: true}
}

func (f *Fake) Connect(_ context.Context, host string, port int) error {
	f.Dials++
	if f.ConnectErr != nil {
		f.connected = false
		return f.ConnectErr
	}
	f.Host = host
	f.Port = port
	f.connected = true
	return nil
}

func (f *Fake) Connected() bool { return f.connected }

func (f *Fake) Available() int { return f.inbound.Len() }

func (f *Fake) Peek(p []byte) int { return copy(p, f.inbound.Bytes()) }

func (f *Fake) Read(p []byte) int {
	n, _ := f.inbound.Read(p)
	return n
}

func (f *Fake) Write(p []byte) (int, error) {
	if !f.connected {
		return 0, net.ErrClosed
	}
	if f.WriteErr != nil {
		return 0, f.WriteErr
	}
	n := len(p)
	if f.WriteLimit > 0 && n > f.WriteLimit {
		n = f.WriteLimit
	}
	f.written = append(f.written, append([]byte(nil), p[:n]...))
	return n, nil
}

func (f *Fake) Close() error {
	f.connected = false
	f.closes++
	f.inbound.Reset()
	return nil
}

// Feed queues inbound bytes.
func (f *Fake) Feed(b []byte) {
	f.inbound.Write(b)
}

// Drop simulates the peer going away without a Close from our side.
func (f *Fake) Drop() {
	f.connected = false
}

// Closes reports how many times Close was called.
func (f *Fake) Closes() int { return f.closes }

// Writes returns every accepted write, oldest first.
func (f *Fake) Writes() [][]byte { return f.written }

// LastWrite returns the most recent write or nil.
func (f *Fake) LastWrite() []byte {
	if len(f.written) == 0 {
		return nil
	}
	return f.written[len(f.written)-1]
}

// Reset forgets captured writes.
func (f *Fake) Reset() { f.written = nil }

// ErrRefused is a convenience ConnectErr.
var ErrRefused = errors.New("connection refused")
