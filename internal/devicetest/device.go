// Package devicetest provides an in-memory Cast receiver for tests. It
// implements transport.Transport and answers status requests, pings and
// control commands the way a real receiver does.
package devicetest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"

	"github.com/muurk/castctl/internal/castproto"
)

// App describes the application the device reports as running
type App struct {
	SessionID   string
	DisplayName string
	StatusText  string
}

// Media describes the current media session
type Media struct {
	MediaSessionID int64
	PlayerState    string
	CurrentTime    float64
	Duration       float64
	Title          string
	Artist         string
}

// Device is a scripted receiver. All methods are safe for concurrent use.
type Device struct {
	mu sync.Mutex

	// Volume and Muted are reported in RECEIVER_STATUS
	Volume float64
	Muted  bool
	// App is reported in RECEIVER_STATUS when set
	App *App
	// Media is reported in MEDIA_STATUS when set
	Media *Media
	// Silent stops all replies, to simulate a hung device
	Silent bool
	// ConnectErr makes Connect fail
	ConnectErr error

	connected bool
	dials     int
	inbound   bytes.Buffer
	received  []castproto.Envelope
	scratch   []byte
}

// New returns a device at half volume with a media session playing
func New() *Device {
	return &Device{
		Volume: 0.5,
		App:    &App{SessionID: "app-1", DisplayName: "Default Media Receiver", StatusText: "Now Casting"},
		Media: &Media{
			MediaSessionID: 1,
			PlayerState:    "PLAYING",
			CurrentTime:    30,
			Duration:       180,
			Title:          "Test Track",
			Artist:         "Test Artist",
		},
		scratch: make([]byte, 4096),
	}
}

// ErrRefused is a convenience ConnectErr
var ErrRefused = errors.New("connection refused")

func (d *Device) Connect(_ context.Context, _ string, _ int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.ConnectErr != nil {
		return d.ConnectErr
	}
	d.connected = true
	d.inbound.Reset()
	return nil
}

func (d *Device) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

func (d *Device) Available() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inbound.Len()
}

func (d *Device) Peek(p []byte) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copy(p, d.inbound.Bytes())
}

func (d *Device) Read(p []byte) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, _ := d.inbound.Read(p)
	return n
}

func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return 0, net.ErrClosed
	}
	env, err := castproto.DecodeFrame(p)
	if err != nil {
		return 0, err
	}
	d.received = append(d.received, env)
	if !d.Silent {
		d.respond(env)
	}
	return len(p), nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = false
	d.inbound.Reset()
	return nil
}

// Drop simulates the network going away
func (d *Device) Drop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = false
}

// Update runs fn with the device locked, for changing its state mid-test
func (d *Device) Update(fn func(d *Device)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d)
}

// Dials returns how many times Connect was called
func (d *Device) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// Received returns every envelope the device was sent
func (d *Device) Received() []castproto.Envelope {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]castproto.Envelope(nil), d.received...)
}

// ReceivedTypes returns the payload "type" of every envelope received on
// namespace
func (d *Device) ReceivedTypes(namespace string) []string {
	var out []string
	for _, env := range d.Received() {
		if env.Namespace == namespace {
			out = append(out, payloadType(env.PayloadUTF8))
		}
	}
	return out
}

func (d *Device) respond(env castproto.Envelope) {
	var msg struct {
		Type   string `json:"type"`
		Volume *struct {
			Level *float64 `json:"level"`
			Muted *bool    `json:"muted"`
		} `json:"volume"`
		CurrentTime *float64 `json:"currentTime"`
	}
	if err := json.Unmarshal([]byte(env.PayloadUTF8), &msg); err != nil {
		return
	}

	switch env.Namespace {
	case castproto.NamespaceHeartbeat:
		if msg.Type == castproto.TypePing {
			d.send(env.DestinationID, castproto.NamespaceHeartbeat, castproto.PongPayload)
		}

	case castproto.NamespaceReceiver:
		if msg.Type == castproto.TypeSetVolume && msg.Volume != nil {
			if msg.Volume.Level != nil {
				d.Volume = *msg.Volume.Level
			}
			if msg.Volume.Muted != nil {
				d.Muted = *msg.Volume.Muted
			}
		}
		d.send(castproto.ReceiverID, castproto.NamespaceReceiver, d.receiverStatus())

	case castproto.NamespaceMedia:
		if d.Media != nil {
			switch msg.Type {
			case castproto.TypePlay:
				d.Media.PlayerState = "PLAYING"
			case castproto.TypePause:
				d.Media.PlayerState = "PAUSED"
			case castproto.TypeSeek:
				if msg.CurrentTime != nil {
					d.Media.CurrentTime = *msg.CurrentTime
				}
			case castproto.TypeQueueNext, castproto.TypeQueuePrev:
				d.Media.CurrentTime = 0
			}
		}
		d.send(env.DestinationID, castproto.NamespaceMedia, d.mediaStatus())
	}
}

func (d *Device) send(source, namespace, payload string) {
	frame, err := castproto.EncodeFrame(d.scratch, castproto.Envelope{
		SourceID:      source,
		DestinationID: castproto.SenderID,
		Namespace:     namespace,
		PayloadUTF8:   payload,
	})
	if err != nil {
		return
	}
	d.inbound.Write(frame)
}

func (d *Device) receiverStatus() string {
	st := map[string]any{
		"volume": map[string]any{"level": d.Volume, "muted": d.Muted},
	}
	if d.App != nil {
		st["applications"] = []any{map[string]any{
			"sessionId":   d.App.SessionID,
			"displayName": d.App.DisplayName,
			"statusText":  d.App.StatusText,
		}}
	}
	return marshal(map[string]any{"type": castproto.TypeReceiverStatus, "requestId": castproto.RequestIDStatus, "status": st})
}

func (d *Device) mediaStatus() string {
	entries := []any{}
	if d.Media != nil {
		entries = append(entries, map[string]any{
			"mediaSessionId": d.Media.MediaSessionID,
			"playerState":    d.Media.PlayerState,
			"currentTime":    d.Media.CurrentTime,
			"media": map[string]any{
				"duration": d.Media.Duration,
				"metadata": map[string]any{"title": d.Media.Title, "artist": d.Media.Artist},
			},
		})
	}
	return marshal(map[string]any{"type": castproto.TypeMediaStatus, "status": entries})
}

func marshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func payloadType(payload string) string {
	var msg struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal([]byte(payload), &msg)
	return msg.Type
}
