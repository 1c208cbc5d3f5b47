package channel

import (
	"fmt"
	"time"

	"github.com/muurk/castctl/internal/castproto"
)

// DeadFactor is how many ping intervals of silence mark a channel dead
const DeadFactor = 3

// Status is the computed liveness of a channel
type Status int

const (
	Disconnected Status = iota
	NeedsPing
	Connected
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case NeedsPing:
		return "needs-ping"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Link is the shared write path a channel sends through. The controller
// owns the transport and scratch buffer behind it; channels only hold this
// handle.
type Link interface {
	// Connected reports whether the underlying transport is up
	Connected() bool
	// Send encodes env into a frame and writes it in one call
	Send(env castproto.Envelope) error
}

// Channel is one virtual connection to a destination id, multiplexed with
// others over a single transport.
type Channel struct {
	name         string
	link         Link
	now          func() time.Time
	pingInterval time.Duration

	destinationID string
	lastActivity  time.Time
	connected     bool
}

// New creates a disconnected channel. name is used in logs and metrics only.
func New(name string, link Link, pingInterval time.Duration, now func() time.Time) *Channel {
	if now == nil {
		now = time.Now
	}
	return &Channel{
		name:         name,
		link:         link,
		now:          now,
		pingInterval: pingInterval,
	}
}

// Name returns the channel label
func (c *Channel) Name() string {
	return c.name
}

// DestinationID returns the id recorded by the last Connect
func (c *Channel) DestinationID() string {
	return c.destinationID
}

// LastActivity returns when the channel was last pinged
func (c *Channel) LastActivity() time.Time {
	return c.lastActivity
}

// Connect records destinationID and sends the CONNECT handshake. The
// keepalive clock starts now and the channel is marked connected even when
// the write fails; the write error is returned unchanged.
func (c *Channel) Connect(destinationID string) error {
	c.destinationID = destinationID
	err := c.WriteMsg(castproto.NamespaceConnection, castproto.ConnectPayload)
	c.Pinged()
	c.connected = true
	return err
}

// Pinged records inbound activity for this channel
func (c *Channel) Pinged() {
	c.lastActivity = c.now()
}

// SetDisconnect clears the connected latch. The destination and timers are
// kept.
func (c *Channel) SetDisconnect() {
	c.connected = false
}

// Status computes liveness from the latch, the transport and the time since
// the last activity. Observing a dead channel also clears the latch.
func (c *Channel) Status() Status {
	if !c.link.Connected() || !c.connected {
		return Disconnected
	}

	idle := c.now().Sub(c.lastActivity)
	if idle > DeadFactor*c.pingInterval {
		c.connected = false
		return Disconnected
	}
	if idle > c.pingInterval {
		return NeedsPing
	}
	return Connected
}

// WriteMsg sends payload on namespace to this channel's destination
func (c *Channel) WriteMsg(namespace, payload string) error {
	if !c.link.Connected() {
		return castproto.ErrTransportUnavailable
	}
	return c.link.Send(castproto.Envelope{
		SourceID:      castproto.SenderID,
		DestinationID: c.destinationID,
		Namespace:     namespace,
		PayloadUTF8:   payload,
	})
}
