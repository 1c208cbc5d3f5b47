package controller

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/muurk/castctl/internal/castproto"
	"github.com/muurk/castctl/internal/channel"
	"github.com/muurk/castctl/internal/logging"
	"github.com/muurk/castctl/internal/metrics"
	"github.com/muurk/castctl/internal/status"
	"github.com/muurk/castctl/internal/transport"
)

// Controller drives one Cast device session. It is not safe for concurrent
// use; a single goroutine calls Connect, Loop and the command methods.
type Controller struct {
	opts      Options
	transport transport.Transport
	wire      *wire
	reader    *castproto.FrameReader
	frame     []byte

	device *channel.Channel
	app    *channel.Channel
	model  *status.Model

	state   ConnectionStatus
	tracker requestTracker
	host    string
}

// New creates a disconnected controller that will run over t
func New(t transport.Transport, opts Options) *Controller {
	opts = opts.withDefaults()

	w := newWire(t, opts.FrameBufferSize)
	model := status.NewModel()
	model.ScratchSize = opts.JSONScratchSize

	c := &Controller{
		opts:      opts,
		transport: t,
		wire:      w,
		frame:     make([]byte, opts.FrameBufferSize),
		device:    channel.New("device", w, opts.PingInterval, opts.Now),
		app:       channel.New("application", w, opts.PingInterval, opts.Now),
		model:     model,
		state:     Disconnected,
		tracker:   newRequestTracker(opts.MaxErrors),
	}
	c.reader = &castproto.FrameReader{
		Timeout: opts.ReadTimeout,
		Now:     opts.Now,
		OnDrop:  c.frameDropped,
	}
	return c
}

// Connect opens the transport to host and performs the device channel
// handshake. A transport failure is returned as a TransportOpen error and
// leaves the controller Disconnected; a handshake write failure leaves it
// TransportAlive.
func (c *Controller) Connect(ctx context.Context, host string) error {
	if c.transport.Connected() {
		_ = c.transport.Close()
	}
	c.reset()
	c.host = host

	if err := c.transport.Connect(ctx, host, c.opts.Port); err != nil {
		logging.LogConnection(host, "connect failed")
		return castproto.NewTransportOpenError(host, err)
	}
	c.setState(TransportAlive)

	if err := c.device.Connect(castproto.ReceiverID); err != nil {
		logging.Warn("Device handshake failed",
			zap.String("host", host),
			zap.Error(err))
		return err
	}
	c.setState(Connected)
	logging.LogConnection(host, "connected")
	return nil
}

// Close tears down the session and the transport
func (c *Controller) Close() error {
	return c.teardown()
}

// Loop runs one poll cycle: drain every buffered frame, then, if nothing
// arrived, send at most one request. It never blocks longer than the read
// timeout per partial frame and always returns the current phase.
func (c *Controller) Loop() ConnectionStatus {
	if !c.transport.Connected() {
		_ = c.teardown()
		return c.report()
	}

	if !c.drain() {
		c.sendPhase()
	}
	return c.report()
}

// GetConnection returns the observable phase. An outstanding request
// reports WaitingForResponse; a live application channel reports
// ApplicationRunning; otherwise the stored phase is returned.
func (c *Controller) GetConnection() ConnectionStatus {
	if c.tracker.Outstanding() {
		return WaitingForResponse
	}
	if c.app.Status() != channel.Disconnected {
		return ApplicationRunning
	}
	return c.state
}

// Snapshot returns the phase together with the cached status
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Connection: c.GetConnection(),
		Host:       c.host,
		Snapshot:   c.model.Snapshot(),
	}
}

// Status returns the cached status fields
func (c *Controller) Status() status.Snapshot {
	return c.model.Snapshot()
}

// Host returns the host passed to the last Connect
func (c *Controller) Host() string {
	return c.host
}

func (c *Controller) report() ConnectionStatus {
	s := c.GetConnection()
	metrics.SetConnectionState(s.String())
	return s
}

func (c *Controller) setState(s ConnectionStatus) {
	if c.state != s {
		logging.Debug("Connection phase changed",
			zap.String("host", c.host),
			zap.Stringer("from", c.state),
			zap.Stringer("to", s))
	}
	c.state = s
}

// reset forgets everything tied to the previous session
func (c *Controller) reset() {
	c.tracker.Reset()
	c.device.SetDisconnect()
	c.app.SetDisconnect()
	c.model.SessionID = ""
	c.model.ClearMedia()
	c.setState(Disconnected)
}

func (c *Controller) teardown() error {
	if c.state != Disconnected {
		logging.LogConnection(c.host, "disconnected")
	}
	err := c.transport.Close()
	c.reset()
	return err
}

// drain reads frames until none is left and reports whether any arrived
func (c *Controller) drain() bool {
	received := false
	for {
		n := c.reader.ReadFrame(c.transport, c.frame)
		if n == 0 {
			return received
		}
		received = true
		c.tracker.Received()
		metrics.IncFrameReceived()
		c.scan(c.frame[:n])
	}
}

func (c *Controller) frameDropped(reason castproto.DropReason, bytes int) {
	logging.Warn("Discarded inbound bytes",
		zap.String("reason", string(reason)),
		zap.Int("bytes", bytes))
	metrics.RecordFrameDrop(string(reason), bytes)
}

// scan walks the envelope fields in order. The source id picks the
// channel, the namespace picks the interpreter, and the payload is
// dispatched with whatever routing has been seen so far.
func (c *Controller) scan(frame []byte) {
	cur := castproto.NewCursor(castproto.FrameBody(frame))

	var route *channel.Channel
	var namespace string
	for {
		f, err := cur.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			logging.Warn("Stopped scanning inbound frame",
				zap.Int("length", len(frame)),
				zap.Int("offset", cur.Offset()),
				zap.Error(err))
			logging.LogRawBytes("Rejected frame", frame)
			metrics.RecordFrameDrop(scanDropReason(err), 0)
			return
		}
		if f.Wire != castproto.WireBytes {
			continue
		}

		switch f.Tag {
		case castproto.FieldSourceID:
			route = c.attribute(f.Data)
		case castproto.FieldNamespace:
			namespace = string(f.Data)
		case castproto.FieldPayloadUTF8:
			c.dispatch(route, namespace, f.Data)
		}
	}
}

func scanDropReason(err error) string {
	if errors.Is(err, castproto.ErrTruncatedFrame) {
		return "truncated"
	}
	return "malformed"
}

// attribute maps a source id to a channel and records the activity. A
// closed application channel no longer claims its old session's frames.
func (c *Controller) attribute(source []byte) *channel.Channel {
	var ch *channel.Channel
	switch src := string(source); {
	case src != "" && src == c.device.DestinationID():
		ch = c.device
	case src != "" && src == c.app.DestinationID() && c.app.Status() != channel.Disconnected:
		ch = c.app
	default:
		return nil
	}
	ch.Pinged()
	return ch
}

func (c *Controller) dispatch(route *channel.Channel, namespace string, payload []byte) {
	if route == nil {
		return
	}
	logging.LogFrame("recv", route.Name(), castproto.NamespaceName(namespace), len(payload))

	switch namespace {
	case castproto.NamespaceHeartbeat:
		return
	case castproto.NamespaceConnection:
		c.remoteClose(route)
	case castproto.NamespaceReceiver:
		if route == c.device {
			c.applyReceiverStatus(payload)
		}
	case castproto.NamespaceMedia:
		if route == c.app {
			c.applyMediaStatus(payload)
		}
	}
}

// remoteClose handles a disconnect notice on the connection namespace
func (c *Controller) remoteClose(route *channel.Channel) {
	logging.Info("Remote closed virtual connection",
		zap.String("host", c.host),
		zap.String("channel", route.Name()))

	c.app.SetDisconnect()
	c.model.ClearMedia()
	if route == c.device {
		c.device.SetDisconnect()
		c.setState(TransportAlive)
	}
}

func (c *Controller) applyReceiverStatus(payload []byte) {
	applied, err := c.model.ApplyReceiverStatus(payload)
	if err != nil {
		logging.Debug("Ignoring receiver payload", zap.Error(err))
		return
	}
	if !applied {
		return
	}

	session := c.model.SessionID
	switch {
	case session != "" && (c.app.Status() == channel.Disconnected || c.app.DestinationID() != session):
		c.setState(ConnectToApplication)
	case session == "" && c.state == ConnectToApplication:
		c.setState(Connected)
	}
}

func (c *Controller) applyMediaStatus(payload []byte) {
	if _, err := c.model.ApplyMediaStatus(payload); err != nil {
		logging.Debug("Ignoring media payload", zap.Error(err))
	}
}

// sendPhase runs when the drain phase received nothing
func (c *Controller) sendPhase() {
	now := c.opts.Now()

	switch c.tracker.Check(now, c.opts.ResponseWindow) {
	case gateHold:
		return
	case gateDead:
		logging.Warn("No response from device, closing connection",
			zap.String("host", c.host),
			zap.Int("attempts", c.opts.MaxErrors))
		metrics.IncDeadLink()
		_ = c.teardown()
		return
	}

	if c.state == ConnectToApplication {
		if err := c.app.Connect(c.model.SessionID); err != nil {
			logging.Debug("Application handshake failed", zap.Error(err))
			return
		}
		c.setState(Connected)
		return
	}

	var err error
	appStatus := c.app.Status()
	switch {
	case appStatus == channel.Disconnected:
		err = c.device.WriteMsg(castproto.NamespaceReceiver, castproto.GetStatusPayload)
	case c.device.Status() == channel.NeedsPing:
		err = c.device.WriteMsg(castproto.NamespaceHeartbeat, castproto.PingPayload)
	case appStatus == channel.Connected:
		err = c.app.WriteMsg(castproto.NamespaceMedia, castproto.GetStatusPayload)
	case appStatus == channel.NeedsPing:
		err = c.app.WriteMsg(castproto.NamespaceHeartbeat, castproto.PingPayload)
	default:
		return
	}

	if err != nil {
		logging.Debug("Poll request failed", zap.Error(err))
		return
	}
	c.tracker.Sent(now)
}
