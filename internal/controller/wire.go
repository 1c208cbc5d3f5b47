package controller

import (
	"github.com/muurk/castctl/internal/castproto"
	"github.com/muurk/castctl/internal/logging"
	"github.com/muurk/castctl/internal/metrics"
	"github.com/muurk/castctl/internal/transport"
)

// wire is the single write path shared by both channels. It owns the
// scratch buffer frames are encoded into.
type wire struct {
	t       transport.Transport
	scratch []byte
}

func newWire(t transport.Transport, size int) *wire {
	return &wire{t: t, scratch: make([]byte, size)}
}

func (w *wire) Connected() bool {
	return w.t.Connected()
}

func (w *wire) Send(env castproto.Envelope) error {
	label := channelLabel(env.DestinationID)
	ns := castproto.NamespaceName(env.Namespace)

	frame, err := castproto.EncodeFrame(w.scratch, env)
	if err != nil {
		metrics.IncSendError(castproto.ErrTypeEncoding.String())
		return err
	}

	n, err := w.t.Write(frame)
	if n < len(frame) || err != nil {
		metrics.IncSendError(castproto.ErrTypeShortWrite.String())
		return castproto.NewShortWriteError(n, len(frame), err)
	}

	logging.LogFrame("send", label, ns, len(frame))
	metrics.IncMessageSent(label, ns)
	return nil
}

func channelLabel(destinationID string) string {
	if destinationID == castproto.ReceiverID {
		return "device"
	}
	return "application"
}
