package channel

import (
	"errors"
	"testing"
	"time"

	"github.com/muurk/castctl/internal/castproto"
)

type recordingLink struct {
	up   bool
	err  error
	sent []castproto.Envelope
}

func (l *recordingLink) Connected() bool { return l.up }

func (l *recordingLink) Send(env castproto.Envelope) error {
	l.sent = append(l.sent, env)
	return l.err
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestChannel(link *recordingLink) (*Channel, *clock) {
	clk := &clock{t: time.Unix(1700000000, 0)}
	return New("device", link, 5*time.Second, clk.now), clk
}

func TestChannel_InitialStatus(t *testing.T) {
	ch, _ := newTestChannel(&recordingLink{up: true})
	if got := ch.Status(); got != Disconnected {
		t.Errorf("Status() = %v, want %v", got, Disconnected)
	}
}

func TestChannel_ConnectSendsHandshake(t *testing.T) {
	link := &recordingLink{up: true}
	ch, _ := newTestChannel(link)

	if err := ch.Connect(castproto.ReceiverID); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if len(link.sent) != 1 {
		t.Fatalf("sent %d envelopes, want 1", len(link.sent))
	}
	want := castproto.Envelope{
		SourceID:      castproto.SenderID,
		DestinationID: castproto.ReceiverID,
		Namespace:     castproto.NamespaceConnection,
		PayloadUTF8:   `{"type":"CONNECT"}`,
	}
	if link.sent[0] != want {
		t.Errorf("handshake = %+v, want %+v", link.sent[0], want)
	}
	if got := ch.Status(); got != Connected {
		t.Errorf("Status() = %v, want %v", got, Connected)
	}
	if ch.DestinationID() != castproto.ReceiverID {
		t.Errorf("DestinationID() = %q, want %q", ch.DestinationID(), castproto.ReceiverID)
	}
}

func TestChannel_ConnectReturnsWriteError(t *testing.T) {
	link := &recordingLink{up: true, err: castproto.NewShortWriteError(3, 20, nil)}
	ch, _ := newTestChannel(link)

	err := ch.Connect("web-7")
	var perr *castproto.Error
	if !errors.As(err, &perr) || perr.Type != castproto.ErrTypeShortWrite {
		t.Errorf("Connect() error = %v, want short write", err)
	}
	// The latch is set regardless of the write result.
	if got := ch.Status(); got != Connected {
		t.Errorf("Status() = %v, want %v", got, Connected)
	}
}

func TestChannel_StatusThresholds(t *testing.T) {
	tests := []struct {
		name  string
		idle  time.Duration
		want  Status
		latch bool
	}{
		{name: "fresh", idle: 0, want: Connected, latch: true},
		{name: "at ping interval", idle: 5 * time.Second, want: Connected, latch: true},
		{name: "past ping interval", idle: 5*time.Second + time.Millisecond, want: NeedsPing, latch: true},
		{name: "at dead threshold", idle: 15 * time.Second, want: NeedsPing, latch: true},
		{name: "past dead threshold", idle: 15*time.Second + time.Millisecond, want: Disconnected, latch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, clk := newTestChannel(&recordingLink{up: true})
			_ = ch.Connect("receiver-0")
			clk.advance(tt.idle)

			if got := ch.Status(); got != tt.want {
				t.Errorf("Status() = %v, want %v", got, tt.want)
			}
			if ch.connected != tt.latch {
				t.Errorf("connected = %v, want %v", ch.connected, tt.latch)
			}
		})
	}
}

func TestChannel_DeadStaysDeadAfterActivity(t *testing.T) {
	ch, clk := newTestChannel(&recordingLink{up: true})
	_ = ch.Connect("receiver-0")
	clk.advance(time.Minute)
	_ = ch.Status()

	ch.Pinged()
	if got := ch.Status(); got != Disconnected {
		t.Errorf("Status() after ping on dead channel = %v, want %v", got, Disconnected)
	}
}

func TestChannel_PingedResetsClock(t *testing.T) {
	ch, clk := newTestChannel(&recordingLink{up: true})
	_ = ch.Connect("receiver-0")

	clk.advance(6 * time.Second)
	if got := ch.Status(); got != NeedsPing {
		t.Fatalf("Status() = %v, want %v", got, NeedsPing)
	}
	ch.Pinged()
	if got := ch.Status(); got != Connected {
		t.Errorf("Status() after Pinged = %v, want %v", got, Connected)
	}
}

func TestChannel_TransportDown(t *testing.T) {
	link := &recordingLink{up: true}
	ch, _ := newTestChannel(link)
	_ = ch.Connect("receiver-0")

	link.up = false
	if got := ch.Status(); got != Disconnected {
		t.Errorf("Status() = %v, want %v", got, Disconnected)
	}
	if err := ch.WriteMsg(castproto.NamespaceHeartbeat, castproto.PingPayload); !errors.Is(err, castproto.ErrTransportUnavailable) {
		t.Errorf("WriteMsg() error = %v, want ErrTransportUnavailable", err)
	}
	if len(link.sent) != 1 {
		t.Errorf("sent %d envelopes, want only the handshake", len(link.sent))
	}

	// The latch survives a transport blip.
	link.up = true
	if got := ch.Status(); got != Connected {
		t.Errorf("Status() after transport returns = %v, want %v", got, Connected)
	}
}

func TestChannel_SetDisconnectKeepsDestination(t *testing.T) {
	ch, _ := newTestChannel(&recordingLink{up: true})
	_ = ch.Connect("web-9")
	ch.SetDisconnect()

	if got := ch.Status(); got != Disconnected {
		t.Errorf("Status() = %v, want %v", got, Disconnected)
	}
	if ch.DestinationID() != "web-9" {
		t.Errorf("DestinationID() = %q, want %q", ch.DestinationID(), "web-9")
	}
}

func TestStatus_String(t *testing.T) {
	if Disconnected.String() != "disconnected" || NeedsPing.String() != "needs-ping" || Connected.String() != "connected" {
		t.Error("unexpected Status names")
	}
	if Status(9).String() != "Status(9)" {
		t.Errorf("Status(9).String() = %q", Status(9).String())
	}
}
