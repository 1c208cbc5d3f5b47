package controller

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/muurk/castctl/internal/castproto"
	"github.com/muurk/castctl/internal/transport/transporttest"
)

type testClock struct{ t time.Time }

func newTestClock() *testClock {
	return &testClock{t: time.Unix(1700000000, 0)}
}

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// inbound builds a device-to-sender frame independently of castproto's
// encoder.
func inbound(source, namespace, payload string) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, 0)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, source)
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendString(b, "sender-0")
	b = protowire.AppendTag(b, 4, protowire.BytesType)
	b = protowire.AppendString(b, namespace)
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, 0)
	b = protowire.AppendTag(b, 6, protowire.BytesType)
	b = protowire.AppendString(b, payload)

	frame := make([]byte, 4, 4+len(b))
	binary.BigEndian.PutUint32(frame, uint32(len(b)))
	return append(frame, b...)
}

func newTestController(t *testing.T, opts Options) (*Controller, *transporttest.Fake, *testClock) {
	t.Helper()
	clk := newTestClock()
	opts.Now = clk.Now
	fake := &transporttest.Fake{}
	return New(fake, opts), fake, clk
}

func connectedController(t *testing.T) (*Controller, *transporttest.Fake, *testClock) {
	t.Helper()
	c, fake, clk := newTestController(t, Options{})
	if err := c.Connect(context.Background(), "10.0.0.5"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	fake.Reset()
	return c, fake, clk
}

const (
	receiverWithApp = `{"type":"RECEIVER_STATUS","requestId":1,"status":{"volume":{"level":0.5,"muted":false},` +
		`"applications":[{"sessionId":"abc","displayName":"Default Media Receiver","statusText":"Ready"}]}}`
	receiverIdle   = `{"type":"RECEIVER_STATUS","requestId":1,"status":{"volume":{"level":0.25,"muted":true}}}`
	mediaPlaying   = `{"type":"MEDIA_STATUS","status":[{"mediaSessionId":7,"currentTime":42.5,"playerState":"PLAYING","media":{"duration":215.3,"metadata":{"title":"Song","artist":"Band"}}}]}`
	closePayload   = `{"type":"CLOSE"}`
	pongPayload    = `{"type":"PONG"}`
	appSessionID   = "abc"
	responseWindow = DefaultResponseWindow + time.Millisecond
)

// runningController returns a controller with an application channel up
// and a media session known.
func runningController(t *testing.T) (*Controller, *transporttest.Fake, *testClock) {
	t.Helper()
	c, fake, clk := connectedController(t)

	c.Loop() // device GET_STATUS
	fake.Feed(inbound(castproto.ReceiverID, castproto.NamespaceReceiver, receiverWithApp))
	c.Loop() // -> ConnectToApplication
	c.Loop() // application CONNECT
	c.Loop() // media GET_STATUS
	fake.Feed(inbound(appSessionID, castproto.NamespaceMedia, mediaPlaying))
	if got := c.Loop(); got != ApplicationRunning {
		t.Fatalf("setup Loop() = %v, want %v", got, ApplicationRunning)
	}
	fake.Reset()
	return c, fake, clk
}

func decodeWrites(t *testing.T, fake *transporttest.Fake) []castproto.Envelope {
	t.Helper()
	var out []castproto.Envelope
	for _, w := range fake.Writes() {
		env, err := castproto.DecodeFrame(w)
		if err != nil {
			t.Fatalf("DecodeFrame(% x) error = %v", w, err)
		}
		out = append(out, env)
	}
	return out
}

func lastSent(t *testing.T, fake *transporttest.Fake) castproto.Envelope {
	t.Helper()
	envs := decodeWrites(t, fake)
	if len(envs) == 0 {
		t.Fatal("nothing was sent")
	}
	return envs[len(envs)-1]
}
