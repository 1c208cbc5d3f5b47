package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/muurk/castctl/internal/castproto"
	"github.com/muurk/castctl/internal/controller"
	"github.com/muurk/castctl/internal/devicetest"
	"github.com/muurk/castctl/internal/status"
)

const testPoll = 2 * time.Millisecond

// startRunner runs a Runner against dev; stop cancels it and returns the
// Run error, and is also called on cleanup.
func startRunner(t *testing.T, dev *devicetest.Device, cfg Config) (r *Runner, stop func() error) {
	t.Helper()
	cfg.Host = "10.0.0.5"
	cfg.PollInterval = testPoll
	r = New(controller.New(dev, controller.Options{}), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	var once sync.Once
	var runErr error
	stop = func() error {
		once.Do(func() {
			cancel()
			runErr = <-done
		})
		return runErr
	}
	t.Cleanup(func() { _ = stop() })
	return r, stop
}

// waitFor reads snapshots until ok accepts one
func waitFor(t *testing.T, updates <-chan controller.Snapshot, ok func(controller.Snapshot) bool) controller.Snapshot {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case snap, open := <-updates:
			if !open {
				t.Fatal("subscription closed while waiting")
			}
			if ok(snap) {
				return snap
			}
		case <-timeout:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func mediaKnown(s controller.Snapshot) bool { return s.MediaSessionID >= 0 }

func TestRunner_ReachesApplicationRunning(t *testing.T) {
	dev := devicetest.New()
	r, _ := startRunner(t, dev, Config{})

	_, updates, cancel := r.Subscribe()
	defer cancel()

	snap := waitFor(t, updates, mediaKnown)
	if snap.Title != "Test Track" || snap.PlayerState != status.Playing {
		t.Errorf("snapshot = %+v, want playing Test Track", snap)
	}
	if snap.Host != "10.0.0.5" {
		t.Errorf("Host = %q, want 10.0.0.5", snap.Host)
	}
}

func TestRunner_DoAppliesCommands(t *testing.T) {
	dev := devicetest.New()
	r, _ := startRunner(t, dev, Config{})

	_, updates, cancel := r.Subscribe()
	defer cancel()
	waitFor(t, updates, mediaKnown)

	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()

	if err := r.Do(ctx, Command{Kind: KindPause, Toggle: true}); err != nil {
		t.Fatalf("Do(pause) error = %v", err)
	}
	waitFor(t, updates, func(s controller.Snapshot) bool { return s.PlayerState == status.Paused })

	if err := r.Do(ctx, Command{Kind: KindVolume, Value: 0.8}); err != nil {
		t.Fatalf("Do(volume) error = %v", err)
	}
	waitFor(t, updates, func(s controller.Snapshot) bool { return s.Volume == 0.8 })
}

func TestRunner_DoRejectsUnknownCommand(t *testing.T) {
	r, _ := startRunner(t, devicetest.New(), Config{})
	if err := r.Do(context.Background(), Command{Kind: "launch"}); err == nil {
		t.Error("Do(launch) should fail")
	}
}

func TestRunner_DoNoActiveMedia(t *testing.T) {
	dev := devicetest.New()
	dev.App = nil
	dev.Media = nil
	r, _ := startRunner(t, dev, Config{})

	_, updates, cancel := r.Subscribe()
	defer cancel()
	waitFor(t, updates, func(s controller.Snapshot) bool { return s.Volume >= 0 })

	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := r.Do(ctx, Command{Kind: KindPlay}); !errors.Is(err, castproto.ErrNoActiveMedia) {
		t.Errorf("Do(play) error = %v, want ErrNoActiveMedia", err)
	}
}

func TestRunner_ReconnectsWithBackoff(t *testing.T) {
	dev := devicetest.New()
	dev.ConnectErr = devicetest.ErrRefused

	r, _ := startRunner(t, dev, Config{BackOff: backoff.NewConstantBackOff(time.Millisecond)})

	deadline := time.Now().Add(5 * time.Second)
	for dev.Dials() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("Dials() = %d, want at least 3 retries", dev.Dials())
		}
		time.Sleep(time.Millisecond)
	}

	dev.Update(func(d *devicetest.Device) { d.ConnectErr = nil })
	_, updates, cancel := r.Subscribe()
	defer cancel()
	waitFor(t, updates, mediaKnown)
}

func TestRunner_StopClosesSubscriptions(t *testing.T) {
	r, stop := startRunner(t, devicetest.New(), Config{})
	_, updates, cancel := r.Subscribe()
	defer cancel()

	if err := stop(); err != nil {
		t.Errorf("Run() error = %v", err)
	}
	for range updates {
	}

	if err := r.Do(context.Background(), Command{Kind: KindPlay}); !errors.Is(err, ErrStopped) {
		t.Errorf("Do() after stop error = %v, want ErrStopped", err)
	}

	// A late subscriber gets the final snapshot on an already closed channel.
	_, late, _ := r.Subscribe()
	n := 0
	for range late {
		n++
	}
	if n != 1 {
		t.Errorf("late subscription delivered %d snapshots, want 1", n)
	}
}

func TestRunner_SubscribeCancel(t *testing.T) {
	r, _ := startRunner(t, devicetest.New(), Config{})

	_, updates, cancel := r.Subscribe()
	if r.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d, want 1", r.Subscribers())
	}
	cancel()
	cancel()
	if r.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", r.Subscribers())
	}
	for range updates {
	}
}
