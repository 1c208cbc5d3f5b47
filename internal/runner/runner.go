package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/castctl/internal/castproto"
	"github.com/muurk/castctl/internal/controller"
	"github.com/muurk/castctl/internal/logging"
	"github.com/muurk/castctl/internal/metrics"
)

// Defaults for Config
const (
	DefaultPollInterval   = 50 * time.Millisecond
	DefaultConnectTimeout = 5 * time.Second
	DefaultMaxBackoff     = 30 * time.Second
)

// ErrStopped is returned by Do once Run has returned
var ErrStopped = errors.New("runner stopped")

// Config configures a Runner
type Config struct {
	// Host is the device address passed to Controller.Connect
	Host string
	// PollInterval is the Loop cadence
	PollInterval time.Duration
	// ConnectTimeout bounds each connect attempt
	ConnectTimeout time.Duration
	// BackOff produces reconnect delays; nil means exponential up to
	// DefaultMaxBackoff
	BackOff backoff.BackOff
}

type request struct {
	ctx  context.Context
	cmd  Command
	done chan error
}

// Runner owns a Controller and is the only goroutine that touches it.
// Other goroutines issue commands through Do and observe status through
// Subscribe.
type Runner struct {
	ctrl *controller.Controller
	cfg  Config

	requests chan request
	stopped  chan struct{}
	pending  []request

	mu     sync.Mutex
	subs   map[uuid.UUID]chan controller.Snapshot
	latest controller.Snapshot
}

// New creates a runner for ctrl. Call Run to start it.
func New(ctrl *controller.Controller, cfg Config) *Runner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.BackOff == nil {
		b := backoff.NewExponentialBackOff()
		b.MaxInterval = DefaultMaxBackoff
		cfg.BackOff = b
	}
	return &Runner{
		ctrl:     ctrl,
		cfg:      cfg,
		requests: make(chan request),
		stopped:  make(chan struct{}),
		subs:     make(map[uuid.UUID]chan controller.Snapshot),
		latest:   ctrl.Snapshot(),
	}
}

// Run polls the controller until ctx is cancelled, reconnecting with
// backoff whenever the session is lost. It closes the controller and every
// subscription before returning.
func (r *Runner) Run(ctx context.Context) error {
	defer r.shutdown()

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	logging.Info("Poll supervisor started",
		zap.String("host", r.cfg.Host),
		zap.Duration("poll_interval", r.cfg.PollInterval))

	var retryAt time.Time
	for {
		select {
		case <-ctx.Done():
			logging.Info("Poll supervisor stopping", zap.String("host", r.cfg.Host))
			return r.ctrl.Close()

		case req := <-r.requests:
			r.pending = append(r.pending, req)
			r.flush()
			r.publish()

		case now := <-ticker.C:
			if r.ctrl.GetConnection() == controller.Disconnected {
				if now.Before(retryAt) {
					continue
				}
				if !r.connect(ctx) {
					retryAt = now.Add(r.cfg.BackOff.NextBackOff())
					r.publish()
					continue
				}
			}
			r.ctrl.Loop()
			r.flush()
			r.publish()
		}
	}
}

// flush issues queued commands in order. A command refused as busy stays
// queued, together with everything behind it, until a later cycle or until
// its caller gives up.
func (r *Runner) flush() {
	for len(r.pending) > 0 {
		req := r.pending[0]
		if req.ctx.Err() != nil {
			r.pending = r.pending[1:]
			continue
		}

		err := req.cmd.Apply(r.ctrl)
		if castproto.IsBusy(err) {
			return
		}
		logging.Debug("Command issued",
			zap.Stringer("command", req.cmd),
			zap.Error(err))
		req.done <- err
		r.pending = r.pending[1:]
	}
}

func (r *Runner) connect(ctx context.Context) bool {
	metrics.IncReconnect()
	cctx, cancel := context.WithTimeout(ctx, r.cfg.ConnectTimeout)
	defer cancel()

	err := r.ctrl.Connect(cctx, r.cfg.Host)
	if err != nil && r.ctrl.GetConnection() == controller.Disconnected {
		logging.Warn("Connect failed, will retry",
			zap.String("host", r.cfg.Host),
			zap.Error(err))
		return false
	}
	if err != nil {
		logging.Warn("Device handshake failed", zap.String("host", r.cfg.Host), zap.Error(err))
	}
	r.cfg.BackOff.Reset()
	return true
}

// Do hands cmd to the poll goroutine and waits for the controller's
// answer. A command refused because a poll request is outstanding is
// retried on later cycles until ctx ends.
func (r *Runner) Do(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	req := request{ctx: ctx, cmd: cmd, done: make(chan error, 1)}

	select {
	case r.requests <- req:
	case <-r.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		return err
	case <-r.stopped:
		select {
		case err := <-req.done:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Latest returns the most recently published snapshot
func (r *Runner) Latest() controller.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// Subscribe registers for snapshot updates. The channel receives the
// current snapshot immediately and then every change; a slow reader only
// sees the newest value. cancel unregisters and closes the channel.
func (r *Runner) Subscribe() (id uuid.UUID, updates <-chan controller.Snapshot, cancel func()) {
	id = uuid.New()
	ch := make(chan controller.Snapshot, 1)

	r.mu.Lock()
	ch <- r.latest
	select {
	case <-r.stopped:
		close(ch)
	default:
		r.subs[id] = ch
	}
	r.mu.Unlock()

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if c, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(c)
			}
		})
	}
	return id, ch, cancel
}

// Subscribers returns the number of active subscriptions
func (r *Runner) Subscribers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

func (r *Runner) publish() {
	snap := r.ctrl.Snapshot()

	r.mu.Lock()
	defer r.mu.Unlock()
	if snap == r.latest {
		return
	}
	r.latest = snap
	for _, ch := range r.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

func (r *Runner) shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	close(r.stopped)
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}
