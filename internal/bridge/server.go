package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/muurk/castctl/internal/controller"
	"github.com/muurk/castctl/internal/logging"
	"github.com/muurk/castctl/internal/runner"
)

// Defaults for Config
const (
	DefaultAddr           = ":8080"
	DefaultCommandTimeout = 5 * time.Second
	DefaultRateLimit      = 60
	DefaultRateWindow     = time.Minute
	DefaultShutdownGrace  = 10 * time.Second
)

// Backend is what the bridge needs from a runner.Runner
type Backend interface {
	Latest() controller.Snapshot
	Do(ctx context.Context, cmd runner.Command) error
	Subscribe() (id uuid.UUID, updates <-chan controller.Snapshot, cancel func())
}

// Config holds the bridge configuration
type Config struct {
	Addr           string
	CommandTimeout time.Duration // bound on a single POST /commands call
	RateLimit      int           // command requests per RateWindow per client IP
	RateWindow     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}
	if c.RateLimit <= 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.RateWindow <= 0 {
		c.RateWindow = DefaultRateWindow
	}
	return c
}

// Server exposes a Backend over HTTP and WebSocket
type Server struct {
	config  Config
	backend Backend
	router  chi.Router

	httpServer *http.Server
	wg         sync.WaitGroup
	mu         sync.Mutex
	listener   net.Listener
	closing    bool
	streams    map[uuid.UUID]*websocket.Conn
}

// New creates a bridge server for backend
func New(config Config, backend Backend) *Server {
	s := &Server{
		config:  config.withDefaults(),
		backend: backend,
		streams: make(map[uuid.UUID]*websocket.Conn),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/status", s.handleStatus)
	r.Get("/ws", s.handleStream)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(
			s.config.RateLimit,
			s.config.RateWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(s.config.RateWindow.Seconds())))
				writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "too many commands, try again later")
			}),
		))
		r.Post("/commands/{name}", s.handleCommand)
	})
	return r
}

// Handler returns the router, for embedding or tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the bound listen address once Serve is running
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve listens on the configured address and blocks until ctx is
// cancelled, SIGINT or SIGTERM arrives, or the listener fails. It shuts
// down gracefully in the first two cases.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	logging.Info("Bridge listening",
		zap.String("address", ln.Addr().String()),
		zap.Int("rate_limit", s.config.RateLimit),
		zap.Duration("rate_window", s.config.RateWindow),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case sig := <-sigChan:
		logging.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("bridge server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownGrace)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops accepting requests, closes every status stream and waits
// for in-flight handlers.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down bridge...")

	var errs error
	s.mu.Lock()
	s.closing = true
	srv := s.httpServer
	for id, conn := range s.streams {
		logging.Debug("Closing status stream", zap.Stringer("stream", id))
		errs = multierr.Append(errs, closeStream(conn, websocket.CloseGoingAway, "server shutting down"))
	}
	s.mu.Unlock()

	if srv != nil {
		errs = multierr.Append(errs, srv.Shutdown(ctx))
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logging.Info("All streams closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
		errs = multierr.Append(errs, ctx.Err())
	}

	logging.Sync()
	return errs
}

// ActiveStreams returns the number of connected WebSocket clients
func (s *Server) ActiveStreams() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}
