package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/castctl/internal/castproto"
	"github.com/muurk/castctl/internal/controller"
	"github.com/muurk/castctl/internal/logging"
	"github.com/muurk/castctl/internal/metrics"
	"github.com/muurk/castctl/internal/runner"
)

// maxBodySize caps POST /commands bodies
const maxBodySize = 1 << 10

// commandBody is the optional JSON body of POST /commands/{name}
type commandBody struct {
	Relative bool    `json:"relative"`
	Value    float64 `json:"value"`
	Toggle   bool    `json:"toggle"`
	Mute     bool    `json:"mute"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type commandResponse struct {
	Command string              `json:"command"`
	Status  controller.Snapshot `json:"status"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Latest())
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var body commandBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	cmd := runner.Command{
		Kind:     runner.Kind(chi.URLParam(r, "name")),
		Relative: body.Relative,
		Value:    body.Value,
		Toggle:   body.Toggle,
		Mute:     body.Mute,
	}
	if err := cmd.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "unknown_command", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.CommandTimeout)
	defer cancel()

	if err := s.backend.Do(ctx, cmd); err != nil {
		code, kind := classify(err)
		logging.Debug("Bridge command rejected",
			zap.Stringer("command", cmd),
			zap.Int("status", code),
			zap.Error(err),
		)
		writeError(w, code, kind, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, commandResponse{
		Command: cmd.String(),
		Status:  s.backend.Latest(),
	})
}

// classify maps a command error to an HTTP status and a short error code
func classify(err error) (int, string) {
	switch {
	case castproto.IsBusy(err):
		return http.StatusConflict, "busy"
	case castproto.IsNoActiveMedia(err):
		return http.StatusUnprocessableEntity, "no_active_media"
	case castproto.IsTransportError(err), errors.Is(err, runner.ErrStopped):
		return http.StatusServiceUnavailable, "transport_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, kind, detail string) {
	writeJSON(w, code, errorResponse{Error: kind, Detail: detail})
}

// requestLogger records every request in the access log and the HTTP
// metrics, labelled by route pattern.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		code := ww.Status()
		if code == 0 {
			// hijacked by the WebSocket upgrader
			code = http.StatusOK
			if websocket.IsWebSocketUpgrade(r) {
				code = http.StatusSwitchingProtocols
			}
		}

		metrics.ObserveHTTPRequest(route, r.Method, code, time.Since(start))
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, code)
	})
}
