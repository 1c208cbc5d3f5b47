package runner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/castctl/internal/castproto"
	"github.com/muurk/castctl/internal/controller"
	"github.com/muurk/castctl/internal/logging"
)

// Exec runs a single session on the calling goroutine: connect to host,
// poll until the status has settled (or, with cmd set, until the command's
// guard passes), issue cmd, poll once more and disconnect. It returns the
// last snapshot even on error.
//
// Without a deadline on ctx Exec can wait forever for a media session;
// callers should always bound it.
func Exec(ctx context.Context, ctrl *controller.Controller, host string, cmd *Command, poll time.Duration) (controller.Snapshot, error) {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	if cmd != nil {
		if err := cmd.Validate(); err != nil {
			return ctrl.Snapshot(), err
		}
	}

	if err := ctrl.Connect(ctx, host); err != nil {
		return ctrl.Snapshot(), err
	}
	defer func() {
		if err := ctrl.Close(); err != nil {
			logging.Debug("Close after exec failed", zap.Error(err))
		}
	}()

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	var pending error
	issued := false
	for {
		state := ctrl.Loop()
		if state == controller.Disconnected {
			return ctrl.Snapshot(), fmt.Errorf("connection to %s lost: %w", host, castproto.ErrTransportUnavailable)
		}

		switch {
		case issued:
			return ctrl.Snapshot(), nil

		case cmd == nil:
			if settled(state, ctrl.Snapshot()) {
				return ctrl.Snapshot(), nil
			}

		default:
			err := ready(ctrl, *cmd)
			if err == nil {
				err = cmd.Apply(ctrl)
			}
			switch {
			case err == nil:
				logging.Debug("Command issued", zap.String("host", host), zap.Stringer("command", cmd))
				issued = true
			case !castproto.IsRetryable(err):
				return ctrl.Snapshot(), err
			case !castproto.IsBusy(err) || pending == nil:
				// Busy says nothing new once a better reason is known.
				pending = err
			}
		}

		select {
		case <-ctx.Done():
			snap := ctrl.Snapshot()
			switch {
			case pending != nil:
				return snap, pending
			case cmd == nil && snap.Volume >= 0:
				// Status only: report what is known so far.
				return snap, nil
			default:
				return snap, ctx.Err()
			}
		case <-ticker.C:
		}
	}
}

// ready reports why cmd cannot be issued yet. Volume commands also wait for
// the first receiver status so relative changes start from the real level.
func ready(ctrl *controller.Controller, cmd Command) error {
	if err := ctrl.CheckCommand(cmd.Media()); err != nil {
		return err
	}
	if cmd.Kind == KindVolume && cmd.Relative && ctrl.Status().Volume < 0 {
		return castproto.ErrBusy
	}
	if cmd.Kind == KindMute && cmd.Toggle && ctrl.Status().Volume < 0 {
		return castproto.ErrBusy
	}
	return nil
}

// settled reports whether a status-only session has learned all it will
func settled(state controller.ConnectionStatus, snap controller.Snapshot) bool {
	switch state {
	case controller.ApplicationRunning:
		return snap.MediaSessionID >= 0
	case controller.Connected:
		return snap.Volume >= 0 && snap.SessionID == ""
	default:
		return false
	}
}
