package controller

import (
	"github.com/muurk/castctl/internal/castproto"
	"github.com/muurk/castctl/internal/metrics"
	"github.com/muurk/castctl/internal/status"
)

// CheckCommand returns the error a command would be rejected with right
// now, or nil. media selects the stricter guard used by play, pause, next,
// prev and seek.
func (c *Controller) CheckCommand(media bool) error {
	if c.tracker.Outstanding() {
		return castproto.ErrBusy
	}
	if media && c.model.MediaSessionID < 0 {
		return castproto.ErrNoActiveMedia
	}
	return nil
}

// Play resumes the current media
func (c *Controller) Play() error {
	return c.record("play", c.mediaCommand(castproto.TypePlay))
}

// Pause pauses the current media. With toggle set, paused media is resumed
// instead; any other state, buffering included, is paused.
func (c *Controller) Pause(toggle bool) error {
	kind := castproto.TypePause
	if toggle && c.model.PlayerState == status.Paused {
		kind = castproto.TypePlay
	}
	return c.record("pause", c.mediaCommand(kind))
}

// Next skips to the next queue item
func (c *Controller) Next() error {
	return c.record("next", c.mediaCommand(castproto.TypeQueueNext))
}

// Prev returns to the previous queue item
func (c *Controller) Prev() error {
	return c.record("prev", c.mediaCommand(castproto.TypeQueuePrev))
}

// Seek moves to value seconds, or by value seconds when relative. The
// target is clamped to [0, duration].
func (c *Controller) Seek(relative bool, value float64) error {
	if err := c.CheckCommand(true); err != nil {
		return c.record("seek", err)
	}

	target := value
	if relative {
		target += c.model.CurrentTime
	}
	if target > c.model.Duration {
		target = c.model.Duration
	}
	if target < 0 {
		target = 0
	}

	payload, err := castproto.SeekPayload(c.model.MediaSessionID, target)
	if err != nil {
		return c.record("seek", err)
	}
	return c.record("seek", c.app.WriteMsg(castproto.NamespaceMedia, payload))
}

// SetVolume sets the device volume to value, or changes it by value when
// relative. The level is clamped to [0, 1].
func (c *Controller) SetVolume(relative bool, value float64) error {
	if err := c.CheckCommand(false); err != nil {
		return c.record("volume", err)
	}

	target := value
	if relative {
		target += c.model.Volume
	}
	if target > 1 {
		target = 1
	}
	if target < 0 {
		target = 0
	}

	payload, err := castproto.VolumeLevelPayload(target)
	if err != nil {
		return c.record("volume", err)
	}
	return c.record("volume", c.device.WriteMsg(castproto.NamespaceReceiver, payload))
}

// SetMute mutes or unmutes the device. With toggle set, mute is ignored and
// the cached mute state is inverted.
func (c *Controller) SetMute(mute, toggle bool) error {
	if err := c.CheckCommand(false); err != nil {
		return c.record("mute", err)
	}
	if toggle {
		mute = !c.model.Muted
	}

	payload, err := castproto.MutePayload(mute)
	if err != nil {
		return c.record("mute", err)
	}
	return c.record("mute", c.device.WriteMsg(castproto.NamespaceReceiver, payload))
}

func (c *Controller) mediaCommand(kind string) error {
	if err := c.CheckCommand(true); err != nil {
		return err
	}
	payload, err := castproto.MediaCommandPayload(kind, c.model.MediaSessionID)
	if err != nil {
		return err
	}
	return c.app.WriteMsg(castproto.NamespaceMedia, payload)
}

func (c *Controller) record(command string, err error) error {
	switch {
	case err == nil:
		metrics.RecordCommand(command, "ok")
	case castproto.IsBusy(err):
		metrics.RecordCommand(command, "busy")
	case castproto.IsNoActiveMedia(err):
		metrics.RecordCommand(command, "no-media")
	default:
		metrics.RecordCommand(command, "error")
	}
	return err
}
