package runner

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/muurk/castctl/internal/controller"
)

// Kind names a control command
type Kind string

const (
	KindPlay   Kind = "play"
	KindPause  Kind = "pause"
	KindNext   Kind = "next"
	KindPrev   Kind = "prev"
	KindSeek   Kind = "seek"
	KindVolume Kind = "volume"
	KindMute   Kind = "mute"
)

// Kinds lists every command kind
var Kinds = []Kind{KindPlay, KindPause, KindNext, KindPrev, KindSeek, KindVolume, KindMute}

// Command is a control command with its arguments. Which fields matter
// depends on Kind: Toggle for pause and mute, Relative and Value for seek
// and volume, Mute for mute.
type Command struct {
	Kind     Kind    `json:"kind"`
	Relative bool    `json:"relative,omitempty"`
	Value    float64 `json:"value,omitempty"`
	Toggle   bool    `json:"toggle,omitempty"`
	Mute     bool    `json:"mute,omitempty"`
}

// String returns a short description for logs
func (c Command) String() string {
	switch c.Kind {
	case KindSeek, KindVolume:
		if c.Relative {
			return fmt.Sprintf("%s %+g", c.Kind, c.Value)
		}
		return fmt.Sprintf("%s %g", c.Kind, c.Value)
	case KindPause:
		if c.Toggle {
			return "pause toggle"
		}
	case KindMute:
		switch {
		case c.Toggle:
			return "mute toggle"
		case c.Mute:
			return "mute on"
		default:
			return "mute off"
		}
	}
	return string(c.Kind)
}

// Media reports whether the command needs an active media session
func (c Command) Media() bool {
	switch c.Kind {
	case KindPlay, KindPause, KindNext, KindPrev, KindSeek:
		return true
	default:
		return false
	}
}

// Validate checks the kind is known
func (c Command) Validate() error {
	for _, k := range Kinds {
		if c.Kind == k {
			return nil
		}
	}
	return fmt.Errorf("unknown command %q", c.Kind)
}

// Apply issues the command on ctrl
func (c Command) Apply(ctrl *controller.Controller) error {
	switch c.Kind {
	case KindPlay:
		return ctrl.Play()
	case KindPause:
		return ctrl.Pause(c.Toggle)
	case KindNext:
		return ctrl.Next()
	case KindPrev:
		return ctrl.Prev()
	case KindSeek:
		return ctrl.Seek(c.Relative, c.Value)
	case KindVolume:
		return ctrl.SetVolume(c.Relative, c.Value)
	case KindMute:
		return ctrl.SetMute(c.Mute, c.Toggle)
	default:
		return c.Validate()
	}
}

// ParseCommand builds a Command from a name and an optional argument, as
// typed on the command line:
//
//	pause toggle
//	seek 90        seek +10       seek -10
//	volume 0.4     volume +0.05   volume 40%
//	mute on|off|toggle
func ParseCommand(name, arg string) (Command, error) {
	cmd := Command{Kind: Kind(strings.ToLower(strings.TrimSpace(name)))}
	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}
	arg = strings.TrimSpace(arg)

	switch cmd.Kind {
	case KindPlay, KindNext, KindPrev:
		if arg != "" {
			return Command{}, fmt.Errorf("%s takes no argument", cmd.Kind)
		}

	case KindPause:
		switch arg {
		case "":
		case "toggle":
			cmd.Toggle = true
		default:
			return Command{}, fmt.Errorf("pause argument must be \"toggle\", got %q", arg)
		}

	case KindSeek, KindVolume:
		if arg == "" {
			return Command{}, fmt.Errorf("%s needs a value", cmd.Kind)
		}
		v, relative, err := parseAmount(arg, cmd.Kind == KindVolume)
		if err != nil {
			return Command{}, fmt.Errorf("invalid %s value: %w", cmd.Kind, err)
		}
		cmd.Value = v
		cmd.Relative = relative

	case KindMute:
		switch arg {
		case "", "on", "true":
			cmd.Mute = true
		case "off", "false":
			cmd.Mute = false
		case "toggle":
			cmd.Toggle = true
		default:
			return Command{}, fmt.Errorf("mute argument must be on, off or toggle, got %q", arg)
		}
	}
	return cmd, nil
}

// parseAmount parses "12.5", "+3" or "-3"; a sign makes it relative. With
// percent allowed, "40%" means 0.4.
func parseAmount(s string, percent bool) (float64, bool, error) {
	relative := strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-")
	scale := 1.0
	if percent && strings.HasSuffix(s, "%") {
		s = strings.TrimSuffix(s, "%")
		scale = 0.01
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("%q is not a finite number", s)
	}
	return v * scale, relative, nil
}
