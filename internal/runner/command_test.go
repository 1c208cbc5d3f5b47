package runner

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		cmd     string
		arg     string
		want    Command
		wantErr bool
	}{
		{name: "play", cmd: "play", want: Command{Kind: KindPlay}},
		{name: "case insensitive", cmd: " NEXT ", want: Command{Kind: KindNext}},
		{name: "pause", cmd: "pause", want: Command{Kind: KindPause}},
		{name: "pause toggle", cmd: "pause", arg: "toggle", want: Command{Kind: KindPause, Toggle: true}},
		{name: "seek absolute", cmd: "seek", arg: "90", want: Command{Kind: KindSeek, Value: 90}},
		{name: "seek forward", cmd: "seek", arg: "+10", want: Command{Kind: KindSeek, Value: 10, Relative: true}},
		{name: "seek back", cmd: "seek", arg: "-10", want: Command{Kind: KindSeek, Value: -10, Relative: true}},
		{name: "volume level", cmd: "volume", arg: "0.4", want: Command{Kind: KindVolume, Value: 0.4}},
		{name: "volume percent", cmd: "volume", arg: "40%", want: Command{Kind: KindVolume, Value: 0.4}},
		{name: "volume step", cmd: "volume", arg: "+5%", want: Command{Kind: KindVolume, Value: 0.05, Relative: true}},
		{name: "mute default", cmd: "mute", want: Command{Kind: KindMute, Mute: true}},
		{name: "mute off", cmd: "mute", arg: "off", want: Command{Kind: KindMute}},
		{name: "mute toggle", cmd: "mute", arg: "toggle", want: Command{Kind: KindMute, Toggle: true}},
		{name: "unknown", cmd: "launch", wantErr: true},
		{name: "play with argument", cmd: "play", arg: "now", wantErr: true},
		{name: "seek without value", cmd: "seek", wantErr: true},
		{name: "seek garbage", cmd: "seek", arg: "soon", wantErr: true},
		{name: "seek nan", cmd: "seek", arg: "NaN", wantErr: true},
		{name: "seek percent", cmd: "seek", arg: "50%", wantErr: true},
		{name: "mute garbage", cmd: "mute", arg: "maybe", wantErr: true},
		{name: "pause garbage", cmd: "pause", arg: "later", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.cmd, tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCommand(%q, %q) error = %v, wantErr %v", tt.cmd, tt.arg, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got, cmp.Comparer(approxEqual)); diff != "" {
				t.Errorf("ParseCommand(%q, %q) mismatch (-want +got):\n%s", tt.cmd, tt.arg, diff)
			}
		})
	}
}

func approxEqual(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func TestCommand_Media(t *testing.T) {
	media := map[Kind]bool{
		KindPlay: true, KindPause: true, KindNext: true, KindPrev: true, KindSeek: true,
		KindVolume: false, KindMute: false,
	}
	for kind, want := range media {
		if got := (Command{Kind: kind}).Media(); got != want {
			t.Errorf("Command{%s}.Media() = %v, want %v", kind, got, want)
		}
	}
}

func TestCommand_String(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{Command{Kind: KindPlay}, "play"},
		{Command{Kind: KindPause, Toggle: true}, "pause toggle"},
		{Command{Kind: KindSeek, Value: 10, Relative: true}, "seek +10"},
		{Command{Kind: KindVolume, Value: 0.4}, "volume 0.4"},
		{Command{Kind: KindMute, Mute: true}, "mute on"},
		{Command{Kind: KindMute}, "mute off"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
