package status

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const receiverStatusFull = `{
  "type": "RECEIVER_STATUS",
  "requestId": 1,
  "status": {
    "volume": {"level": 0.35, "muted": true},
    "applications": [
      {"sessionId": "abc", "displayName": "Spotify", "statusText": "Casting: Spotify"}
    ]
  }
}`

const mediaStatusFull = `{
  "type": "MEDIA_STATUS",
  "status": [{
    "mediaSessionId": 12,
    "currentTime": 42.5,
    "playerState": "PLAYING",
    "media": {
      "duration": 215.3,
      "metadata": {"title": "Song", "artist": "Band"}
    }
  }]
}`

func TestApplyReceiverStatus(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		applied bool
		want    Snapshot
	}{
		{
			name:    "full",
			payload: receiverStatusFull,
			applied: true,
			want: Snapshot{
				Volume: 0.35, Muted: true, SessionID: "abc",
				DisplayName: "Spotify", StatusText: "Casting: Spotify", MediaSessionID: -1,
			},
		},
		{
			name:    "no volume object",
			payload: `{"type":"RECEIVER_STATUS","status":{"applications":[{"sessionId":"x"}]}}`,
			applied: true,
			want:    Snapshot{Volume: -1, SessionID: "x", MediaSessionID: -1},
		},
		{
			name:    "application without session id",
			payload: `{"type":"RECEIVER_STATUS","status":{"volume":{"level":1},"applications":[{"displayName":"Backdrop"}]}}`,
			applied: true,
			want:    Snapshot{Volume: 1, DisplayName: "Backdrop", MediaSessionID: -1},
		},
		{
			name:    "empty applications list",
			payload: `{"type":"RECEIVER_STATUS","status":{"volume":{"level":0.5,"muted":false},"applications":[]}}`,
			applied: true,
			want:    Snapshot{Volume: 0.5, MediaSessionID: -1},
		},
		{
			name:    "missing status",
			payload: `{"type":"RECEIVER_STATUS"}`,
			applied: false,
			want:    Snapshot{Volume: -1, MediaSessionID: -1},
		},
		{
			name:    "wrong type",
			payload: `{"type":"LAUNCH_ERROR","status":{}}`,
			applied: false,
			want:    Snapshot{Volume: -1, MediaSessionID: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel()
			applied, err := m.ApplyReceiverStatus([]byte(tt.payload))
			if err != nil {
				t.Fatalf("ApplyReceiverStatus() error = %v", err)
			}
			if applied != tt.applied {
				t.Errorf("applied = %v, want %v", applied, tt.applied)
			}
			if diff := cmp.Diff(tt.want, m.Snapshot()); diff != "" {
				t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyReceiverStatus_MissingApplicationsClears(t *testing.T) {
	m := NewModel()
	if _, err := m.ApplyReceiverStatus([]byte(receiverStatusFull)); err != nil {
		t.Fatal(err)
	}
	if _, err := m.ApplyReceiverStatus([]byte(`{"type":"RECEIVER_STATUS","status":{"volume":{"level":0.2}}}`)); err != nil {
		t.Fatal(err)
	}
	if m.SessionID != "" || m.DisplayName != "" || m.StatusText != "" {
		t.Errorf("application fields = (%q, %q, %q), want all empty", m.SessionID, m.DisplayName, m.StatusText)
	}
	if m.Volume != 0.2 || m.Muted {
		t.Errorf("volume = (%v, %v), want (0.2, false)", m.Volume, m.Muted)
	}
}

func TestApplyReceiverStatus_Idempotent(t *testing.T) {
	m := NewModel()
	if _, err := m.ApplyReceiverStatus([]byte(receiverStatusFull)); err != nil {
		t.Fatal(err)
	}
	first := m.Snapshot()
	if _, err := m.ApplyReceiverStatus([]byte(receiverStatusFull)); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, m.Snapshot()); diff != "" {
		t.Errorf("second application changed status (-first +second):\n%s", diff)
	}
}

func TestApplyMediaStatus(t *testing.T) {
	m := NewModel()
	applied, err := m.ApplyMediaStatus([]byte(mediaStatusFull))
	if err != nil || !applied {
		t.Fatalf("ApplyMediaStatus() = (%v, %v), want (true, nil)", applied, err)
	}
	want := Snapshot{
		Volume: -1, MediaSessionID: 12, CurrentTime: 42.5, PlayerState: Playing,
		Duration: 215.3, Title: "Song", Artist: "Band",
	}
	if diff := cmp.Diff(want, m.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyMediaStatus_MissingMediaKeepsCachedFields(t *testing.T) {
	m := NewModel()
	if _, err := m.ApplyMediaStatus([]byte(mediaStatusFull)); err != nil {
		t.Fatal(err)
	}
	busy := `{"type":"MEDIA_STATUS","status":[{"mediaSessionId":12,"currentTime":43,"playerState":"BUFFERING"}]}`
	if _, err := m.ApplyMediaStatus([]byte(busy)); err != nil {
		t.Fatal(err)
	}

	if m.Duration != 215.3 || m.Title != "Song" || m.Artist != "Band" {
		t.Errorf("media fields = (%v, %q, %q), want cached values kept", m.Duration, m.Title, m.Artist)
	}
	if m.PlayerState != Buffering || m.CurrentTime != 43 {
		t.Errorf("player = (%v, %v), want (BUFFERING, 43)", m.PlayerState, m.CurrentTime)
	}
}

func TestApplyMediaStatus_MissingMetadataClearsText(t *testing.T) {
	m := NewModel()
	if _, err := m.ApplyMediaStatus([]byte(mediaStatusFull)); err != nil {
		t.Fatal(err)
	}
	noMeta := `{"type":"MEDIA_STATUS","status":[{"mediaSessionId":12,"media":{"duration":99}}]}`
	if _, err := m.ApplyMediaStatus([]byte(noMeta)); err != nil {
		t.Fatal(err)
	}
	if m.Duration != 99 || m.Title != "" || m.Artist != "" {
		t.Errorf("media fields = (%v, %q, %q), want (99, \"\", \"\")", m.Duration, m.Title, m.Artist)
	}
}

func TestApplyMediaStatus_EmptyStatusList(t *testing.T) {
	m := NewModel()
	if _, err := m.ApplyMediaStatus([]byte(mediaStatusFull)); err != nil {
		t.Fatal(err)
	}
	if _, err := m.ApplyMediaStatus([]byte(`{"type":"MEDIA_STATUS","status":[]}`)); err != nil {
		t.Fatal(err)
	}
	if m.MediaSessionID != -1 || m.CurrentTime != 0 || m.PlayerState != Idle {
		t.Errorf("player = (%d, %v, %v), want (-1, 0, IDLE)", m.MediaSessionID, m.CurrentTime, m.PlayerState)
	}
}

func TestApply_NamespaceIsolation(t *testing.T) {
	m := NewModel()
	if _, err := m.ApplyReceiverStatus([]byte(receiverStatusFull)); err != nil {
		t.Fatal(err)
	}
	before := m.Snapshot()

	// A media payload cannot be applied as receiver status and vice versa.
	if applied, _ := m.ApplyReceiverStatus([]byte(mediaStatusFull)); applied {
		t.Error("MEDIA_STATUS applied as receiver status")
	}
	if applied, _ := m.ApplyMediaStatus([]byte(receiverStatusFull)); applied {
		t.Error("RECEIVER_STATUS applied as media status")
	}
	if diff := cmp.Diff(before, m.Snapshot()); diff != "" {
		t.Errorf("status changed by foreign payloads (-want +got):\n%s", diff)
	}

	if _, err := m.ApplyMediaStatus([]byte(mediaStatusFull)); err != nil {
		t.Fatal(err)
	}
	after := m.Snapshot()
	if after.Volume != before.Volume || after.Muted != before.Muted || after.DisplayName != before.DisplayName {
		t.Error("media status changed device fields")
	}
}

func TestApply_InvalidJSON(t *testing.T) {
	m := NewModel()
	if _, err := m.ApplyReceiverStatus([]byte(receiverStatusFull)); err != nil {
		t.Fatal(err)
	}
	before := m.Snapshot()

	applied, err := m.ApplyReceiverStatus([]byte(`{"type":"RECEIVER_STATUS","status":`))
	if err == nil || applied {
		t.Errorf("ApplyReceiverStatus(invalid) = (%v, %v), want (false, error)", applied, err)
	}
	if diff := cmp.Diff(before, m.Snapshot()); diff != "" {
		t.Errorf("invalid payload changed status (-want +got):\n%s", diff)
	}
}

func TestApply_ScratchLimit(t *testing.T) {
	m := NewModel()
	m.ScratchSize = 16
	if _, err := m.ApplyReceiverStatus([]byte(receiverStatusFull)); err == nil {
		t.Error("payload larger than scratch size should be rejected")
	}
}

func TestParsePlayerState(t *testing.T) {
	tests := []struct {
		in   string
		want PlayerState
	}{
		{"IDLE", Idle},
		{"PLAYING", Playing},
		{"PAUSED", Paused},
		{"BUFFERING", Buffering},
		{"LOADING", Idle},
		{"", Idle},
	}
	for _, tt := range tests {
		if got := ParsePlayerState(tt.in); got != tt.want {
			t.Errorf("ParsePlayerState(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSnapshot_Truncated(t *testing.T) {
	s := Snapshot{Title: "Ünïcödé title", Artist: "ok", DisplayName: strings.Repeat("x", 40)}

	got := s.Truncated(5)
	if got.Title != "Ünïcö" {
		t.Errorf("Title = %q, want %q", got.Title, "Ünïcö")
	}
	if got.Artist != "ok" {
		t.Errorf("Artist = %q, want %q", got.Artist, "ok")
	}
	if len(got.DisplayName) != 5 {
		t.Errorf("len(DisplayName) = %d, want 5", len(got.DisplayName))
	}
	if s.Truncated(0) != s {
		t.Error("Truncated(0) should return the snapshot unchanged")
	}
}
