package status

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/muurk/castctl/internal/castproto"
)

// DefaultScratchSize bounds the JSON payloads the interpreter will parse
const DefaultScratchSize = 4096

// PlayerState is the media player state reported in MEDIA_STATUS
type PlayerState int

const (
	Idle PlayerState = iota
	Playing
	Paused
	Buffering
)

// ParsePlayerState maps the device's playerState string. Anything
// unrecognised is Idle.
func ParsePlayerState(s string) PlayerState {
	switch s {
	case "PLAYING":
		return Playing
	case "PAUSED":
		return Paused
	case "BUFFERING":
		return Buffering
	default:
		return Idle
	}
}

// String returns the device's spelling of the state
func (p PlayerState) String() string {
	switch p {
	case Idle:
		return "IDLE"
	case Playing:
		return "PLAYING"
	case Paused:
		return "PAUSED"
	case Buffering:
		return "BUFFERING"
	default:
		return fmt.Sprintf("PlayerState(%d)", int(p))
	}
}

// MarshalText encodes the state as its name
func (p PlayerState) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a state name
func (p *PlayerState) UnmarshalText(b []byte) error {
	*p = ParsePlayerState(string(b))
	return nil
}

// Model caches everything learned from status payloads. Device fields are
// written only by receiver status, player fields only by media status.
type Model struct {
	// device (receiver namespace)
	Volume      float64 // 0..1, -1 when unknown
	Muted       bool
	SessionID   string
	DisplayName string
	StatusText  string

	// application (media namespace)
	MediaSessionID int64 // -1 when no media session is known
	PlayerState    PlayerState
	Duration       float64
	CurrentTime    float64
	Title          string
	Artist         string

	// ScratchSize bounds parsed payloads; zero means DefaultScratchSize
	ScratchSize int
}

// NewModel returns a model with nothing known
func NewModel() *Model {
	m := &Model{}
	m.Reset()
	return m
}

// Reset forgets all cached status
func (m *Model) Reset() {
	scratch := m.ScratchSize
	*m = Model{Volume: -1, MediaSessionID: -1, ScratchSize: scratch}
}

func (m *Model) parse(payload []byte, want string) (Value, bool, error) {
	limit := m.ScratchSize
	if limit == 0 {
		limit = DefaultScratchSize
	}
	doc, err := Parse(payload, limit)
	if err != nil {
		return Value{}, false, err
	}
	kind := doc.Get("type")
	if !kind.Exists() || !doc.Get("status").Exists() {
		return doc, false, nil
	}
	return doc, kind.StringOr("") == want, nil
}

// ApplyReceiverStatus interprets a receiver namespace payload. It reports
// whether the payload was a RECEIVER_STATUS and was applied; an error means
// the payload was not valid JSON and nothing changed.
func (m *Model) ApplyReceiverStatus(payload []byte) (bool, error) {
	doc, ok, err := m.parse(payload, castproto.TypeReceiverStatus)
	if err != nil || !ok {
		return false, err
	}
	st := doc.Get("status")

	vol := st.Get("volume")
	if vol.Exists() {
		m.Volume = vol.Get("level").FloatOr(-1)
		m.Muted = vol.Get("muted").BoolOr(false)
	} else {
		m.Volume = -1
		m.Muted = false
	}

	app := st.Get("applications").Index(0)
	if app.Exists() {
		m.SessionID = app.Get("sessionId").StringOr("")
		m.StatusText = app.Get("statusText").StringOr("")
		m.DisplayName = app.Get("displayName").StringOr("")
	} else {
		m.SessionID = ""
		m.StatusText = ""
		m.DisplayName = ""
	}
	return true, nil
}

// ApplyMediaStatus interprets a media namespace payload. When the media
// object is missing the cached duration, title and artist are kept; the
// device omits it while it is busy loading.
func (m *Model) ApplyMediaStatus(payload []byte) (bool, error) {
	doc, ok, err := m.parse(payload, castproto.TypeMediaStatus)
	if err != nil || !ok {
		return false, err
	}
	st := doc.Get("status").Index(0)

	m.MediaSessionID = st.Get("mediaSessionId").IntOr(-1)
	m.CurrentTime = st.Get("currentTime").FloatOr(0)
	m.PlayerState = ParsePlayerState(st.Get("playerState").StringOr(""))

	media := st.Get("media")
	if media.Exists() {
		m.Duration = media.Get("duration").FloatOr(0)
		meta := media.Get("metadata")
		if meta.Exists() {
			m.Title = meta.Get("title").StringOr("")
			m.Artist = meta.Get("artist").StringOr("")
		} else {
			m.Title = ""
			m.Artist = ""
		}
	}
	return true, nil
}

// ClearMedia forgets the media session, as when the application channel
// goes away.
func (m *Model) ClearMedia() {
	m.MediaSessionID = -1
}

// Snapshot is a copy of the cached status for consumers
type Snapshot struct {
	Volume         float64     `json:"volume"`
	Muted          bool        `json:"muted"`
	DisplayName    string      `json:"displayName"`
	StatusText     string      `json:"statusText"`
	SessionID      string      `json:"sessionId,omitempty"`
	MediaSessionID int64       `json:"mediaSessionId"`
	PlayerState    PlayerState `json:"playerState"`
	Duration       float64     `json:"duration"`
	CurrentTime    float64     `json:"currentTime"`
	Title          string      `json:"title"`
	Artist         string      `json:"artist"`
}

// Snapshot copies the model
func (m *Model) Snapshot() Snapshot {
	return Snapshot{
		Volume:         m.Volume,
		Muted:          m.Muted,
		DisplayName:    m.DisplayName,
		StatusText:     m.StatusText,
		SessionID:      m.SessionID,
		MediaSessionID: m.MediaSessionID,
		PlayerState:    m.PlayerState,
		Duration:       m.Duration,
		CurrentTime:    m.CurrentTime,
		Title:          m.Title,
		Artist:         m.Artist,
	}
}

// Truncated returns a copy with every text field cut to at most limit
// runes, for fixed-width displays. limit <= 0 returns s unchanged.
func (s Snapshot) Truncated(limit int) Snapshot {
	if limit <= 0 {
		return s
	}
	s.DisplayName = truncate(s.DisplayName, limit)
	s.StatusText = truncate(s.StatusText, limit)
	s.Title = truncate(s.Title, limit)
	s.Artist = truncate(s.Artist, limit)
	return s
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == limit {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
