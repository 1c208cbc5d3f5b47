package castproto

import (
	"encoding/json"
	"fmt"
)

type typeOnly struct {
	Type string `json:"type"`
}

type request struct {
	Type      string `json:"type"`
	RequestID int    `json:"requestId"`
}

type mediaRequest struct {
	Type           string `json:"type"`
	RequestID      int    `json:"requestId"`
	MediaSessionID int64  `json:"mediaSessionId"`
}

type seekRequest struct {
	Type           string  `json:"type"`
	RequestID      int     `json:"requestId"`
	MediaSessionID int64   `json:"mediaSessionId"`
	CurrentTime    float64 `json:"currentTime"`
}

type volumeBody struct {
	Level *float64 `json:"level,omitempty"`
	Muted *bool    `json:"muted,omitempty"`
}

type volumeRequest struct {
	Type      string     `json:"type"`
	RequestID int        `json:"requestId"`
	Volume    volumeBody `json:"volume"`
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", NewEncodingError("cannot encode payload", err)
	}
	return string(b), nil
}

func mustMarshal(v any) string {
	s, err := marshal(v)
	if err != nil {
		panic(err)
	}
	return s
}

// Payloads with no variable parts
var (
	ConnectPayload   = mustMarshal(typeOnly{Type: TypeConnect})
	PingPayload      = mustMarshal(typeOnly{Type: TypePing})
	PongPayload      = mustMarshal(typeOnly{Type: TypePong})
	GetStatusPayload = mustMarshal(request{Type: TypeGetStatus, RequestID: RequestIDStatus})
)

// MediaCommandPayload builds PLAY, PAUSE, QUEUE_NEXT or QUEUE_PREV for a
// media session.
func MediaCommandPayload(kind string, mediaSessionID int64) (string, error) {
	switch kind {
	case TypePlay, TypePause, TypeQueueNext, TypeQueuePrev:
	default:
		return "", NewEncodingError(fmt.Sprintf("%q is not a media command", kind), nil)
	}
	return marshal(mediaRequest{Type: kind, RequestID: RequestIDControl, MediaSessionID: mediaSessionID})
}

// SeekPayload builds a SEEK to an absolute position in seconds
func SeekPayload(mediaSessionID int64, seconds float64) (string, error) {
	return marshal(seekRequest{
		Type:           TypeSeek,
		RequestID:      RequestIDControl,
		MediaSessionID: mediaSessionID,
		CurrentTime:    seconds,
	})
}

// VolumeLevelPayload builds a SET_VOLUME carrying only a level
func VolumeLevelPayload(level float64) (string, error) {
	return marshal(volumeRequest{Type: TypeSetVolume, RequestID: RequestIDControl, Volume: volumeBody{Level: &level}})
}

// MutePayload builds a SET_VOLUME carrying only the muted flag
func MutePayload(muted bool) (string, error) {
	return marshal(volumeRequest{Type: TypeSetVolume, RequestID: RequestIDControl, Volume: volumeBody{Muted: &muted}})
}
