package castproto

// Default device endpoint
const (
	DefaultPort = 8009
)

// Fixed identities. The sender id is ours; the receiver id addresses the
// device itself rather than an application running on it.
const (
	SenderID   = "sender-0"
	ReceiverID = "receiver-0"
)

// Namespaces understood by the engine
const (
	NamespaceConnection = "urn:x-cast:com.google.cast.tp.connection"
	NamespaceReceiver   = "urn:x-cast:com.google.cast.receiver"
	NamespaceHeartbeat  = "urn:x-cast:com.google.cast.tp.heartbeat"
	NamespaceMedia      = "urn:x-cast:com.google.cast.media"
)

// Envelope field numbers (CastMessage)
const (
	FieldProtocolVersion = 1
	FieldSourceID        = 2
	FieldDestinationID   = 3
	FieldNamespace       = 4
	FieldPayloadType     = 5
	FieldPayloadUTF8     = 6
	FieldPayloadBinary   = 7
)

// Envelope enum values
const (
	ProtocolVersionCastV2 = 0
	PayloadTypeString     = 0
	PayloadTypeBinary     = 1
)

// Message type strings carried in the JSON payload "type" field
const (
	TypeConnect        = "CONNECT"
	TypeClose          = "CLOSE"
	TypePing           = "PING"
	TypePong           = "PONG"
	TypeGetStatus      = "GET_STATUS"
	TypeReceiverStatus = "RECEIVER_STATUS"
	TypeMediaStatus    = "MEDIA_STATUS"
	TypePlay           = "PLAY"
	TypePause          = "PAUSE"
	TypeQueueNext      = "QUEUE_NEXT"
	TypeQueuePrev      = "QUEUE_PREV"
	TypeSeek           = "SEEK"
	TypeSetVolume      = "SET_VOLUME"
)

// Request ids. Status polls and control commands use fixed ids; responses
// are matched by arrival, not by id.
const (
	RequestIDStatus  = 1
	RequestIDControl = 2
)

// NamespaceName returns a short label for logs and metrics
func NamespaceName(ns string) string {
	switch ns {
	case NamespaceConnection:
		return "connection"
	case NamespaceReceiver:
		return "receiver"
	case NamespaceHeartbeat:
		return "heartbeat"
	case NamespaceMedia:
		return "media"
	default:
		return "other"
	}
}
