package castproto

import (
	"encoding/binary"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// Envelope is the routing wrapper around every JSON payload. Protocol
// version and payload type are fixed (CASTV2_1_0, STRING) and not stored.
type Envelope struct {
	SourceID      string
	DestinationID string
	Namespace     string
	PayloadUTF8   string
}

// String returns a compact description for logs
func (e Envelope) String() string {
	return fmt.Sprintf("%s -> %s [%s] %d bytes", e.SourceID, e.DestinationID, NamespaceName(e.Namespace), len(e.PayloadUTF8))
}

// Size returns the encoded body size, excluding the length prefix
func (e Envelope) Size() int {
	n := protowire.SizeTag(FieldProtocolVersion) + protowire.SizeVarint(ProtocolVersionCastV2)
	n += protowire.SizeTag(FieldSourceID) + protowire.SizeBytes(len(e.SourceID))
	n += protowire.SizeTag(FieldDestinationID) + protowire.SizeBytes(len(e.DestinationID))
	n += protowire.SizeTag(FieldNamespace) + protowire.SizeBytes(len(e.Namespace))
	n += protowire.SizeTag(FieldPayloadType) + protowire.SizeVarint(PayloadTypeString)
	n += protowire.SizeTag(FieldPayloadUTF8) + protowire.SizeBytes(len(e.PayloadUTF8))
	return n
}

// AppendBody appends the protobuf encoding of e to dst
func (e Envelope) AppendBody(dst []byte) []byte {
	dst = protowire.AppendTag(dst, FieldProtocolVersion, protowire.VarintType)
	dst = protowire.AppendVarint(dst, ProtocolVersionCastV2)
	dst = protowire.AppendTag(dst, FieldSourceID, protowire.BytesType)
	dst = protowire.AppendString(dst, e.SourceID)
	dst = protowire.AppendTag(dst, FieldDestinationID, protowire.BytesType)
	dst = protowire.AppendString(dst, e.DestinationID)
	dst = protowire.AppendTag(dst, FieldNamespace, protowire.BytesType)
	dst = protowire.AppendString(dst, e.Namespace)
	dst = protowire.AppendTag(dst, FieldPayloadType, protowire.VarintType)
	dst = protowire.AppendVarint(dst, PayloadTypeString)
	dst = protowire.AppendTag(dst, FieldPayloadUTF8, protowire.BytesType)
	dst = protowire.AppendString(dst, e.PayloadUTF8)
	return dst
}

// EncodeFrame writes the length-prefixed frame for e into buf and returns
// the used prefix of buf. It fails with an encoding error when the frame
// does not fit.
func EncodeFrame(buf []byte, e Envelope) ([]byte, error) {
	body := e.Size()
	total := LengthPrefixSize + body
	if total > len(buf) {
		return nil, NewEncodingError(
			fmt.Sprintf("frame of %d bytes exceeds %d byte buffer", total, len(buf)), nil)
	}

	binary.BigEndian.PutUint32(buf, uint32(body))
	out := e.AppendBody(buf[LengthPrefixSize:LengthPrefixSize])
	return buf[:LengthPrefixSize+len(out)], nil
}

// DecodeEnvelope parses an envelope body (no length prefix). Unknown fields
// are skipped; a binary payload is ignored.
func DecodeEnvelope(body []byte) (Envelope, error) {
	var e Envelope
	c := NewCursor(body)
	for {
		f, err := c.Next()
		if err == io.EOF {
			return e, nil
		}
		if err != nil {
			return e, err
		}
		if f.Wire != WireBytes {
			continue
		}
		switch f.Tag {
		case FieldSourceID:
			e.SourceID = string(f.Data)
		case FieldDestinationID:
			e.DestinationID = string(f.Data)
		case FieldNamespace:
			e.Namespace = string(f.Data)
		case FieldPayloadUTF8:
			e.PayloadUTF8 = string(f.Data)
		}
	}
}

// DecodeFrame parses a length-prefixed frame as returned by ReadFrame
func DecodeFrame(frame []byte) (Envelope, error) {
	if len(frame) < LengthPrefixSize {
		return Envelope{}, ErrTruncatedFrame
	}
	return DecodeEnvelope(FrameBody(frame))
}

// FrameBody returns the envelope body of a frame, bounded by both the
// declared length and the bytes actually present.
func FrameBody(frame []byte) []byte {
	if len(frame) < LengthPrefixSize {
		return nil
	}
	declared := uint64(binary.BigEndian.Uint32(frame))
	body := frame[LengthPrefixSize:]
	if declared < uint64(len(body)) {
		body = body[:declared]
	}
	return body
}
