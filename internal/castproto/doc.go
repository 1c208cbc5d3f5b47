// Package castproto implements the framing layer of the Cast V2 protocol.
//
// Every message on the wire is a four byte big-endian length followed by a
// protobuf CastMessage ("envelope"). The envelope carries routing data and a
// UTF-8 JSON payload:
//
//	field 1  protocol_version  varint  always 0 (CASTV2_1_0)
//	field 2  source_id         string  "sender-0" for us
//	field 3  destination_id    string  "receiver-0" or an app transport id
//	field 4  namespace         string  urn:x-cast:...
//	field 5  payload_type      varint  0 = STRING
//	field 6  payload_utf8      string  JSON
//
// # Reading
//
// FrameReader pulls whole frames from a transport.Transport without ever
// blocking on an empty stream. Cursor then walks the envelope fields in
// place; it never reads past the frame and reports ErrTruncatedFrame when a
// declared length overruns the buffer. Payload slices alias the frame.
//
//	fr := castproto.NewFrameReader()
//	n := fr.ReadFrame(tr, buf)
//	if n > 0 {
//	    env, err := castproto.DecodeFrame(buf[:n])
//	    ...
//	}
//
// # Writing
//
// Outbound envelopes are encoded with protowire into a caller-owned buffer:
//
//	frame, err := castproto.EncodeFrame(scratch, castproto.Envelope{
//	    SourceID:      castproto.SenderID,
//	    DestinationID: castproto.ReceiverID,
//	    Namespace:     castproto.NamespaceReceiver,
//	    PayloadUTF8:   castproto.GetStatusPayload,
//	})
//
// The payload builders (MediaCommandPayload, SeekPayload, VolumeLevelPayload,
// MutePayload) produce compact JSON. Status requests use request id 1 and
// control commands request id 2.
//
// # Errors
//
// All failures are *Error values carrying an ErrorType, so callers can use
// errors.Is against the sentinels (ErrBusy, ErrNoActiveMedia, ...) or the
// Is* helpers.
package castproto
