// Package transport provides the secure byte stream the cast engine runs on.
//
// The engine is poll driven: every call it checks how many bytes are buffered,
// peeks the next frame length and only then decides whether to wait. The
// Transport interface therefore exposes Available/Peek/Read over an internal
// receive buffer instead of a blocking io.Reader.
//
// TLSTransport fills that buffer from a crypto/tls connection with a very
// short read deadline, so a call to Available costs at most PollWait.
//
// # Certificates
//
// Cast receivers use self-signed device certificates. NewClientTLSConfig with
// AllowSelfSigned set skips chain verification but still logs every
// handshake:
//
//	tr := transport.NewTLSTransport(transport.NewClientTLSConfig(transport.TLSOptions{
//	    AllowSelfSigned: true,
//	}))
//	if err := tr.Connect(ctx, "192.168.1.20", 8009); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Transports are not safe for concurrent use. The controller that owns one
// is the only caller.
package transport
