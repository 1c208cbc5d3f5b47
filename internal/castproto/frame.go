package castproto

import (
	"encoding/binary"
	"time"
)

// LengthPrefixSize is the size of the big-endian frame length
const LengthPrefixSize = 4

// DefaultReadTimeout bounds how long ReadFrame waits for a partial frame
const DefaultReadTimeout = 100 * time.Millisecond

// Source is the read side of a transport
type Source interface {
	Available() int
	Peek(p []byte) int
	Read(p []byte) int
}

// DropReason says why bytes were thrown away by the frame reader
type DropReason string

const (
	// DropTimeout means a partial frame stalled and the buffer was flushed
	DropTimeout DropReason = "timeout"
	// DropOversize means the frame was larger than the caller's buffer
	DropOversize DropReason = "oversize"
)

// FrameReader pulls length-prefixed frames out of a Source.
type FrameReader struct {
	// Timeout bounds the wait for the rest of a frame once its length is known
	Timeout time.Duration
	// Now is the clock used for Timeout; nil means time.Now
	Now func() time.Time
	// OnDrop is told about discarded bytes; may be nil
	OnDrop func(reason DropReason, bytes int)

	discard []byte
}

// NewFrameReader returns a reader with the default timeout
func NewFrameReader() *FrameReader {
	return &FrameReader{Timeout: DefaultReadTimeout}
}

func (r *FrameReader) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// ReadFrame copies the next frame, length prefix included, into buf and
// returns the number of bytes written.
//
// Zero is returned without waiting when fewer than four bytes are buffered.
// Once the length is known the call waits up to Timeout for the whole frame;
// if it does not arrive every buffered byte is discarded so the next call
// starts on a fresh boundary. A frame longer than buf is cut to len(buf) and
// the remainder is read and discarded, so the stream stays aligned.
func (r *FrameReader) ReadFrame(src Source, buf []byte) int {
	if len(buf) <= LengthPrefixSize || src.Available() < LengthPrefixSize {
		return 0
	}

	var prefix [LengthPrefixSize]byte
	src.Peek(prefix[:])
	length := uint64(binary.BigEndian.Uint32(prefix[:]))
	need := length + LengthPrefixSize

	start := r.now()
	for uint64(src.Available()) < need {
		if r.now().Sub(start) > r.Timeout {
			dropped := r.drain(src)
			r.dropped(DropTimeout, dropped)
			return 0
		}
	}

	if need <= uint64(len(buf)) {
		return src.Read(buf[:need])
	}

	n := src.Read(buf)
	r.skip(src, need-uint64(n))
	r.dropped(DropOversize, int(need)-n)
	return n
}

func (r *FrameReader) scratch() []byte {
	if r.discard == nil {
		r.discard = make([]byte, 512)
	}
	return r.discard
}

// drain discards everything currently buffered
func (r *FrameReader) drain(src Source) int {
	buf := r.scratch()
	total := 0
	for src.Available() > 0 {
		n := src.Read(buf)
		if n == 0 {
			break
		}
		total += n
	}
	return total
}

// skip discards exactly n bytes that are known to be buffered
func (r *FrameReader) skip(src Source, n uint64) {
	buf := r.scratch()
	for n > 0 {
		chunk := buf
		if uint64(len(chunk)) > n {
			chunk = chunk[:n]
		}
		got := src.Read(chunk)
		if got == 0 {
			return
		}
		n -= uint64(got)
	}
}

func (r *FrameReader) dropped(reason DropReason, n int) {
	if r.OnDrop != nil && n > 0 {
		r.OnDrop(reason, n)
	}
}
