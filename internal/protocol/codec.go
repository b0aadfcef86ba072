package protocol

import (
	"encoding/binary"
	"fmt"
	"io"

	"crab.casa/puzzle-tournament/internal/ptserr"
)

var (
	errShortRead     = ptserr.ErrShortRead
	errFrameTooLarge = ptserr.ErrFrameTooLarge
)

// MaxFrameLength bounds a single frame body to guard against a hostile or
// corrupt length prefix forcing an unbounded allocation.
const MaxFrameLength = 16 << 20 // 16 MiB

// ReadFrame reads one length-prefixed frame from r. A length of zero is a
// keepalive and is reported via ok=false, err=nil so callers can loop
// without treating it as a message or a failure (spec.md §4.1).
func ReadFrame(r io.Reader) (body []byte, ok bool, err error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, false, fmt.Errorf("%w: %v", errShortRead, err)
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length == 0 {
		return nil, false, nil
	}
	if length > MaxFrameLength {
		return nil, false, errFrameTooLarge
	}
	body = make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, false, fmt.Errorf("%w: %v", errShortRead, err)
	}
	return body, true, nil
}

// WriteFrame writes one length-prefixed frame to w. The 4-byte length
// prefix and the body are written as a single Write so two concurrent
// writers on the same stream (which the router design forbids, spec.md
// §4.9) could never interleave at the frame boundary even if that
// invariant were ever violated.
func WriteFrame(w io.Writer, body []byte) error {
	framed := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(framed[:4], uint32(len(body)))
	copy(framed[4:], body)
	_, err := w.Write(framed)
	return err
}

// ReadMessage reads one frame and decodes it, looping past keepalives.
// A read failure or an unparsable body both collapse to
// (EndOfCommunication, error) per spec.md §4.1.
func ReadMessage(r io.Reader) (Message, error) {
	for {
		body, ok, err := ReadFrame(r)
		if err != nil {
			return EndOfCommunication{}, err
		}
		if !ok {
			continue
		}
		return Decode(body)
	}
}

// WriteMessage encodes and frames a Message in one call.
func WriteMessage(w io.Writer, m Message) error {
	body, err := Encode(m)
	if err != nil {
		return err
	}
	return WriteFrame(w, body)
}
