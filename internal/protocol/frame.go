package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// FrameSignature is the fixed leading byte of every frame.
const FrameSignature byte = 0x55

// frameHeaderSize is signature(1) + sequence(1) + bodyLen(2).
const frameHeaderSize = 4

// Frame is one decoded inbound unit: a packet id plus its body, with the
// sequence byte the peer stamped on it (advisory only — not validated).
type Frame struct {
	Sequence byte
	PacketID byte
	Body     []byte
}

// ReadFrame reads one frame from r.
//
// Layout: [signature:1][sequence:1][bodyLen:2 LE][packetId:1][body:bodyLen-1].
// A frame whose signature does not match FrameSignature, or whose declared
// bodyLen is zero (there is always at least a packet id), is malformed and
// must terminate the connection — callers should treat any returned error
// as fatal to the socket.
func ReadFrame(r io.Reader) (Frame, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, fmt.Errorf("reading frame header: %w", err)
	}

	if header[0] != FrameSignature {
		return Frame{}, fmt.Errorf("%w: got 0x%02X", ErrBadSignature, header[0])
	}
	seq := header[1]
	bodyLen := binary.LittleEndian.Uint16(header[2:4])
	if bodyLen == 0 {
		return Frame{}, ErrBadFrameLength
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return Frame{}, fmt.Errorf("reading frame body (declared %d bytes): %w", bodyLen, err)
	}

	return Frame{
		Sequence: seq,
		PacketID: body[0],
		Body:     body[1:],
	}, nil
}

// WriteFrame assembles and writes one outbound frame in a single atomic
// Write call, so the sequence byte stamped into the frame matches the
// order the bytes actually leave on the wire. seq is the per-connection
// outbound sequence byte for this send (see Sequence).
func WriteFrame(w io.Writer, seq byte, packetID byte, body []byte) error {
	buf := Get()
	defer buf.Put()

	// Reserve the 4-byte header; it is patched once the body length is known.
	buf.WriteBytes(make([]byte, frameHeaderSize))
	buf.WriteUint8(packetID)
	buf.WriteBytes(body)

	out := buf.Bytes()
	bodyLen := len(out) - frameHeaderSize // packetId byte + body

	out[0] = FrameSignature
	out[1] = seq
	binary.LittleEndian.PutUint16(out[2:4], uint16(bodyLen))

	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}
