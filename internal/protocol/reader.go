package protocol

import (
	"encoding/binary"
	"fmt"
)

// Reader provides sequential typed reads over a decoded frame body.
// All multi-byte numeric reads come in both little-endian (LE) and
// big-endian (BE) flavors, per the round-trip properties this protocol
// must satisfy.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data for sequential reading. data is not copied; the
// caller must not mutate it while the Reader is in use.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) need(n int) error {
	if r.pos+n > len(r.data) {
		return fmt.Errorf("%w: pos=%d need=%d len=%d", ErrShortRead, r.pos, n, len(r.data))
	}
	return nil
}

// ReadUint8 reads a single unsigned byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// ReadInt8 reads a single signed byte.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

// ReadUint16LE reads a little-endian uint16.
func (r *Reader) ReadUint16LE() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadUint16BE reads a big-endian uint16.
func (r *Reader) ReadUint16BE() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadInt16LE reads a little-endian int16.
func (r *Reader) ReadInt16LE() (int16, error) {
	v, err := r.ReadUint16LE()
	return int16(v), err
}

// ReadInt16BE reads a big-endian int16.
func (r *Reader) ReadInt16BE() (int16, error) {
	v, err := r.ReadUint16BE()
	return int16(v), err
}

// ReadUint32LE reads a little-endian uint32.
func (r *Reader) ReadUint32LE() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadUint32BE reads a big-endian uint32.
func (r *Reader) ReadUint32BE() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadInt32LE reads a little-endian int32.
func (r *Reader) ReadInt32LE() (int32, error) {
	v, err := r.ReadUint32LE()
	return int32(v), err
}

// ReadInt32BE reads a big-endian int32.
func (r *Reader) ReadInt32BE() (int32, error) {
	v, err := r.ReadUint32BE()
	return int32(v), err
}

// ReadUint64LE reads a little-endian uint64.
func (r *Reader) ReadUint64LE() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadUint64BE reads a big-endian uint64.
func (r *Reader) ReadUint64BE() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadInt64LE reads a little-endian int64.
func (r *Reader) ReadInt64LE() (int64, error) {
	v, err := r.ReadUint64LE()
	return int64(v), err
}

// ReadInt64BE reads a big-endian int64.
func (r *Reader) ReadInt64BE() (int64, error) {
	v, err := r.ReadUint64BE()
	return int64(v), err
}

// ReadString reads a PacketString: a 1-byte length prefix followed by that
// many bytes of UTF-8. Decoding asserts the declared length equals the
// UTF-8 byte count of the consumed slice (it always does, by construction,
// but the check also catches a truncated buffer).
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadUint8()
	if err != nil {
		return "", fmt.Errorf("reading PacketString length: %w", err)
	}
	return r.readStringBody(int(n))
}

// ReadLongString reads a PacketLongString: a 2-byte little-endian length
// prefix followed by that many bytes of UTF-8.
func (r *Reader) ReadLongString() (string, error) {
	n, err := r.ReadUint16LE()
	if err != nil {
		return "", fmt.Errorf("reading PacketLongString length: %w", err)
	}
	return r.readStringBody(int(n))
}

func (r *Reader) readStringBody(n int) (string, error) {
	b, err := r.ReadBytesCopy(n)
	if err != nil {
		return "", fmt.Errorf("reading string body: %w", err)
	}
	if len(b) != n {
		return "", ErrStringLengthMismatch
	}
	return string(b), nil
}

// ReadBytes reads n bytes, zero-copy: the returned slice aliases the
// Reader's backing array and must not be retained past the frame's
// lifetime or mutated.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("ReadBytes: negative count %d", n)
	}
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadBytesCopy reads n bytes into a freshly allocated, mutable slice.
func (r *Reader) ReadBytesCopy(n int) ([]byte, error) {
	b, err := r.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	cp := make([]byte, n)
	copy(cp, b)
	return cp, nil
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Position returns the current read offset.
func (r *Reader) Position() int {
	return r.pos
}
