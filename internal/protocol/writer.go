package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
)

// Writer accumulates a packet body with typed, bit-exact writes. Writers
// are pooled; acquire one with Get and return it with Put once the bytes
// have been handed off (Bytes() result must not be used after Put).
type Writer struct {
	buf *bytes.Buffer
}

var writerPool = sync.Pool{
	New: func() any {
		return &Writer{buf: bytes.NewBuffer(make([]byte, 0, 256))}
	},
}

// Get returns a reset Writer from the pool.
func Get() *Writer {
	w := writerPool.Get().(*Writer)
	w.Reset()
	return w
}

// Put returns w to the pool. Do not use w after calling Put.
func (w *Writer) Put() {
	writerPool.Put(w)
}

// NewWriter creates a standalone Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: bytes.NewBuffer(make([]byte, 0, capacity))}
}

// Reset clears the buffer for reuse.
func (w *Writer) Reset() {
	w.buf.Reset()
}

// WriteUint8 writes a single unsigned byte.
func (w *Writer) WriteUint8(v uint8) {
	w.buf.WriteByte(v)
}

// WriteInt8 writes a single signed byte.
func (w *Writer) WriteInt8(v int8) {
	w.buf.WriteByte(byte(v))
}

// WriteUint16LE writes a little-endian uint16.
func (w *Writer) WriteUint16LE(v uint16) {
	w.buf.WriteByte(byte(v))
	w.buf.WriteByte(byte(v >> 8))
}

// WriteUint16BE writes a big-endian uint16.
func (w *Writer) WriteUint16BE(v uint16) {
	w.buf.WriteByte(byte(v >> 8))
	w.buf.WriteByte(byte(v))
}

// WriteInt16LE writes a little-endian int16.
func (w *Writer) WriteInt16LE(v int16) { w.WriteUint16LE(uint16(v)) }

// WriteInt16BE writes a big-endian int16.
func (w *Writer) WriteInt16BE(v int16) { w.WriteUint16BE(uint16(v)) }

// WriteUint32LE writes a little-endian uint32.
func (w *Writer) WriteUint32LE(v uint32) {
	w.buf.WriteByte(byte(v))
	w.buf.WriteByte(byte(v >> 8))
	w.buf.WriteByte(byte(v >> 16))
	w.buf.WriteByte(byte(v >> 24))
}

// WriteUint32BE writes a big-endian uint32.
func (w *Writer) WriteUint32BE(v uint32) {
	w.buf.WriteByte(byte(v >> 24))
	w.buf.WriteByte(byte(v >> 16))
	w.buf.WriteByte(byte(v >> 8))
	w.buf.WriteByte(byte(v))
}

// WriteInt32LE writes a little-endian int32.
func (w *Writer) WriteInt32LE(v int32) { w.WriteUint32LE(uint32(v)) }

// WriteInt32BE writes a big-endian int32.
func (w *Writer) WriteInt32BE(v int32) { w.WriteUint32BE(uint32(v)) }

// WriteUint64LE writes a little-endian uint64.
func (w *Writer) WriteUint64LE(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.buf.Write(tmp[:])
}

// WriteUint64BE writes a big-endian uint64.
func (w *Writer) WriteUint64BE(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	w.buf.Write(tmp[:])
}

// WriteInt64LE writes a little-endian int64.
func (w *Writer) WriteInt64LE(v int64) { w.WriteUint64LE(uint64(v)) }

// WriteInt64BE writes a big-endian int64.
func (w *Writer) WriteInt64BE(v int64) { w.WriteUint64BE(uint64(v)) }

// WriteString writes a PacketString: a 1-byte length prefix holding the
// exact encoded UTF-8 byte count, followed by that many bytes.
// Returns an error if s encodes to more than 255 bytes.
func (w *Writer) WriteString(s string) error {
	if len(s) > 0xFF {
		return fmt.Errorf("WriteString: %q encodes to %d bytes, exceeds PacketString limit 255", s, len(s))
	}
	w.WriteUint8(uint8(len(s)))
	w.buf.WriteString(s)
	return nil
}

// WriteLongString writes a PacketLongString: a 2-byte little-endian length
// prefix holding the exact encoded UTF-8 byte count, followed by that many
// bytes. Returns an error if s encodes to more than 65535 bytes.
func (w *Writer) WriteLongString(s string) error {
	if len(s) > 0xFFFF {
		return fmt.Errorf("WriteLongString: %q encodes to %d bytes, exceeds PacketLongString limit 65535", s, len(s))
	}
	w.WriteUint16LE(uint16(len(s)))
	w.buf.WriteString(s)
	return nil
}

// WriteBytes writes raw bytes verbatim.
func (w *Writer) WriteBytes(b []byte) {
	w.buf.Write(b)
}

// Bytes returns the accumulated body.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}
