package protocol

import (
	"bytes"
	"testing"
)

func TestTypedRoundTrip(t *testing.T) {
	w := NewWriter(64)
	w.WriteUint8(0xAB)
	w.WriteInt8(-5)
	w.WriteUint16LE(0x1234)
	w.WriteUint16BE(0x1234)
	w.WriteInt16LE(-1000)
	w.WriteInt16BE(-1000)
	w.WriteUint32LE(0xDEADBEEF)
	w.WriteUint32BE(0xDEADBEEF)
	w.WriteInt32LE(-123456)
	w.WriteInt32BE(-123456)
	w.WriteUint64LE(0x0123456789ABCDEF)
	w.WriteUint64BE(0x0123456789ABCDEF)
	w.WriteInt64LE(-9223372036854775)
	w.WriteInt64BE(-9223372036854775)

	r := NewReader(w.Bytes())

	if v, err := r.ReadUint8(); err != nil || v != 0xAB {
		t.Fatalf("ReadUint8 = %v, %v", v, err)
	}
	if v, err := r.ReadInt8(); err != nil || v != -5 {
		t.Fatalf("ReadInt8 = %v, %v", v, err)
	}
	if v, err := r.ReadUint16LE(); err != nil || v != 0x1234 {
		t.Fatalf("ReadUint16LE = %v, %v", v, err)
	}
	if v, err := r.ReadUint16BE(); err != nil || v != 0x1234 {
		t.Fatalf("ReadUint16BE = %v, %v", v, err)
	}
	if v, err := r.ReadInt16LE(); err != nil || v != -1000 {
		t.Fatalf("ReadInt16LE = %v, %v", v, err)
	}
	if v, err := r.ReadInt16BE(); err != nil || v != -1000 {
		t.Fatalf("ReadInt16BE = %v, %v", v, err)
	}
	if v, err := r.ReadUint32LE(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("ReadUint32LE = %v, %v", v, err)
	}
	if v, err := r.ReadUint32BE(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("ReadUint32BE = %v, %v", v, err)
	}
	if v, err := r.ReadInt32LE(); err != nil || v != -123456 {
		t.Fatalf("ReadInt32LE = %v, %v", v, err)
	}
	if v, err := r.ReadInt32BE(); err != nil || v != -123456 {
		t.Fatalf("ReadInt32BE = %v, %v", v, err)
	}
	if v, err := r.ReadUint64LE(); err != nil || v != 0x0123456789ABCDEF {
		t.Fatalf("ReadUint64LE = %v, %v", v, err)
	}
	if v, err := r.ReadUint64BE(); err != nil || v != 0x0123456789ABCDEF {
		t.Fatalf("ReadUint64BE = %v, %v", v, err)
	}
	if v, err := r.ReadInt64LE(); err != nil || v != -9223372036854775 {
		t.Fatalf("ReadInt64LE = %v, %v", v, err)
	}
	if v, err := r.ReadInt64BE(); err != nil || v != -9223372036854775 {
		t.Fatalf("ReadInt64BE = %v, %v", v, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining() = %d, want 0", r.Remaining())
	}
}

func TestStringRoundTrip(t *testing.T) {
	cases := []string{"", "alice", "room with spaces", "unicode-☃-snowman"}

	for _, s := range cases {
		w := NewWriter(32)
		if err := w.WriteString(s); err != nil {
			t.Fatalf("WriteString(%q): %v", s, err)
		}
		r := NewReader(w.Bytes())
		got, err := r.ReadString()
		if err != nil {
			t.Fatalf("ReadString(%q): %v", s, err)
		}
		if got != s {
			t.Fatalf("ReadString roundtrip = %q, want %q", got, s)
		}
	}
}

func TestLongStringRoundTrip(t *testing.T) {
	long := bytes.Repeat([]byte("x"), 1000)
	s := string(long)

	w := NewWriter(len(s) + 4)
	if err := w.WriteLongString(s); err != nil {
		t.Fatalf("WriteLongString: %v", err)
	}
	r := NewReader(w.Bytes())
	got, err := r.ReadLongString()
	if err != nil {
		t.Fatalf("ReadLongString: %v", err)
	}
	if got != s {
		t.Fatalf("ReadLongString roundtrip length = %d, want %d", len(got), len(s))
	}
}

func TestWriteStringTooLong(t *testing.T) {
	w := NewWriter(16)
	if err := w.WriteString(string(bytes.Repeat([]byte("x"), 256))); err == nil {
		t.Fatal("expected error for PacketString over 255 bytes")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	body := []byte("hello room")

	if err := WriteFrame(&buf, 7, 0x42, body); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	frame, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if frame.Sequence != 7 {
		t.Errorf("Sequence = %d, want 7", frame.Sequence)
	}
	if frame.PacketID != 0x42 {
		t.Errorf("PacketID = 0x%02X, want 0x42", frame.PacketID)
	}
	if !bytes.Equal(frame.Body, body) {
		t.Errorf("Body = %q, want %q", frame.Body, body)
	}
}

func TestFrameBadSignature(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x00, 0x01, 0x00, 0xFF})

	if _, err := ReadFrame(&buf); err == nil {
		t.Fatal("expected error for bad signature")
	}
}

func TestSequenceWraps(t *testing.T) {
	var seq Sequence
	first, _ := seq.Next()
	if first != 0 {
		t.Fatalf("first sequence byte = %d, want 0", first)
	}

	for i := 1; i < 256; i++ {
		wire, _ := seq.Next()
		if int(wire) != i {
			t.Fatalf("sequence byte at step %d = %d, want %d", i, wire, i)
		}
	}

	// 257th send wraps back to 0.
	wrapped, real := seq.Next()
	if wrapped != 0 {
		t.Fatalf("sequence byte after wrap = %d, want 0", wrapped)
	}
	if real != 256 {
		t.Fatalf("real counter after wrap = %d, want 256", real)
	}
}
