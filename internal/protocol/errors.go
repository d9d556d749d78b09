// Package protocol implements the master server's framed binary protocol:
// length-prefixed frames with a signature byte and per-direction sequence
// counters, plus typed readers/writers for the numeric and string fields
// carried inside a frame body.
package protocol

import "errors"

// ErrBadSignature is returned when a frame's leading byte does not match
// FrameSignature. The connection must be closed on this error.
var ErrBadSignature = errors.New("protocol: bad frame signature")

// ErrBadFrameLength is returned when a frame declares a body length that
// cannot be satisfied (zero, since every frame carries at least a packet id).
var ErrBadFrameLength = errors.New("protocol: invalid frame body length")

// ErrStringLengthMismatch is returned by string decoders when the declared
// length prefix does not equal the UTF-8 byte count actually consumed.
var ErrStringLengthMismatch = errors.New("protocol: declared string length does not match decoded length")

// ErrShortRead is returned by typed readers when the buffer does not hold
// enough bytes for the requested value.
var ErrShortRead = errors.New("protocol: short read")
