package protocol

import "sync"

// Sequence is a per-direction, per-connection counter. The wire byte wraps
// modulo 256; an unbounded "real" counter is kept alongside it solely for
// packet-logging filenames (see the packet dumper).
type Sequence struct {
	mu   sync.Mutex
	wire byte
	real uint64
}

// Next returns the next wire sequence byte and the matching unbounded
// counter value, then advances both.
func (s *Sequence) Next() (wire byte, real uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wire = s.wire
	real = s.real

	s.wire++ // byte overflow wraps 255 -> 0, exactly the wire semantics
	s.real++

	return wire, real
}

// Peek returns the next wire byte and real counter without advancing.
func (s *Sequence) Peek() (wire byte, real uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wire, s.real
}
