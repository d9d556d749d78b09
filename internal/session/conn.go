package session

import (
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/udisondev/masterserver/internal/protocol"
)

// Conn wraps one accepted socket: a stable identity, its attached session
// (nil until login), per-direction sequence counters, and a write lane
// that serializes every outbound frame so the sequence byte stamped into
// the frame equals the actual order on the wire.
type Conn struct {
	id   string
	conn net.Conn

	outbound protocol.Sequence
	inbound  protocol.Sequence // advisory only, per §3: not validated

	writeMu   sync.Mutex
	destroyed atomic.Bool

	sessMu  sync.RWMutex
	session *UserSession

	dumper *Dumper
}

// New wraps conn as a Conn. dumper may be nil (packet logging disabled).
func New(conn net.Conn, dumper *Dumper) *Conn {
	return &Conn{
		id:     uuid.NewString(),
		conn:   conn,
		dumper: dumper,
	}
}

// UUID returns the connection's stable identifier.
func (c *Conn) UUID() string { return c.id }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// Session returns the attached session, or nil if the connection has not
// completed login.
func (c *Conn) Session() *UserSession {
	c.sessMu.RLock()
	defer c.sessMu.RUnlock()
	return c.session
}

// SetSession attaches s to the connection (called once, on successful
// login).
func (c *Conn) SetSession(s *UserSession) {
	c.sessMu.Lock()
	c.session = s
	c.sessMu.Unlock()
}

// NextInboundSequence returns the next advisory inbound sequence byte and
// its unbounded counterpart, without recording it. It is advisory only —
// the decoded value is never validated against an expectation.
func (c *Conn) NextInboundSequence() (wire byte, real uint64) {
	return c.inbound.Peek()
}

// Send builds one frame for packetID/body, stamps it with this
// connection's next outbound sequence byte, and writes it atomically.
// Returns ErrConnectionClosed if the socket has been destroyed.
func (c *Conn) Send(packetID byte, body []byte) error {
	return c.send(packetID, body)
}

// SendRaw writes a pre-assembled frame body (packetID as the first byte,
// payload following) through the same serialized write lane as Send.
func (c *Conn) SendRaw(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return c.send(buf[0], buf[1:])
}

func (c *Conn) send(packetID byte, body []byte) error {
	if c.destroyed.Load() {
		return ErrConnectionClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	// Re-check under the lock: a concurrent Close may have landed between
	// the fast-path check above and acquiring the lane.
	if c.destroyed.Load() {
		return ErrConnectionClosed
	}

	seq, real := c.outbound.Next()
	if err := protocol.WriteFrame(c.conn, seq, packetID, body); err != nil {
		return err
	}

	if c.dumper != nil {
		c.dumper.Dump("out", c.id, real, packetID, body)
	}

	return nil
}

// MarkInbound advances the connection's own inbound counter for one
// inbound frame (the peer's declared sequence byte is not recorded) and,
// if packet dumping is enabled, queues the raw frame for forensic replay.
func (c *Conn) MarkInbound(packetID byte, body []byte) {
	_, real := c.inbound.Next()
	if c.dumper != nil {
		c.dumper.Dump("in", c.id, real, packetID, body)
	}
}

// Close marks the connection destroyed and closes the underlying socket.
// Safe to call more than once.
func (c *Conn) Close() error {
	if !c.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	if err := c.conn.Close(); err != nil {
		slog.Debug("closing connection socket", "conn", c.id, "error", err)
		return err
	}
	return nil
}

// Destroyed reports whether Close has been called.
func (c *Conn) Destroyed() bool {
	return c.destroyed.Load()
}

// Raw exposes the underlying net.Conn for the read loop only; handler code
// should never write to it directly (use Send/SendRaw to keep the
// sequence byte contiguous).
func (c *Conn) Raw() net.Conn {
	return c.conn
}
