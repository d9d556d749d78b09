package handler

import (
	"github.com/udisondev/masterserver/internal/protocol"
	"github.com/udisondev/masterserver/internal/session"
)

// handleAboutMe replies with the requester's own identity, usable before
// or after the rest of the room/channel state is populated.
func (ctx *Context) handleAboutMe(conn *session.Conn, r *protocol.Reader) error {
	s := conn.Session()
	if s == nil {
		return ErrUnauthenticated
	}

	w := protocol.Get()
	defer w.Put()
	w.WriteInt64LE(s.UserID())
	if err := w.WriteString(s.PlayerName()); err != nil {
		return err
	}
	return conn.Send(PacketFullUserUpdate, w.Bytes())
}
