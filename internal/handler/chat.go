package handler

import (
	"fmt"
	"log/slog"

	"github.com/udisondev/masterserver/internal/protocol"
	"github.com/udisondev/masterserver/internal/session"
)

// Chat scopes recognized by ChatRequest: channel-scoped and room-scoped
// chat relay.
const (
	ChatScopeChannel uint8 = 0
	ChatScopeRoom    uint8 = 1
)

// handleChat relays a chat message to every member of the requester's
// current channel lobby or current room, depending on scope.
func (ctx *Context) handleChat(conn *session.Conn, s *session.UserSession, r *protocol.Reader) error {
	scope, err := r.ReadUint8()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	text, err := r.ReadLongString()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	switch scope {
	case ChatScopeRoom:
		rm := s.Room()
		if rm == nil {
			return sendDialog(conn, GameNotOccupant)
		}
		ctx.broadcastToRoom(rm, func(w *protocol.Writer) {
			w.WriteInt64LE(s.UserID())
			w.WriteLongString(text)
		}, PacketChatMessage)
		return nil

	case ChatScopeChannel:
		ch := s.Channel()
		if ch == nil {
			return sendDialog(conn, GameRoomNotFound)
		}
		for _, userID := range ch.LobbyMembers() {
			member, ok := ctx.Registry.FindByUserID(userID)
			if !ok {
				continue
			}
			w := protocol.Get()
			w.WriteInt64LE(s.UserID())
			w.WriteLongString(text)
			if err := member.Send(PacketChatMessage, w.Bytes()); err != nil {
				slog.Warn("chat broadcast send failed", "conn", member.UUID(), "error", err)
			}
			w.Put()
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown chat scope %d", ErrBadRequest, scope)
	}
}
