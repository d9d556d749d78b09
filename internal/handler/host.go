package handler

import (
	"fmt"

	"github.com/udisondev/masterserver/internal/protocol"
	"github.com/udisondev/masterserver/internal/session"
)

// handleHostOp implements the host-authority handlers: Host.Set*
// (SetInventory/SetLoadout/SetBuyMenu), TeamChanging, and ItemUsing all
// require the requester to be the current room host; they resolve the
// target connection via the registry and forward a host-scoped packet,
// denying if either check fails.
func (ctx *Context) handleHostOp(conn *session.Conn, s *session.UserSession, packetID byte, r *protocol.Reader) error {
	rm := s.Room()
	if rm == nil {
		return sendDialog(conn, GameNotOccupant)
	}
	if s.UserID() != rm.HostID() {
		return sendDialog(conn, GameNotHost)
	}

	targetID, err := r.ReadInt64LE()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	payload, err := r.ReadBytesCopy(r.Remaining())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	target, ok := ctx.Registry.FindByUserID(targetID)
	if !ok || target.Session() == nil || target.Session().Room() != rm {
		return sendDialog(conn, GameNotOccupant)
	}

	return target.Send(packetID, payload)
}
