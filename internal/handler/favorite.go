package handler

import (
	"fmt"

	"github.com/udisondev/masterserver/internal/protocol"
	"github.com/udisondev/masterserver/internal/session"
	"github.com/udisondev/masterserver/internal/userservice"
)

// handleFavorite implements the Favorite handler set (SetLoadout,
// SetCosmetics): both persist an opaque bundle upstream for the
// requester.
func (ctx *Context) handleFavorite(conn *session.Conn, s *session.UserSession, packetID byte, r *protocol.Reader) error {
	payload, err := r.ReadBytesCopy(r.Remaining())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	var upstreamErr error
	switch packetID {
	case PacketFavoriteSetLoadout:
		upstreamErr = ctx.Upstream.SetLoadoutWeapon(s.UserID(), userservice.Bundle(payload))
	case PacketFavoriteSetCosmetics:
		upstreamErr = ctx.Upstream.SetCosmeticSlot(s.UserID(), userservice.Bundle(payload))
	}

	if upstreamErr != nil {
		ctx.Probe.CheckNow()
		return sendDialog(conn, GameUpstreamDown)
	}
	return nil
}
