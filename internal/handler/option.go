package handler

import (
	"fmt"

	"github.com/udisondev/masterserver/internal/protocol"
	"github.com/udisondev/masterserver/internal/session"
	"github.com/udisondev/masterserver/internal/userservice"
)

// handleOptionSetBuyMenu persists the requester's buy-menu bundle
// upstream, opaquely.
func (ctx *Context) handleOptionSetBuyMenu(conn *session.Conn, s *session.UserSession, r *protocol.Reader) error {
	payload, err := r.ReadBytesCopy(r.Remaining())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := ctx.Upstream.SetBuyMenu(s.UserID(), userservice.Bundle(payload)); err != nil {
		ctx.Probe.CheckNow()
		return sendDialog(conn, GameUpstreamDown)
	}
	return nil
}
