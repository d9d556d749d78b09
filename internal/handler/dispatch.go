package handler

import (
	"log/slog"

	"github.com/udisondev/masterserver/internal/protocol"
	"github.com/udisondev/masterserver/internal/room"
	"github.com/udisondev/masterserver/internal/session"
	"github.com/udisondev/masterserver/internal/userservice"
)

// Context bundles the dependencies every handler needs: the registry and
// channel directory (both process-wide but injected rather than global),
// the upstream client, and its liveness probe. Holding these on a
// Context rather than package-level globals is what lets the dispatcher
// be constructed per test with fakes.
type Context struct {
	Registry  *session.Registry
	Directory *room.Directory
	Upstream  *userservice.Client
	Probe     *userservice.Probe
}

// Dispatch routes one decoded frame to its handler, keyed by packet id
// via a tagged-discriminator switch, with unknown ids explicitly
// handled rather than falling through silently. A handler failure is
// logged; it never terminates the connection — only a framing error
// does that, upstream of this function.
func (ctx *Context) Dispatch(conn *session.Conn, frame protocol.Frame) {
	r := protocol.NewReader(frame.Body)

	var err error
	switch frame.PacketID {
	case PacketLogin:
		err = ctx.handleLogin(conn, r)
	case PacketAboutMe:
		err = ctx.handleAboutMe(conn, r)

	case PacketEnterChannelRequest:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleEnterChannel(conn, s, r) })
	case PacketNewRoomRequest:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleNewRoom(conn, s, r) })
	case PacketJoinRoomRequest:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleJoinRoom(conn, s, r) })
	case PacketLeaveRoomRequest:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleLeaveRoom(conn, s) })
	case PacketToggleReadyRequest:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleToggleReady(conn, s) })
	case PacketUpdateSettingsRequest:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleUpdateSettings(conn, s, r) })
	case PacketSetUserTeamRequest:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleSetUserTeam(conn, s, r) })
	case PacketGameStartCountdownRequest:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleGameStartCountdown(conn, s, r) })
	case PacketGameStartRequest:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleGameStart(conn, s) })
	case PacketOnGameEnd:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleGameEnd(conn, s) })
	case PacketOnCloseResultWindow:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleCloseResultWindow(conn, s) })
	case PacketKickUserRequest:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleKickUser(conn, s, r) })
	case PacketRoomListRequest:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleRoomList(conn, s, r) })

	case PacketHostSetInventory, PacketHostSetLoadout, PacketHostSetBuyMenu, PacketHostTeamChanging, PacketHostItemUsing:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleHostOp(conn, s, frame.PacketID, r) })

	case PacketOptionSetBuyMenu:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleOptionSetBuyMenu(conn, s, r) })

	case PacketFavoriteSetLoadout, PacketFavoriteSetCosmetics:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleFavorite(conn, s, frame.PacketID, r) })

	case PacketAchievementRequest:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleAchievement(conn, s) })

	case PacketChatRequest:
		err = ctx.requireSession(conn, func(s *session.UserSession) error { return ctx.handleChat(conn, s, r) })

	default:
		slog.Warn("dropping unknown packet", "conn", conn.UUID(), "packetId", frame.PacketID)
		return
	}

	if err != nil {
		slog.Info("handler error", "conn", conn.UUID(), "packetId", frame.PacketID, "error", err)
	}
}

// requireSession enforces the authenticated-only invariant: any packet
// other than Login/AboutMe arriving before login succeeds is logged and
// dropped.
func (ctx *Context) requireSession(conn *session.Conn, fn func(*session.UserSession) error) error {
	s := conn.Session()
	if s == nil {
		return ErrUnauthenticated
	}
	return fn(s)
}
