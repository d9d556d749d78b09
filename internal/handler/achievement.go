package handler

import "github.com/udisondev/masterserver/internal/session"

// handleAchievement replies with the stubbed achievements blob — the
// payload is opaque and never interpreted here.
func (ctx *Context) handleAchievement(conn *session.Conn, s *session.UserSession) error {
	return conn.Send(PacketAchievementsBlob, nil)
}
