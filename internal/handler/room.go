package handler

import (
	"fmt"
	"log/slog"

	"github.com/udisondev/masterserver/internal/protocol"
	"github.com/udisondev/masterserver/internal/room"
	"github.com/udisondev/masterserver/internal/session"
)

// handleEnterChannel resolves a channel by its directory indices and
// records it on the session, force-leaving any room the user currently
// occupies so a reconnecting or re-entering user never ends up an
// occupant of a room they can no longer see.
func (ctx *Context) handleEnterChannel(conn *session.Conn, s *session.UserSession, r *protocol.Reader) error {
	serverIdx, err := r.ReadInt32LE()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	channelIdx, err := r.ReadInt32LE()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	ch, err := ctx.Directory.GetChannelByIndex(int(serverIdx), int(channelIdx))
	if err != nil {
		return sendDialog(conn, GameRoomNotFound)
	}

	ctx.vacateCurrentRoom(s)
	if old := s.Channel(); old != nil {
		old.LeaveLobby(s.UserID())
	}
	s.EnterChannel(ch)
	ch.JoinLobby(s.UserID())

	return sendRoomList(conn, ch, "")
}

// vacateCurrentRoom force-leaves whatever room s currently occupies, if
// any, broadcasting the departure like an ordinary LeaveRoomRequest and
// returning the user to its channel's lobby.
func (ctx *Context) vacateCurrentRoom(s *session.UserSession) {
	r := s.Room()
	if r == nil {
		return
	}
	res, err := r.Leave(s.UserID())
	s.LeaveRoom()
	if ch := s.Channel(); ch != nil {
		ch.JoinLobby(s.UserID())
	}
	if err != nil {
		return
	}
	ctx.broadcastLeaveResult(r, s.UserID(), res)
}

func (ctx *Context) handleNewRoom(conn *session.Conn, s *session.UserSession, r *protocol.Reader) error {
	ch := s.Channel()
	if ch == nil {
		return sendDialog(conn, GameRoomNotFound)
	}

	mode, err := r.ReadInt32LE()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	mapID, err := r.ReadInt32LE()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	name, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	killLimit, err := r.ReadInt32LE()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	winLimit, err := r.ReadInt32LE()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	password, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	botsEnabled, err := r.ReadUint8()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	ctx.vacateCurrentRoom(s)

	newRoom, err := ch.NewRoom(s.UserID(), room.Settings{
		Name:        name,
		Password:    password,
		Map:         mapID,
		Mode:        mode,
		KillLimit:   killLimit,
		WinLimit:    winLimit,
		BotsEnabled: botsEnabled != 0,
	})
	if err != nil {
		return sendDialog(conn, dialogFor(err))
	}
	s.EnterRoom(newRoom)
	ch.LeaveLobby(s.UserID())

	if err := sendJoinNewRoom(conn, newRoom.ID()); err != nil {
		return err
	}
	if err := sendRoomSettings(conn, newRoom); err != nil {
		return err
	}
	return broadcastRoomList(ctx, ch)
}

func (ctx *Context) handleJoinRoom(conn *session.Conn, s *session.UserSession, r *protocol.Reader) error {
	ch := s.Channel()
	if ch == nil {
		return sendDialog(conn, GameRoomNotFound)
	}

	roomID, err := r.ReadInt32LE()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	password, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	target, ok := ch.GetRoom(roomID)
	if !ok {
		return sendDialog(conn, GameRoomNotFound)
	}

	ctx.vacateCurrentRoom(s)

	if _, err := target.Join(s.UserID(), password); err != nil {
		return sendDialog(conn, dialogFor(err))
	}
	s.EnterRoom(target)
	ch.LeaveLobby(s.UserID())

	if err := sendRoomSettings(conn, target); err != nil {
		return err
	}
	if err := sendRoomRoster(conn, target); err != nil {
		return err
	}
	ctx.broadcastToRoomExcept(target, s.UserID(), func(w *protocol.Writer) {
		w.WriteInt64LE(s.UserID())
	}, PacketPlayerJoined)
	return broadcastRoomList(ctx, ch)
}

func (ctx *Context) handleLeaveRoom(conn *session.Conn, s *session.UserSession) error {
	r := s.Room()
	if r == nil {
		return sendDialog(conn, GameNotOccupant)
	}
	ch := s.Channel()

	res, err := r.Leave(s.UserID())
	if err != nil {
		return sendDialog(conn, dialogFor(err))
	}
	s.LeaveRoom()
	if ch != nil {
		ch.JoinLobby(s.UserID())
	}
	ctx.broadcastLeaveResult(r, s.UserID(), res)
	if ch != nil {
		return broadcastRoomList(ctx, ch)
	}
	return nil
}

func (ctx *Context) handleKickUser(conn *session.Conn, s *session.UserSession, r *protocol.Reader) error {
	targetID, err := r.ReadInt64LE()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	rm := s.Room()
	if rm == nil {
		return sendDialog(conn, GameNotOccupant)
	}

	res, err := rm.Kick(s.UserID(), targetID)
	if err != nil {
		return sendDialog(conn, dialogFor(err))
	}
	target, found := ctx.Registry.FindByUserID(targetID)
	if found {
		if targetSess := target.Session(); targetSess != nil {
			targetSess.LeaveRoom()
			if ch := targetSess.Channel(); ch != nil {
				ch.JoinLobby(targetID)
			}
		}
	}
	ctx.broadcastLeaveResult(rm, targetID, res)
	if found {
		// The kicked user is no longer an occupant, so the broadcast above
		// does not reach it; notify it directly.
		w := protocol.Get()
		w.WriteInt64LE(targetID)
		if err := target.Send(PacketPlayerLeft, w.Bytes()); err != nil {
			slog.Warn("kick notice send failed", "conn", target.UUID(), "error", err)
		}
		w.Put()
	}
	return nil
}

func (ctx *Context) handleToggleReady(conn *session.Conn, s *session.UserSession) error {
	r := s.Room()
	if r == nil {
		return sendDialog(conn, GameNotOccupant)
	}

	ready, err := r.ToggleReady(s.UserID())
	if err != nil {
		return sendDialog(conn, dialogFor(err))
	}
	ctx.broadcastToRoom(r, func(w *protocol.Writer) {
		w.WriteInt64LE(s.UserID())
		w.WriteInt32LE(int32(ready))
	}, PacketReadyChanged)
	return nil
}

func (ctx *Context) handleUpdateSettings(conn *session.Conn, s *session.UserSession, r *protocol.Reader) error {
	rm := s.Room()
	if rm == nil {
		return sendDialog(conn, GameNotOccupant)
	}

	name, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	mapID, err := r.ReadInt32LE()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	mode, err := r.ReadInt32LE()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	killLimit, err := r.ReadInt32LE()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	winLimit, err := r.ReadInt32LE()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	botsEnabled, err := r.ReadUint8()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	bots := botsEnabled != 0

	err = rm.UpdateSettings(s.UserID(), room.SettingsPatch{
		Name:        &name,
		Map:         &mapID,
		Mode:        &mode,
		KillLimit:   &killLimit,
		WinLimit:    &winLimit,
		BotsEnabled: &bots,
	})
	if err != nil {
		return sendDialog(conn, dialogFor(err))
	}
	ctx.broadcastToRoom(rm, func(w *protocol.Writer) {
		writeSettings(w, rm.Settings())
	}, PacketRoomSettings)
	return nil
}

func (ctx *Context) handleSetUserTeam(conn *session.Conn, s *session.UserSession, r *protocol.Reader) error {
	rm := s.Room()
	if rm == nil {
		return sendDialog(conn, GameNotOccupant)
	}
	targetID, err := r.ReadInt64LE()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	team, err := r.ReadInt32LE()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	if err := rm.SetUserTeam(s.UserID(), targetID, room.Team(team)); err != nil {
		return sendDialog(conn, dialogFor(err))
	}
	ctx.broadcastToRoom(rm, func(w *protocol.Writer) {
		w.WriteInt64LE(targetID)
		w.WriteInt32LE(team)
	}, PacketTeamChanged)
	return nil
}

func (ctx *Context) handleGameStartCountdown(conn *session.Conn, s *session.UserSession, r *protocol.Reader) error {
	rm := s.Room()
	if rm == nil {
		return sendDialog(conn, GameNotOccupant)
	}
	shouldCount, err := r.ReadUint8()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	count, err := r.ReadInt32LE()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	if err := rm.GameStartCountdown(s.UserID(), shouldCount != 0, count); err != nil {
		return sendDialog(conn, dialogFor(err))
	}

	packetID := PacketCountdownTick
	if shouldCount == 0 {
		packetID = PacketCountdownAborted
	}
	ctx.broadcastToRoom(rm, func(w *protocol.Writer) {
		w.WriteInt32LE(count)
	}, packetID)
	return nil
}

func (ctx *Context) handleGameStart(conn *session.Conn, s *session.UserSession) error {
	rm := s.Room()
	if rm == nil {
		return sendDialog(conn, GameNotOccupant)
	}
	if err := rm.GameStart(s.UserID()); err != nil {
		return sendDialog(conn, dialogFor(err))
	}
	if s.UserID() == rm.HostID() {
		ctx.broadcastToRoom(rm, func(w *protocol.Writer) {}, PacketGameStarted)
	}
	return nil
}

func (ctx *Context) handleGameEnd(conn *session.Conn, s *session.UserSession) error {
	rm := s.Room()
	if rm == nil {
		return sendDialog(conn, GameNotOccupant)
	}
	if err := rm.EndGame(s.UserID()); err != nil {
		return sendDialog(conn, dialogFor(err))
	}
	ctx.broadcastToRoom(rm, func(w *protocol.Writer) {}, PacketGameEnded)
	return nil
}

func (ctx *Context) handleCloseResultWindow(conn *session.Conn, s *session.UserSession) error {
	rm := s.Room()
	if rm == nil {
		return sendDialog(conn, GameNotOccupant)
	}
	return rm.CloseResultWindow(s.UserID())
}

func (ctx *Context) handleRoomList(conn *session.Conn, s *session.UserSession, r *protocol.Reader) error {
	ch := s.Channel()
	if ch == nil {
		return sendDialog(conn, GameRoomNotFound)
	}
	filter, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return sendRoomList(conn, ch, filter)
}

// broadcastLeaveResult notifies the room's remaining occupants of an
// occupant's departure, a host migration, or a closure, depending on
// what Leave/Kick reported.
func (ctx *Context) broadcastLeaveResult(r *room.Room, departedID int64, res room.LeaveResult) {
	ctx.broadcastToRoom(r, func(w *protocol.Writer) {
		w.WriteInt64LE(departedID)
	}, PacketPlayerLeft)

	if res.HostMigrated {
		ctx.broadcastToRoom(r, func(w *protocol.Writer) {
			w.WriteInt64LE(res.NewHostID)
		}, PacketHostChanged)
	}
	if res.Closed {
		ctx.broadcastToRoom(r, func(w *protocol.Writer) {
			w.WriteInt32LE(r.ID())
		}, PacketRoomClosed)
	}
}

func (ctx *Context) broadcastToRoom(r *room.Room, build func(*protocol.Writer), packetID byte) {
	ctx.broadcastToRoomExcept(r, 0, build, packetID)
}

// broadcastToRoomExcept enumerates occupants under the room's own
// internal lock only for the duration of Slots(), then dispatches sends
// without holding it, so a slow connection write never blocks the room.
func (ctx *Context) broadcastToRoomExcept(r *room.Room, exceptUserID int64, build func(*protocol.Writer), packetID byte) {
	slots := r.Slots()
	for _, slot := range slots {
		if !slot.Occupied || slot.UserID == exceptUserID {
			continue
		}
		conn, ok := ctx.Registry.FindByUserID(slot.UserID)
		if !ok {
			continue
		}
		w := protocol.Get()
		build(w)
		if err := conn.Send(packetID, w.Bytes()); err != nil {
			slog.Warn("broadcast send failed", "conn", conn.UUID(), "error", err)
		}
		w.Put()
	}
}

func sendJoinNewRoom(conn *session.Conn, roomID int32) error {
	w := protocol.Get()
	defer w.Put()
	w.WriteInt32LE(roomID)
	return conn.Send(PacketJoinNewRoom, w.Bytes())
}

func writeSettings(w *protocol.Writer, s room.Settings) {
	w.WriteString(s.Name)
	w.WriteInt32LE(s.Map)
	w.WriteInt32LE(s.Mode)
	w.WriteInt32LE(s.KillLimit)
	w.WriteInt32LE(s.WinLimit)
	if s.BotsEnabled {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
	if s.HasPassword() {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

func sendRoomSettings(conn *session.Conn, r *room.Room) error {
	w := protocol.Get()
	defer w.Put()
	writeSettings(w, r.Settings())
	return conn.Send(PacketRoomSettings, w.Bytes())
}

func sendRoomRoster(conn *session.Conn, r *room.Room) error {
	w := protocol.Get()
	defer w.Put()
	slots := r.Slots()
	w.WriteUint8(uint8(len(slots)))
	for _, slot := range slots {
		if !slot.Occupied {
			w.WriteUint8(0)
			continue
		}
		w.WriteUint8(1)
		w.WriteInt64LE(slot.UserID)
		w.WriteInt32LE(int32(slot.Ready))
		w.WriteInt32LE(int32(slot.Team))
	}
	return conn.Send(PacketRoomRoster, w.Bytes())
}

func sendRoomList(conn *session.Conn, ch *room.Channel, nameFilter string) error {
	w := protocol.Get()
	defer w.Put()

	list := ch.RoomList(nameFilter)
	w.WriteUint16LE(uint16(len(list)))
	for _, s := range list {
		w.WriteInt32LE(s.ID)
		if err := w.WriteString(s.Name); err != nil {
			return err
		}
		w.WriteUint8(uint8(s.PlayerCount))
		w.WriteUint8(uint8(s.Capacity))
		if s.HasPassword {
			w.WriteUint8(1)
		} else {
			w.WriteUint8(0)
		}
		w.WriteInt32LE(s.Map)
		w.WriteInt32LE(s.Mode)
		w.WriteInt32LE(int32(s.Status))
	}
	return conn.Send(PacketRoomList, w.Bytes())
}

// broadcastRoomList pushes the channel's current room list to every
// lobby member, keeping every connected client's view of the lobby
// current after a room is created or closes.
func broadcastRoomList(ctx *Context, ch *room.Channel) error {
	for _, userID := range ch.LobbyMembers() {
		conn, ok := ctx.Registry.FindByUserID(userID)
		if !ok {
			continue
		}
		if err := sendRoomList(conn, ch, ""); err != nil {
			slog.Warn("room list broadcast send failed", "conn", conn.UUID(), "error", err)
		}
	}
	return nil
}
