package handler

import (
	"errors"
	"fmt"

	"github.com/udisondev/masterserver/internal/protocol"
	"github.com/udisondev/masterserver/internal/room"
	"github.com/udisondev/masterserver/internal/session"
	"github.com/udisondev/masterserver/internal/userservice"
)

// handleLogin implements the Login handler: on success it creates a
// session, attaches it, registers the connection, and sends (in order)
// UserStart, the opaque achievements blob, FullUserUpdate, the user's
// inventory bundle, and the channel list. The cosmetics, loadout and
// buy-menu bundles are not sent at login.
func (ctx *Context) handleLogin(conn *session.Conn, r *protocol.Reader) error {
	username, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("%w: decoding username: %v", ErrBadRequest, err)
	}
	password, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("%w: decoding password: %v", ErrBadRequest, err)
	}

	userID, err := ctx.Upstream.Login(username, password)
	if err != nil {
		if errors.Is(err, userservice.ErrBadPassword) {
			return sendDialog(conn, GameBadPassword)
		}
		ctx.Probe.CheckNow()
		return sendDialog(conn, GameUpstreamDown)
	}
	if userID == 0 {
		return sendDialog(conn, GameBadUsername)
	}

	user, err := ctx.Upstream.GetById(userID)
	if err != nil {
		return sendDialog(conn, GameInvalidUserInfo)
	}

	sess := session.NewUserSession(user)
	conn.SetSession(sess)
	ctx.Registry.Authenticate(conn)

	if err := sendUserStart(conn, user); err != nil {
		return err
	}
	if err := sendAchievementsBlob(conn, userID, ctx.Upstream); err != nil {
		return err
	}
	if err := sendFullUserUpdate(conn, user); err != nil {
		return err
	}
	if err := sendInventoryBundle(conn, userID, ctx.Upstream); err != nil {
		return err
	}
	return sendChannelList(conn, ctx.Directory)
}

func sendUserStart(conn *session.Conn, u userservice.User) error {
	w := protocol.Get()
	defer w.Put()
	w.WriteInt64LE(u.ID)
	if err := w.WriteString(u.Username); err != nil {
		return err
	}
	if err := w.WriteString(u.PlayerName); err != nil {
		return err
	}
	return conn.Send(PacketUserStart, w.Bytes())
}

func sendAchievementsBlob(conn *session.Conn, userID int64, up *userservice.Client) error {
	// Achievement payloads are stubbed: an empty blob is sent.
	return conn.Send(PacketAchievementsBlob, nil)
}

func sendFullUserUpdate(conn *session.Conn, u userservice.User) error {
	w := protocol.Get()
	defer w.Put()
	w.WriteInt64LE(u.ID)
	if err := w.WriteString(u.PlayerName); err != nil {
		return err
	}
	return conn.Send(PacketFullUserUpdate, w.Bytes())
}

func sendInventoryBundle(conn *session.Conn, userID int64, up *userservice.Client) error {
	inv, err := up.GetInventory(userID)
	if err != nil {
		inv, err = up.CreateInventory(userID)
		if err != nil {
			return fmt.Errorf("bootstrapping inventory: %w", err)
		}
	}
	return conn.Send(PacketInventoryBundle, inv)
}

func sendChannelList(conn *session.Conn, dir *room.Directory) error {
	w := protocol.Get()
	defer w.Put()

	snap := dir.Snapshot()
	w.WriteUint16LE(uint16(len(snap)))
	for _, srv := range snap {
		if err := w.WriteString(srv.Name); err != nil {
			return err
		}
		w.WriteUint16LE(uint16(len(srv.Channels)))
		for _, ch := range srv.Channels {
			w.WriteInt32LE(int32(ch.Index))
			w.WriteInt32LE(int32(ch.RoomCount))
		}
	}
	return conn.Send(PacketChannelList, w.Bytes())
}

func sendDialog(conn *session.Conn, text string) error {
	w := protocol.Get()
	defer w.Put()
	if err := w.WriteLongString(text); err != nil {
		return err
	}
	return conn.Send(PacketSystemDialog, w.Bytes())
}
