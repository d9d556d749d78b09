package handler

import "github.com/udisondev/masterserver/internal/room"

// Dialog string constants surfaced to the client for InvariantViolation
// and NotFound-class failures: a user-visible dialog from this fixed
// set, never a disconnect.
const (
	GameBadUsername       = "GAME_BAD_USERNAME"
	GameBadPassword       = "GAME_BAD_PASSWORD"
	GameInvalidUserInfo   = "GAME_INVALID_USER_INFO"
	GameRoomFull          = "GAME_ROOM_FULL"
	GameRoomClosed        = "GAME_ROOM_CLOSED"
	GameRoomNotFound      = "GAME_ROOM_NOT_FOUND"
	GameNotHost           = "GAME_NOT_HOST"
	GameNotOccupant       = "GAME_NOT_OCCUPANT"
	GameInvariantViolated = "GAME_INVARIANT_VIOLATION"
	GameBadSettings       = "GAME_BAD_SETTINGS"
	GameCannotStart       = "GAME_CANNOT_START"
	GameWrongState        = "GAME_WRONG_STATE"
	GameUpstreamDown      = "GAME_UPSTREAM_UNAVAILABLE"
)

// dialogFor maps a room-package sentinel error to the dialog string a
// client should display. Errors with no entry fall back to a generic
// invariant-violation dialog.
func dialogFor(err error) string {
	switch err {
	case room.ErrRoomFull:
		return GameRoomFull
	case room.ErrRoomClosed:
		return GameRoomClosed
	case room.ErrNotHost:
		return GameNotHost
	case room.ErrNotOccupant:
		return GameNotOccupant
	case room.ErrBadSettings:
		return GameBadSettings
	case room.ErrCannotStart:
		return GameCannotStart
	case room.ErrWrongState:
		return GameWrongState
	case room.ErrBadPassword:
		return GameBadPassword
	default:
		return GameInvariantViolated
	}
}
