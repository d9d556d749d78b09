// Package room implements the channel/room hierarchy: a fixed directory of
// channel servers, each holding an ordered list of channels, each holding a
// set of rooms. A Room is the match-making state machine — it stores
// occupants by user id only (never a connection pointer), so resolving a
// user id to a live socket is left to the caller (the session registry),
// keeping this package free of any dependency on the connection layer.
package room

import "errors"

var (
	// ErrRoomFull is returned by Join when every slot is occupied.
	ErrRoomFull = errors.New("room: full")
	// ErrRoomClosed is returned by Join when the room is Closed.
	ErrRoomClosed = errors.New("room: closed")
	// ErrBadPassword is returned by Join when the supplied password does
	// not match a protected room's password, byte-for-byte.
	ErrBadPassword = errors.New("room: bad password")
	// ErrNotOccupant is returned when the acting user is not in the room.
	ErrNotOccupant = errors.New("room: not an occupant")
	// ErrAlreadyOccupant is returned by Join when the user is already seated.
	ErrAlreadyOccupant = errors.New("room: already an occupant")
	// ErrNotHost is returned by host-only operations when the acting user
	// is not the current host.
	ErrNotHost = errors.New("room: requester is not host")
	// ErrInvariant is returned when an operation would violate a state
	// invariant (e.g. a team change while ready, or a leave while ready
	// during countdown). Reported to the user via a GAME_* dialog, never
	// a disconnect.
	ErrInvariant = errors.New("room: invariant violation")
	// ErrBadSettings is returned when a settings update names a value
	// outside the recognized enum for its field.
	ErrBadSettings = errors.New("room: invalid settings")
	// ErrCannotStart is returned by GameStartCountdown when CanStartGame is
	// false (an empty team with bots disabled).
	ErrCannotStart = errors.New("room: cannot start game")
	// ErrWrongState is returned when an operation's state precondition
	// (e.g. GameStart from Waiting) is not met.
	ErrWrongState = errors.New("room: wrong state for operation")

	// ErrChannelBounds is returned by the directory when a server or
	// channel index is out of the configured range.
	ErrChannelBounds = errors.New("room: index out of configured bounds")
	// ErrRoomNotFound names a room id that does not exist in the channel.
	// Channel.GetRoom reports a missing room with its bool result instead.
	ErrRoomNotFound = errors.New("room: not found")
)
