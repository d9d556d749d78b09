// Package handler dispatches decoded packets to per-feature handler
// functions: Login, AboutMe, Room, Host, Option, Favorite, Achievement,
// Chat. Handlers validate session and room/channel invariants themselves
// and never panic on a malformed payload — decode errors are logged and
// the packet dropped.
package handler

import "errors"

// ErrUnauthenticated is returned when a packet other than Login arrives
// on a connection with no attached session.
var ErrUnauthenticated = errors.New("handler: unauthenticated request")

// ErrBadRequest is returned when a packet body fails to decode or names
// an out-of-range value.
var ErrBadRequest = errors.New("handler: bad request")

// ErrUnknownPacket identifies a packet id with no registered handler.
// Dispatch logs and drops such packets itself and does not return it.
var ErrUnknownPacket = errors.New("handler: unknown packet id")
