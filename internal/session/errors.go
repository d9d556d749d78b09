// Package session owns the live connection: the framed socket wrapper
// (Conn), the authenticated state attached to it after login
// (UserSession), and the process-wide registry used to look a connection
// up by user id or player name.
package session

import "errors"

// ErrConnectionClosed is returned by Send/SendRaw when the connection has
// already been destroyed. Callers should log and swallow this error; it is
// not fatal to the caller.
var ErrConnectionClosed = errors.New("session: connection closed")
