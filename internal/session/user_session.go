package session

import (
	"sync"
	"time"

	"github.com/udisondev/masterserver/internal/room"
	"github.com/udisondev/masterserver/internal/userservice"
)

// UserSession is the per-connection identity attached to a Conn once login
// completes. It tracks which channel/room the user currently occupies, if
// any, so handlers can resolve "where is this user" without walking the
// whole directory.
//
// UserSession depends on room (to hold the user's current channel/room) but
// never the other way — room stores only int64 user ids, per its package
// doc.
type UserSession struct {
	User    userservice.User
	LoginAt time.Time

	mu      sync.RWMutex
	channel *room.Channel
	current *room.Room
}

// NewUserSession creates a session for an authenticated user.
func NewUserSession(u userservice.User) *UserSession {
	return &UserSession{User: u, LoginAt: time.Now()}
}

// UserID returns the session owner's upstream user id.
func (s *UserSession) UserID() int64 { return s.User.ID }

// PlayerName returns the session owner's display name.
func (s *UserSession) PlayerName() string { return s.User.PlayerName }

// EnterChannel records the channel the user has joined the lobby of,
// clearing any prior room occupancy (a user moving channels implicitly
// leaves whatever room they held in the old one).
func (s *UserSession) EnterChannel(c *room.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = c
	s.current = nil
}

// Channel returns the user's current channel, or nil if not in one.
func (s *UserSession) Channel() *room.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channel
}

// EnterRoom records the room the user is seated in.
func (s *UserSession) EnterRoom(r *room.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = r
}

// LeaveRoom clears the user's current room without affecting their channel.
func (s *UserSession) LeaveRoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// Room returns the room the user currently occupies, or nil.
func (s *UserSession) Room() *room.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
