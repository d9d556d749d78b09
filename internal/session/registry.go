package session

import "sync"

// Registry is the process-wide index of live connections, keyed both by
// the upstream user id and by player name. It is owned by the server
// and injected into handlers rather than accessed through a
// package-level global.
type Registry struct {
	mu       sync.RWMutex
	byConn   map[string]*Conn
	byUserID map[int64]*Conn
	byName   map[string]*Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byConn:   make(map[string]*Conn),
		byUserID: make(map[int64]*Conn),
		byName:   make(map[string]*Conn),
	}
}

// AddConn registers a freshly accepted, not-yet-authenticated connection.
func (r *Registry) AddConn(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byConn[c.UUID()] = c
}

// Authenticate indexes an already-registered connection by the user id and
// player name carried in its now-attached session.
func (r *Registry) Authenticate(c *Conn) {
	s := c.Session()
	if s == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUserID[s.UserID()] = c
	r.byName[s.PlayerName()] = c
}

// Remove deregisters a connection on disconnect.
func (r *Registry) Remove(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byConn, c.UUID())

	if s := c.Session(); s != nil {
		if existing, ok := r.byUserID[s.UserID()]; ok && existing == c {
			delete(r.byUserID, s.UserID())
		}
		if existing, ok := r.byName[s.PlayerName()]; ok && existing == c {
			delete(r.byName, s.PlayerName())
		}
	}
}

// FindByUserID returns the connection currently authenticated as userID, if any.
func (r *Registry) FindByUserID(userID int64) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUserID[userID]
	return c, ok
}

// FindByPlayerName returns the connection currently authenticated under
// name, if any.
func (r *Registry) FindByPlayerName(name string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// SessionCount returns the number of authenticated connections.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUserID)
}

// Connections returns a snapshot of every currently registered connection
// (authenticated or not), used for broadcast and shutdown draining.
func (r *Registry) Connections() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conn, 0, len(r.byConn))
	for _, c := range r.byConn {
		out = append(out, c)
	}
	return out
}
