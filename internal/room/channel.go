package room

import (
	"sort"
	"strings"
	"sync"
)

// Channel holds the rooms created within it (keyed by an id unique within
// the channel, reused once a room closes and is removed) and tracks which
// members are currently "in lobby" — present in the channel but not
// presently seated in one of its rooms.
type Channel struct {
	index int

	mu       sync.RWMutex
	rooms    map[int32]*Room
	nextID   int32
	freedIDs []int32 // ascending; reused before minting a new id

	lobby map[int64]struct{}

	catalog SettingsCatalog
}

// NewChannel creates an empty channel at the given directory index.
func NewChannel(index int, catalog SettingsCatalog) *Channel {
	return &Channel{
		index:   index,
		rooms:   make(map[int32]*Room),
		lobby:   make(map[int64]struct{}),
		catalog: catalog,
	}
}

// Index returns this channel's position within its channel server.
func (c *Channel) Index() int { return c.index }

func (c *Channel) allocateIDLocked() int32 {
	if n := len(c.freedIDs); n > 0 {
		id := c.freedIDs[0]
		c.freedIDs = c.freedIDs[1:]
		return id
	}
	c.nextID++
	return c.nextID
}

// NewRoom creates and registers a room hosted by hostID.
func (c *Channel) NewRoom(hostID int64, settings Settings) (*Room, error) {
	if err := c.catalog.Validate(settings); err != nil {
		return nil, err
	}

	c.mu.Lock()
	id := c.allocateIDLocked()
	r := NewRoom(id, hostID, settings, c.catalog)
	c.rooms[id] = r
	c.mu.Unlock()

	return r, nil
}

// GetRoom returns the room with the given id, if it exists.
func (c *Channel) GetRoom(id int32) (*Room, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rooms[id]
	return r, ok
}

// RemoveRoom deletes a closed room from the channel and frees its id for
// reuse by a later room in this channel.
func (c *Channel) RemoveRoom(id int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rooms[id]; !ok {
		return
	}
	delete(c.rooms, id)

	i := sort.Search(len(c.freedIDs), func(i int) bool { return c.freedIDs[i] >= id })
	c.freedIDs = append(c.freedIDs, 0)
	copy(c.freedIDs[i+1:], c.freedIDs[i:])
	c.freedIDs[i] = id
}

// Rooms returns a snapshot slice of the channel's live rooms.
func (c *Channel) Rooms() []*Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		out = append(out, r)
	}
	return out
}

// JoinLobby marks userID present in the channel's lobby (not seated in a room).
func (c *Channel) JoinLobby(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lobby[userID] = struct{}{}
}

// LeaveLobby removes userID from the channel's lobby set (for example
// when the user takes a seat in a room).
func (c *Channel) LeaveLobby(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lobby, userID)
}

// LobbyMembers returns a snapshot of user ids present in the channel.
func (c *Channel) LobbyMembers() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]int64, 0, len(c.lobby))
	for id := range c.lobby {
		out = append(out, id)
	}
	return out
}

// RoomSummary describes one room for a room-list snapshot.
type RoomSummary struct {
	ID          int32
	Name        string
	PlayerCount int
	Capacity    int
	HasPassword bool
	Map         int32
	Mode        int32
	Status      Status
}

// RoomList returns summaries of all non-closed rooms whose name contains
// nameFilter (case-sensitive substring match; an empty filter matches
// every room), letting a client narrow the lobby listing by name.
func (c *Channel) RoomList(nameFilter string) []RoomSummary {
	rooms := c.Rooms()
	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		if r.Status() == Closed {
			continue
		}
		s := r.Settings()
		if nameFilter != "" && !strings.Contains(s.Name, nameFilter) {
			continue
		}
		out = append(out, RoomSummary{
			ID:          r.ID(),
			Name:        s.Name,
			PlayerCount: r.OccupantCount(),
			Capacity:    Capacity,
			HasPassword: s.HasPassword(),
			Map:         s.Map,
			Mode:        s.Mode,
			Status:      r.Status(),
		})
	}
	return out
}
