package room

import "sync"

// LeaveResult reports the side effects of a successful Leave or Kick.
type LeaveResult struct {
	HostMigrated bool
	NewHostID    int64
	Closed       bool
}

// Room is the match-making state machine. All occupants are tracked by
// user id only — never by connection pointer — so a Room never needs to
// import the session/connection layer; resolving a user id to a live
// socket for a broadcast is the caller's job.
//
// Lock ordering: operations that touch a single room acquire Room before
// Channel before the session registry. Room never acquires a Channel or
// registry lock internally, so that ordering is trivially respected by
// callers.
type Room struct {
	mu sync.RWMutex

	id       int32
	hostID   int64
	slots    [Capacity]Slot
	joinOrder []int64 // occupant user ids, oldest first — used for host migration

	status         Status
	countdownValue int32
	settings       Settings

	catalog SettingsCatalog
}

// NewRoom creates a room in Waiting state with hostID seated in slot 0 as
// its first occupant.
func NewRoom(id int32, hostID int64, settings Settings, catalog SettingsCatalog) *Room {
	r := &Room{
		id:       id,
		hostID:   hostID,
		status:   Waiting,
		settings: settings,
		catalog:  catalog,
	}
	r.slots[0] = Slot{Occupied: true, UserID: hostID, Ready: NotReady, Team: NoTeam}
	r.joinOrder = append(r.joinOrder, hostID)
	return r
}

// ID returns the room's channel-scoped id.
func (r *Room) ID() int32 { return r.id }

// HostID returns the current host's user id.
func (r *Room) HostID() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hostID
}

// Status returns the current state.
func (r *Room) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Settings returns a copy of the current settings.
func (r *Room) Settings() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}

// CountdownValue returns the last recorded countdown tick.
func (r *Room) CountdownValue() int32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.countdownValue
}

// OccupantCount returns the number of seated occupants.
func (r *Room) OccupantCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.joinOrder)
}

// IsOccupant reports whether userID currently holds a slot.
func (r *Room) IsOccupant(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.slotIndexLocked(userID)
	return ok
}

// Slots returns a snapshot copy of the player slots.
func (r *Room) Slots() [Capacity]Slot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slots
}

func (r *Room) slotIndexLocked(userID int64) (int, bool) {
	for i := range r.slots {
		if r.slots[i].Occupied && r.slots[i].UserID == userID {
			return i, true
		}
	}
	return 0, false
}

func (r *Room) freeSlotLocked() (int, bool) {
	for i := range r.slots {
		if !r.slots[i].Occupied {
			return i, true
		}
	}
	return 0, false
}

func (r *Room) removeFromJoinOrderLocked(userID int64) {
	for i, id := range r.joinOrder {
		if id == userID {
			r.joinOrder = append(r.joinOrder[:i], r.joinOrder[i+1:]...)
			return
		}
	}
}

// Join seats userID in the first free slot. password is compared
// byte-for-byte against the room's configured password; an empty
// configured password means the room is public.
func (r *Room) Join(userID int64, password string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == Closed {
		return 0, ErrRoomClosed
	}
	if _, ok := r.slotIndexLocked(userID); ok {
		return 0, ErrAlreadyOccupant
	}
	if r.settings.HasPassword() && password != r.settings.Password {
		return 0, ErrBadPassword
	}
	idx, ok := r.freeSlotLocked()
	if !ok {
		return 0, ErrRoomFull
	}

	r.slots[idx] = Slot{Occupied: true, UserID: userID, Ready: NotReady, Team: NoTeam}
	r.joinOrder = append(r.joinOrder, userID)
	return idx, nil
}

// Leave removes userID from the room. If the room is in Countdown and the
// occupant is Ready, the leave is denied. If the host leaves, the room
// migrates to the earliest-joined remaining occupant, or closes if none
// remain.
func (r *Room) Leave(userID int64) (LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeOccupantLocked(userID)
}

// Kick removes targetID from the room on requesterID's (the host's)
// authority. Subject to the same Countdown/ready restriction as Leave.
func (r *Room) Kick(requesterID, targetID int64) (LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.hostID {
		return LeaveResult{}, ErrNotHost
	}
	return r.removeOccupantLocked(targetID)
}

func (r *Room) removeOccupantLocked(userID int64) (LeaveResult, error) {
	idx, ok := r.slotIndexLocked(userID)
	if !ok {
		return LeaveResult{}, ErrNotOccupant
	}
	if r.status == Countdown && r.slots[idx].Ready != NotReady {
		return LeaveResult{}, ErrInvariant
	}

	r.slots[idx] = Slot{}
	r.removeFromJoinOrderLocked(userID)

	result := LeaveResult{}
	if userID == r.hostID {
		if len(r.joinOrder) > 0 {
			r.hostID = r.joinOrder[0]
			result.HostMigrated = true
			result.NewHostID = r.hostID
		} else {
			r.status = Closed
			result.Closed = true
		}
	}
	return result, nil
}

// ToggleReady flips an occupant's readiness between NotReady and Ready.
// Only permitted while the room is Waiting.
func (r *Room) ToggleReady(userID int64) (ReadyState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.slotIndexLocked(userID)
	if !ok {
		return 0, ErrNotOccupant
	}
	if r.status != Waiting {
		return 0, ErrWrongState
	}

	switch r.slots[idx].Ready {
	case NotReady:
		r.slots[idx].Ready = Ready
	case Ready:
		r.slots[idx].Ready = NotReady
	default:
		return 0, ErrWrongState
	}
	return r.slots[idx].Ready, nil
}

// UpdateSettings replaces the subset of fields named in patch. Only the
// host may call this, and only while Waiting or Result — not during
// Countdown or Ingame.
func (r *Room) UpdateSettings(requesterID int64, patch SettingsPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.hostID {
		return ErrNotHost
	}
	if r.status == Countdown || r.status == Ingame {
		return ErrInvariant
	}

	next := r.settings
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.Map != nil {
		next.Map = *patch.Map
	}
	if patch.Mode != nil {
		next.Mode = *patch.Mode
	}
	if patch.KillLimit != nil {
		next.KillLimit = *patch.KillLimit
	}
	if patch.WinLimit != nil {
		next.WinLimit = *patch.WinLimit
	}
	if patch.BotsEnabled != nil {
		next.BotsEnabled = *patch.BotsEnabled
	}

	if err := r.catalog.Validate(next); err != nil {
		return err
	}
	r.settings = next
	return nil
}

// SetUserTeam assigns targetID's team. The target must not be ready. When
// the room has bots enabled, only the host may change any team;
// otherwise an occupant may only change their own.
func (r *Room) SetUserTeam(requesterID, targetID int64, team Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.slotIndexLocked(targetID)
	if !ok {
		return ErrNotOccupant
	}
	if r.slots[idx].Ready != NotReady {
		return ErrInvariant
	}
	if r.settings.BotsEnabled {
		if requesterID != r.hostID {
			return ErrNotHost
		}
	} else if requesterID != targetID && requesterID != r.hostID {
		return ErrNotHost
	}

	r.slots[idx].Team = team
	return nil
}

// CanStartGame reports whether the room satisfies GameStartCountdown's
// precondition: both teams non-empty, or bots enabled.
func (r *Room) CanStartGame() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.canStartGameLocked()
}

func (r *Room) canStartGameLocked() bool {
	if r.settings.BotsEnabled {
		return true
	}
	var terror, counter int
	for _, s := range r.slots {
		if !s.Occupied {
			continue
		}
		switch s.Team {
		case Terror:
			terror++
		case Counter:
			counter++
		}
	}
	return terror > 0 && counter > 0
}

// GameStartCountdown drives the countdown sequence. shouldCount=true with
// status Waiting begins the countdown (requires CanStartGame); called
// again with status already Countdown it just records a progressive tick
// value. shouldCount=false aborts an in-progress countdown back to
// Waiting. Host-only.
func (r *Room) GameStartCountdown(requesterID int64, shouldCount bool, count int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.hostID {
		return ErrNotHost
	}

	if !shouldCount {
		if r.status != Countdown {
			return ErrWrongState
		}
		r.status = Waiting
		r.countdownValue = 0
		return nil
	}

	switch r.status {
	case Waiting:
		if !r.canStartGameLocked() {
			return ErrCannotStart
		}
		r.status = Countdown
	case Countdown:
		// progressive tick, no transition
	default:
		return ErrWrongState
	}
	r.countdownValue = count
	return nil
}

// GameStart transitions Countdown to Ingame for the host, or acknowledges
// a non-host occupant joining a match already Ingame (a no-op state
// transition representing a late join in progress).
func (r *Room) GameStart(requesterID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.slotIndexLocked(requesterID); !ok {
		return ErrNotOccupant
	}

	if requesterID == r.hostID {
		if r.status != Countdown {
			return ErrWrongState
		}
		r.status = Ingame
		return nil
	}

	if r.status != Ingame {
		return ErrWrongState
	}
	return nil
}

// EndGame transitions Ingame to Result. Host-only.
func (r *Room) EndGame(requesterID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.hostID {
		return ErrNotHost
	}
	if r.status != Ingame {
		return ErrWrongState
	}
	r.status = Result
	return nil
}

// CloseResultWindow acknowledges the requester dismissing their own result
// dialog. Purely local bookkeeping — no broadcast and no state transition
// follows from it.
func (r *Room) CloseResultWindow(requesterID int64) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.slotIndexLocked(requesterID); !ok {
		return ErrNotOccupant
	}
	return nil
}

// ForceClose closes the room unconditionally (admin action).
func (r *Room) ForceClose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = Closed
}
