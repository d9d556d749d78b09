package room

import "testing"

func newTestRoom(host int64) *Room {
	return NewRoom(1, host, Settings{Name: "test room", Map: 0, Mode: ModeDeathmatch, KillLimit: 20, WinLimit: 10}, DefaultCatalog)
}

func TestNewRoomSeatsHost(t *testing.T) {
	r := newTestRoom(100)
	if !r.IsOccupant(100) {
		t.Fatal("host must be an occupant of a freshly created room")
	}
	if r.HostID() != 100 {
		t.Fatalf("HostID() = %d, want 100", r.HostID())
	}
	if r.Status() != Waiting {
		t.Fatalf("Status() = %v, want Waiting", r.Status())
	}
}

func TestJoinFillsToCapacityThenFull(t *testing.T) {
	r := newTestRoom(1)
	for i := int64(2); i < int64(Capacity)+1; i++ {
		if _, err := r.Join(i, ""); err != nil {
			t.Fatalf("Join(%d) unexpected error: %v", i, err)
		}
	}
	if _, err := r.Join(999, ""); err != ErrRoomFull {
		t.Fatalf("Join on full room = %v, want ErrRoomFull", err)
	}
}

func TestJoinBadPasswordByteExact(t *testing.T) {
	r := NewRoom(1, 1, Settings{Name: "n", Password: "s3cr3t", Map: 0, Mode: ModeDeathmatch, KillLimit: 20, WinLimit: 10}, DefaultCatalog)
	if _, err := r.Join(2, "S3cr3t"); err != ErrBadPassword {
		t.Fatalf("Join with wrong-case password = %v, want ErrBadPassword", err)
	}
	if _, err := r.Join(2, "s3cr3t"); err != nil {
		t.Fatalf("Join with correct password: %v", err)
	}
}

func TestJoinThenLeaveRestoresFreeSlot(t *testing.T) {
	r := newTestRoom(1)
	if _, err := r.Join(2, ""); err != nil {
		t.Fatal(err)
	}
	before := r.OccupantCount()
	if _, err := r.Leave(2); err != nil {
		t.Fatal(err)
	}
	if r.OccupantCount() != before-1 {
		t.Fatalf("OccupantCount after leave = %d, want %d", r.OccupantCount(), before-1)
	}
	if _, err := r.Join(2, ""); err != nil {
		t.Fatalf("re-Join after Leave: %v", err)
	}
}

func TestAlreadyOccupantRejected(t *testing.T) {
	r := newTestRoom(1)
	if _, err := r.Join(1, ""); err != ErrAlreadyOccupant {
		t.Fatalf("Join by existing occupant = %v, want ErrAlreadyOccupant", err)
	}
}

func TestHostLeaveMigratesToEarliestJoiner(t *testing.T) {
	r := newTestRoom(1)
	if _, err := r.Join(2, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Join(3, ""); err != nil {
		t.Fatal(err)
	}
	res, err := r.Leave(1)
	if err != nil {
		t.Fatal(err)
	}
	if !res.HostMigrated || res.NewHostID != 2 {
		t.Fatalf("LeaveResult = %+v, want migration to 2", res)
	}
	if r.HostID() != 2 {
		t.Fatalf("HostID() = %d, want 2", r.HostID())
	}
}

func TestLastOccupantLeavingClosesRoom(t *testing.T) {
	r := newTestRoom(1)
	res, err := r.Leave(1)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Closed {
		t.Fatalf("LeaveResult = %+v, want Closed", res)
	}
	if r.Status() != Closed {
		t.Fatalf("Status() = %v, want Closed", r.Status())
	}
}

func TestKickRequiresHost(t *testing.T) {
	r := newTestRoom(1)
	if _, err := r.Join(2, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Join(3, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Kick(2, 3); err != ErrNotHost {
		t.Fatalf("Kick by non-host = %v, want ErrNotHost", err)
	}
	if _, err := r.Kick(1, 3); err != nil {
		t.Fatalf("Kick by host: %v", err)
	}
	if r.IsOccupant(3) {
		t.Fatal("kicked user still an occupant")
	}
}

func TestUpdateSettingsRejectedDuringCountdownAndIngame(t *testing.T) {
	r := newTestRoom(1)
	if _, err := r.Join(2, ""); err != nil {
		t.Fatal(err)
	}
	if err := r.SetUserTeam(1, 1, Terror); err != nil {
		t.Fatal(err)
	}
	if err := r.SetUserTeam(1, 2, Counter); err != nil {
		t.Fatal(err)
	}
	if err := r.GameStartCountdown(1, true, 3); err != nil {
		t.Fatal(err)
	}

	name := "renamed"
	if err := r.UpdateSettings(1, SettingsPatch{Name: &name}); err != ErrInvariant {
		t.Fatalf("UpdateSettings during Countdown = %v, want ErrInvariant", err)
	}

	if err := r.GameStart(1); err != nil {
		t.Fatal(err)
	}
	if err := r.UpdateSettings(1, SettingsPatch{Name: &name}); err != ErrInvariant {
		t.Fatalf("UpdateSettings during Ingame = %v, want ErrInvariant", err)
	}
}

func TestCannotStartWithoutBothTeamsUnlessBots(t *testing.T) {
	r := newTestRoom(1)
	if _, err := r.Join(2, ""); err != nil {
		t.Fatal(err)
	}
	if err := r.SetUserTeam(1, 1, Terror); err != nil {
		t.Fatal(err)
	}
	if r.CanStartGame() {
		t.Fatal("CanStartGame true with one empty team and bots disabled")
	}
	if err := r.GameStartCountdown(1, true, 3); err != ErrCannotStart {
		t.Fatalf("GameStartCountdown = %v, want ErrCannotStart", err)
	}

	if err := r.SetUserTeam(1, 2, Counter); err != nil {
		t.Fatal(err)
	}
	if !r.CanStartGame() {
		t.Fatal("CanStartGame false with both teams populated")
	}
}

func TestCountdownAbortReturnsToWaiting(t *testing.T) {
	r := newTestRoom(1)
	settings := Settings{Name: "bots", Map: 0, Mode: ModeDeathmatch, KillLimit: 20, WinLimit: 10, BotsEnabled: true}
	r.settings = settings

	if err := r.GameStartCountdown(1, true, 5); err != nil {
		t.Fatal(err)
	}
	if r.Status() != Countdown {
		t.Fatalf("Status() = %v, want Countdown", r.Status())
	}
	if err := r.GameStartCountdown(1, false, 0); err != nil {
		t.Fatal(err)
	}
	if r.Status() != Waiting {
		t.Fatalf("Status() after abort = %v, want Waiting", r.Status())
	}
}

func TestFullLifecycleToResult(t *testing.T) {
	r := newTestRoom(1)
	r.settings.BotsEnabled = true

	if err := r.GameStartCountdown(1, true, 3); err != nil {
		t.Fatal(err)
	}
	if err := r.GameStart(1); err != nil {
		t.Fatal(err)
	}
	if r.Status() != Ingame {
		t.Fatalf("Status() = %v, want Ingame", r.Status())
	}
	if err := r.EndGame(1); err != nil {
		t.Fatal(err)
	}
	if r.Status() != Result {
		t.Fatalf("Status() = %v, want Result", r.Status())
	}
	if err := r.CloseResultWindow(1); err != nil {
		t.Fatal(err)
	}
}

func TestLeaveDeniedWhileReadyDuringCountdown(t *testing.T) {
	r := newTestRoom(1)
	r.settings.BotsEnabled = true
	if _, err := r.ToggleReady(1); err != nil {
		t.Fatal(err)
	}
	if err := r.GameStartCountdown(1, true, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Leave(1); err != ErrInvariant {
		t.Fatalf("Leave while ready during Countdown = %v, want ErrInvariant", err)
	}
}
