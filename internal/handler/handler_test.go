package handler

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/masterserver/internal/protocol"
	"github.com/udisondev/masterserver/internal/room"
	"github.com/udisondev/masterserver/internal/session"
	"github.com/udisondev/masterserver/internal/userservice"
)

// testConn pairs a session.Conn with a background reader that drains
// every frame it sends into a buffered channel, so handler code can
// write to it (over a synchronous net.Pipe) without the test having to
// read in lockstep.
type testConn struct {
	conn   *session.Conn
	peer   net.Conn
	frames chan protocol.Frame
}

func (tc *testConn) recv(t *testing.T) protocol.Frame {
	t.Helper()
	select {
	case f := <-tc.frames:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return protocol.Frame{}
	}
}

// recvPacket drains frames until one with the wanted packet id appears,
// up to a small bound, mirroring how a real client would ignore
// notifications it does not currently care about.
func (tc *testConn) recvPacket(t *testing.T, want byte) protocol.Frame {
	t.Helper()
	for i := 0; i < 10; i++ {
		f := tc.recv(t)
		if f.PacketID == want {
			return f
		}
	}
	t.Fatalf("packet 0x%02X never arrived", want)
	return protocol.Frame{}
}

// testHarness wires a Context against an in-memory upstream and a tiny
// one-server, one-channel directory, exercising the handler layer
// through realistic end-to-end scenarios: login, channel entry, room
// create/join/leave, countdown, chat.
type testHarness struct {
	t      *testing.T
	ctx    *Context
	dir    *room.Directory
	byName map[string]*testConn
}

func newTestHarness(t *testing.T, users map[int64]userservice.User) *testHarness {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/ping":
			json.NewEncoder(w).Encode(map[string]int{"sessions": len(users)})
		case r.URL.Path == "/users/auth/validate":
			var body struct{ Username, Password string }
			json.NewDecoder(r.Body).Decode(&body)
			for id, u := range users {
				if u.Username == body.Username {
					json.NewEncoder(w).Encode(map[string]int64{"userId": id})
					return
				}
			}
			json.NewEncoder(w).Encode(map[string]int64{"userId": 0})
		default:
			if id, ok := trailingID(r.URL.Path); ok {
				if u, ok := users[id]; ok {
					json.NewEncoder(w).Encode(u)
					return
				}
			}
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	port, _ := strconv.Atoi(u.Port())
	client := userservice.NewClient(u.Hostname(), port, time.Second)

	dir := room.NewDirectory([]room.ChannelServerConfig{{Name: "Server1", ChannelCount: 1}}, room.DefaultCatalog)

	return &testHarness{
		t:      t,
		dir:    dir,
		byName: map[string]*testConn{},
		ctx: &Context{
			Registry:  session.NewRegistry(),
			Directory: dir,
			Upstream:  client,
			Probe:     userservice.NewProbe(client),
		},
	}
}

func trailingID(path string) (int64, bool) {
	parts := strings.Split(path, "/")
	last := parts[len(parts)-1]
	n, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (h *testHarness) newConn(name string) *testConn {
	server, client := net.Pipe()
	c := session.New(server, nil)
	h.ctx.Registry.AddConn(c)

	tc := &testConn{conn: c, peer: client, frames: make(chan protocol.Frame, 64)}
	go func() {
		for {
			f, err := protocol.ReadFrame(client)
			if err != nil {
				close(tc.frames)
				return
			}
			tc.frames <- f
		}
	}()

	h.byName[name] = tc
	h.t.Cleanup(func() { client.Close() })
	return tc
}

func loginBody(username, password string) []byte {
	w := protocol.Get()
	defer w.Put()
	w.WriteString(username)
	w.WriteString(password)
	return append([]byte(nil), w.Bytes()...)
}

func enterChannelBody(serverIdx, channelIdx int32) []byte {
	w := protocol.Get()
	defer w.Put()
	w.WriteInt32LE(serverIdx)
	w.WriteInt32LE(channelIdx)
	return append([]byte(nil), w.Bytes()...)
}

func newRoomBody(mode, mapID int32, name string, kill, win int32, password string, bots bool) []byte {
	w := protocol.Get()
	defer w.Put()
	w.WriteInt32LE(mode)
	w.WriteInt32LE(mapID)
	w.WriteString(name)
	w.WriteInt32LE(kill)
	w.WriteInt32LE(win)
	w.WriteString(password)
	if bots {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
	return append([]byte(nil), w.Bytes()...)
}

func joinRoomBody(roomID int32, password string) []byte {
	w := protocol.Get()
	defer w.Put()
	w.WriteInt32LE(roomID)
	w.WriteString(password)
	return append([]byte(nil), w.Bytes()...)
}

func countdownBody(should bool, count int32) []byte {
	w := protocol.Get()
	defer w.Put()
	if should {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
	w.WriteInt32LE(count)
	return append([]byte(nil), w.Bytes()...)
}

// dispatch runs ctx.Dispatch directly. Handler sends travel over a
// synchronous net.Pipe, so callers must invoke this from a goroutine
// whenever the handler may write a reply — every testConn already runs
// a background reader that drains such writes into tc.frames.
func (h *testHarness) dispatch(tc *testConn, packetID byte, body []byte) {
	h.ctx.Dispatch(tc.conn, protocol.Frame{PacketID: packetID, Body: body})
}

// loginUser drives a full login for a user and returns its connection
// once the session is attached, having drained the five expected reply
// packets in order.
func (h *testHarness) loginUser(name, username string, id int64) *testConn {
	tc := h.newConn(name)
	done := make(chan struct{})
	go func() {
		h.dispatch(tc, PacketLogin, loginBody(username, "x"))
		close(done)
	}()

	wantOrder := []byte{PacketUserStart, PacketAchievementsBlob, PacketFullUserUpdate, PacketInventoryBundle, PacketChannelList}
	for i, want := range wantOrder {
		f := tc.recv(h.t)
		require.Equalf(h.t, want, f.PacketID, "login packet %d", i)
		require.Equalf(h.t, byte(i), f.Sequence, "login packet %d sequence", i)
	}
	<-done
	return tc
}

func TestLoginSendsExpectedSequenceOfPackets(t *testing.T) {
	h := newTestHarness(t, map[int64]userservice.User{
		42: {ID: 42, Username: "alice", PlayerName: "Alice"},
	})
	tc := h.loginUser("alice", "alice", 42)

	require.NotNil(t, tc.conn.Session(), "login should attach a session")
	_, ok := h.ctx.Registry.FindByUserID(42)
	require.True(t, ok, "login should register the connection by user id")
}

func TestLoginBadUsernameDialog(t *testing.T) {
	h := newTestHarness(t, map[int64]userservice.User{})
	tc := h.newConn("ghost")

	go h.dispatch(tc, PacketLogin, loginBody("ghost", "x"))

	f := tc.recv(t)
	require.Equal(t, PacketSystemDialog, f.PacketID)
}

func TestCreateRoomThenJoinWrongPassword(t *testing.T) {
	h := newTestHarness(t, map[int64]userservice.User{
		1: {ID: 1, Username: "alice", PlayerName: "Alice"},
		2: {ID: 2, Username: "bob", PlayerName: "Bob"},
	})

	alice := h.loginUser("alice", "alice", 1)
	bob := h.loginUser("bob", "bob", 2)

	go h.dispatch(alice, PacketEnterChannelRequest, enterChannelBody(0, 0))
	alice.recvPacket(t, PacketRoomList)

	go h.dispatch(alice, PacketNewRoomRequest, newRoomBody(1, 5, "r1", 30, 3, "secret", false))
	alice.recvPacket(t, PacketJoinNewRoom)
	alice.recvPacket(t, PacketRoomSettings)

	aliceSess := alice.conn.Session()
	rm := aliceSess.Room()
	require.NotNil(t, rm, "room after NewRoomRequest")
	require.EqualValues(t, 1, rm.ID())
	require.EqualValues(t, 1, rm.HostID())

	go h.dispatch(bob, PacketEnterChannelRequest, enterChannelBody(0, 0))
	bob.recvPacket(t, PacketRoomList)

	go h.dispatch(bob, PacketJoinRoomRequest, joinRoomBody(1, "x"))
	f := bob.recvPacket(t, PacketSystemDialog)
	require.Equal(t, PacketSystemDialog, f.PacketID, "wrong-password join")
	require.Nil(t, bob.conn.Session().Room(), "bob should not have joined the room with a wrong password")
}

func TestCountdownThenGameStart(t *testing.T) {
	h := newTestHarness(t, map[int64]userservice.User{
		1: {ID: 1, Username: "alice", PlayerName: "Alice"},
	})
	alice := h.loginUser("alice", "alice", 1)

	go h.dispatch(alice, PacketEnterChannelRequest, enterChannelBody(0, 0))
	alice.recvPacket(t, PacketRoomList)

	go h.dispatch(alice, PacketNewRoomRequest, newRoomBody(1, 0, "bots room", 30, 3, "", true))
	alice.recvPacket(t, PacketJoinNewRoom)
	alice.recvPacket(t, PacketRoomSettings)

	go h.dispatch(alice, PacketGameStartCountdownRequest, countdownBody(true, 5))
	f := alice.recvPacket(t, PacketCountdownTick)
	require.Equal(t, PacketCountdownTick, f.PacketID)

	rm := alice.conn.Session().Room()
	require.Equal(t, room.Countdown, rm.Status())

	go h.dispatch(alice, PacketGameStartRequest, nil)
	alice.recvPacket(t, PacketGameStarted)
	require.Equal(t, room.Ingame, rm.Status())
}

func TestHostLeaveMigratesHost(t *testing.T) {
	h := newTestHarness(t, map[int64]userservice.User{
		1: {ID: 1, Username: "alice", PlayerName: "Alice"},
		2: {ID: 2, Username: "bob", PlayerName: "Bob"},
	})
	alice := h.loginUser("alice", "alice", 1)
	bob := h.loginUser("bob", "bob", 2)

	go h.dispatch(alice, PacketEnterChannelRequest, enterChannelBody(0, 0))
	alice.recvPacket(t, PacketRoomList)
	go h.dispatch(alice, PacketNewRoomRequest, newRoomBody(1, 0, "room", 30, 3, "", true))
	alice.recvPacket(t, PacketJoinNewRoom)
	alice.recvPacket(t, PacketRoomSettings)

	go h.dispatch(bob, PacketEnterChannelRequest, enterChannelBody(0, 0))
	bob.recvPacket(t, PacketRoomList)
	go h.dispatch(bob, PacketJoinRoomRequest, joinRoomBody(1, ""))
	bob.recvPacket(t, PacketRoomSettings)
	bob.recvPacket(t, PacketRoomRoster)

	rm := alice.conn.Session().Room()

	go h.dispatch(alice, PacketLeaveRoomRequest, nil)
	f := bob.recvPacket(t, PacketPlayerLeft)
	require.Equal(t, PacketPlayerLeft, f.PacketID)
	f = bob.recvPacket(t, PacketHostChanged)
	require.Equal(t, PacketHostChanged, f.PacketID)

	require.EqualValues(t, 2, rm.HostID())
}

func TestKickRequiresHost(t *testing.T) {
	h := newTestHarness(t, map[int64]userservice.User{
		1: {ID: 1, Username: "alice", PlayerName: "Alice"},
		2: {ID: 2, Username: "bob", PlayerName: "Bob"},
	})
	alice := h.loginUser("alice", "alice", 1)
	bob := h.loginUser("bob", "bob", 2)

	go h.dispatch(alice, PacketEnterChannelRequest, enterChannelBody(0, 0))
	alice.recvPacket(t, PacketRoomList)
	go h.dispatch(alice, PacketNewRoomRequest, newRoomBody(1, 0, "room", 30, 3, "", true))
	alice.recvPacket(t, PacketJoinNewRoom)
	alice.recvPacket(t, PacketRoomSettings)

	go h.dispatch(bob, PacketEnterChannelRequest, enterChannelBody(0, 0))
	bob.recvPacket(t, PacketRoomList)
	go h.dispatch(bob, PacketJoinRoomRequest, joinRoomBody(1, ""))
	bob.recvPacket(t, PacketRoomSettings)
	bob.recvPacket(t, PacketRoomRoster)

	kickBody := func(targetID int64) []byte {
		w := protocol.Get()
		defer w.Put()
		w.WriteInt64LE(targetID)
		return append([]byte(nil), w.Bytes()...)
	}

	// Bob (not host) tries to kick Alice: denied, nothing broadcast.
	done := make(chan struct{})
	go func() {
		h.dispatch(bob, PacketKickUserRequest, kickBody(1))
		close(done)
	}()
	<-done

	rm := alice.conn.Session().Room()
	require.EqualValues(t, 1, rm.HostID(), "non-host kick must not succeed")

	// Alice (host) kicks Bob: Bob's room membership clears, both
	// connections observe PlayerLeft.
	go h.dispatch(alice, PacketKickUserRequest, kickBody(2))
	alice.recvPacket(t, PacketPlayerLeft)
	bob.recvPacket(t, PacketPlayerLeft)

	require.Nil(t, bob.conn.Session().Room(), "kicked user should have its room cleared")
}

func TestChatRelayToRoom(t *testing.T) {
	h := newTestHarness(t, map[int64]userservice.User{
		1: {ID: 1, Username: "alice", PlayerName: "Alice"},
		2: {ID: 2, Username: "bob", PlayerName: "Bob"},
	})
	alice := h.loginUser("alice", "alice", 1)
	bob := h.loginUser("bob", "bob", 2)

	go h.dispatch(alice, PacketEnterChannelRequest, enterChannelBody(0, 0))
	alice.recvPacket(t, PacketRoomList)
	go h.dispatch(alice, PacketNewRoomRequest, newRoomBody(1, 0, "room", 30, 3, "", true))
	alice.recvPacket(t, PacketJoinNewRoom)
	alice.recvPacket(t, PacketRoomSettings)

	go h.dispatch(bob, PacketEnterChannelRequest, enterChannelBody(0, 0))
	bob.recvPacket(t, PacketRoomList)
	go h.dispatch(bob, PacketJoinRoomRequest, joinRoomBody(1, ""))
	bob.recvPacket(t, PacketRoomSettings)
	bob.recvPacket(t, PacketRoomRoster)
	alice.recvPacket(t, PacketPlayerJoined)

	chatBody := func(scope uint8, text string) []byte {
		w := protocol.Get()
		defer w.Put()
		w.WriteUint8(scope)
		w.WriteLongString(text)
		return append([]byte(nil), w.Bytes()...)
	}

	go h.dispatch(alice, PacketChatRequest, chatBody(ChatScopeRoom, "gg"))
	f := bob.recvPacket(t, PacketChatMessage)
	r := protocol.NewReader(f.Body)
	senderID, err := r.ReadInt64LE()
	require.NoError(t, err)
	require.EqualValues(t, 1, senderID)
	text, err := r.ReadLongString()
	require.NoError(t, err)
	require.Equal(t, "gg", text)
}

func TestUnauthenticatedPacketDropped(t *testing.T) {
	h := newTestHarness(t, map[int64]userservice.User{})
	tc := h.newConn("nobody")

	done := make(chan struct{})
	go func() {
		h.dispatch(tc, PacketRoomListRequest, nil)
		close(done)
	}()
	<-done

	select {
	case f, ok := <-tc.frames:
		require.False(t, ok, "unauthenticated dispatch produced a reply: 0x%02X", f.PacketID)
	case <-time.After(100 * time.Millisecond):
		// expected: nothing sent
	}
}

func TestUpstreamDownMarksProbeNotAlive(t *testing.T) {
	h := newTestHarness(t, map[int64]userservice.User{
		1: {ID: 1, Username: "alice", PlayerName: "Alice"},
	})
	// Point the client at a closed port so every call fails with a
	// connection error.
	deadClient := userservice.NewClient("127.0.0.1", 1, 200*time.Millisecond)
	h.ctx.Upstream = deadClient
	h.ctx.Probe = userservice.NewProbe(deadClient)

	tc := h.newConn("alice")
	go h.dispatch(tc, PacketLogin, loginBody("alice", "x"))

	f := tc.recv(t)
	require.Equal(t, PacketSystemDialog, f.PacketID)
	require.False(t, h.ctx.Probe.IsAlive(), "probe should observe the upstream as down after a failed call")
}
