package server

import (
	"context"
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

	"github.com/udisondev/masterserver/internal/config"
	"github.com/udisondev/masterserver/internal/handler"
	"github.com/udisondev/masterserver/internal/protocol"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func freeUDPPort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).Port
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

// TestServerAcceptsLoginOverTCP is this package's integration test: a
// real listener, a real dial, real frames on the wire — the only layer
// left faked is the upstream user service.
func TestServerAcceptsLoginOverTCP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/ping":
			json.NewEncoder(w).Encode(map[string]int{"sessions": 1})
		case r.URL.Path == "/users/auth/validate":
			json.NewEncoder(w).Encode(map[string]int64{"userId": 7})
		default:
			if id, ok := trailingID(r.URL.Path); ok && id == 7 {
				json.NewEncoder(w).Encode(map[string]any{"id": 7, "username": "alice", "playerName": "Alice"})
				return
			}
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	upstreamPort, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	cfg := config.DefaultMasterServer()
	cfg.BindAddress = "127.0.0.1"
	cfg.Port = freePort(t)
	cfg.HolepunchPort = freeUDPPort(t)
	cfg.UserService.Host = u.Hostname()
	cfg.UserService.Port = upstreamPort
	cfg.UserService.Timeout = time.Second

	s, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	var conn net.Conn
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("tcp", net.JoinHostPort(cfg.BindAddress, strconv.Itoa(cfg.Port)))
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err, "dialing master server")
	defer conn.Close()

	w := protocol.Get()
	w.WriteString("alice")
	w.WriteString("x")
	body := append([]byte(nil), w.Bytes()...)
	w.Put()

	require.NoError(t, protocol.WriteFrame(conn, 0, handler.PacketLogin, body))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	f, err := protocol.ReadFrame(conn)
	require.NoError(t, err, "reading login reply")
	require.Equal(t, handler.PacketUserStart, f.PacketID)

	cancel()
	<-done
}
