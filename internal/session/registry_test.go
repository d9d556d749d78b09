package session

import (
	"net"
	"testing"

	"github.com/udisondev/masterserver/internal/userservice"
)

func TestRegistryFindByUserIDAndName(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	defer server.Close()

	r := NewRegistry()
	c := New(server, nil)
	r.AddConn(c)

	if _, ok := r.FindByUserID(7); ok {
		t.Fatal("unauthenticated connection should not resolve by user id")
	}

	sess := NewUserSession(userservice.User{ID: 7, PlayerName: "Alice"})
	c.SetSession(sess)
	r.Authenticate(c)

	got, ok := r.FindByUserID(7)
	if !ok || got != c {
		t.Fatalf("FindByUserID(7) = (%v, %v), want (c, true)", got, ok)
	}
	got, ok = r.FindByPlayerName("Alice")
	if !ok || got != c {
		t.Fatalf("FindByPlayerName(Alice) = (%v, %v), want (c, true)", got, ok)
	}
	if r.SessionCount() != 1 {
		t.Fatalf("SessionCount() = %d, want 1", r.SessionCount())
	}
}

func TestRegistryRemoveClearsAllIndexes(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	defer server.Close()

	r := NewRegistry()
	c := New(server, nil)
	r.AddConn(c)
	c.SetSession(NewUserSession(userservice.User{ID: 1, PlayerName: "Bob"}))
	r.Authenticate(c)

	r.Remove(c)

	if _, ok := r.FindByUserID(1); ok {
		t.Fatal("FindByUserID should miss after Remove")
	}
	if _, ok := r.FindByPlayerName("Bob"); ok {
		t.Fatal("FindByPlayerName should miss after Remove")
	}
	if len(r.Connections()) != 0 {
		t.Fatal("Connections() should be empty after Remove")
	}
}

func TestRegistryConnectionsSnapshot(t *testing.T) {
	r := NewRegistry()

	s1, c1 := net.Pipe()
	defer c1.Close()
	defer s1.Close()
	s2, c2 := net.Pipe()
	defer c2.Close()
	defer s2.Close()

	r.AddConn(New(s1, nil))
	r.AddConn(New(s2, nil))

	if len(r.Connections()) != 2 {
		t.Fatalf("Connections() = %d entries, want 2", len(r.Connections()))
	}
}
