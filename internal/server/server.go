// Package server wires the protocol, session, room, and handler layers
// into a running process: a TCP accept loop for the framed game
// protocol, a UDP holepunch responder, and the upstream liveness probe,
// with context-driven shutdown and a wait group over per-connection
// goroutines.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/udisondev/masterserver/internal/config"
	"github.com/udisondev/masterserver/internal/handler"
	"github.com/udisondev/masterserver/internal/protocol"
	"github.com/udisondev/masterserver/internal/room"
	"github.com/udisondev/masterserver/internal/session"
	"github.com/udisondev/masterserver/internal/userservice"
)

// Server is the master server process: one TCP listener for framed game
// connections, one UDP listener for NAT holepunch requests, and the
// shared Context handlers dispatch through.
type Server struct {
	cfg    config.MasterServer
	ctx    *handler.Context
	dumper *session.Dumper
	probe  *userservice.Probe

	mu      sync.Mutex
	tcpLn   net.Listener
	udpConn *net.UDPConn
}

// New builds a Server from cfg, constructing the directory, registry,
// upstream client, and probe it needs. If cfg.PacketDumpDir is set, a
// Dumper is created and attached to every accepted connection.
func New(cfg config.MasterServer) (*Server, error) {
	layout := make([]room.ChannelServerConfig, 0, len(cfg.Channels))
	for _, entry := range cfg.Channels {
		layout = append(layout, room.ChannelServerConfig{Name: entry.Name, ChannelCount: entry.ChannelCount})
	}
	dir := room.NewDirectory(layout, room.DefaultCatalog)

	client := userservice.NewClient(cfg.UserService.Host, cfg.UserService.Port, cfg.UserService.Timeout)
	probe := userservice.NewProbe(client)

	var dumper *session.Dumper
	if cfg.PacketDumpDir != "" {
		d, err := session.NewDumper(cfg.PacketDumpDir)
		if err != nil {
			return nil, fmt.Errorf("initializing packet dumper: %w", err)
		}
		dumper = d
	}

	return &Server{
		cfg:    cfg,
		dumper: dumper,
		probe:  probe,
		ctx: &handler.Context{
			Registry:  session.NewRegistry(),
			Directory: dir,
			Upstream:  client,
			Probe:     probe,
		},
	}, nil
}

// Run starts the TCP accept loop, the UDP holepunch responder, and the
// probe's background ticker, and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.mu.Lock()
	s.tcpLn = ln
	s.mu.Unlock()

	udpAddr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.HolepunchPort)
	uaddr, err := net.ResolveUDPAddr("udp", udpAddr)
	if err != nil {
		ln.Close()
		return fmt.Errorf("resolving holepunch address %s: %w", udpAddr, err)
	}
	uconn, err := net.ListenUDP("udp", uaddr)
	if err != nil {
		ln.Close()
		return fmt.Errorf("listening on %s: %w", udpAddr, err)
	}
	s.mu.Lock()
	s.udpConn = uconn
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close()
		uconn.Close()
		if s.dumper != nil {
			s.dumper.Close()
		}
	}()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.probe.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		serveHolepunch(ctx, uconn)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("master server listening", "address", ln.Addr())
		s.acceptLoop(ctx, &wg, ln)
	}()

	wg.Wait()
	return nil
}

// Close closes the listeners, which stops the accept loop and the UDP
// holepunch responder even if ctx was never cancelled. The probe ticker
// and open connections stop only when ctx is cancelled, so Run does not
// return before that.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tcpLn != nil {
		s.tcpLn.Close()
	}
	if s.udpConn != nil {
		s.udpConn.Close()
	}
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, wg *sync.WaitGroup, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			slog.Error("accept failed", "error", err)
			continue
		}

		if tcpConn, ok := conn.(*net.TCPConn); ok {
			if err := tcpConn.SetKeepAlive(true); err != nil {
				slog.Warn("set keepalive failed", "error", err)
			}
			if err := tcpConn.SetKeepAlivePeriod(30 * time.Second); err != nil {
				slog.Warn("set keepalive period failed", "error", err)
			}
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}
}

func (s *Server) handleConnection(ctx context.Context, raw net.Conn) {
	defer raw.Close()

	conn := session.New(raw, s.dumper)
	s.ctx.Registry.AddConn(conn)
	defer func() {
		conn.Close()
		s.ctx.Registry.Remove(conn)
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	slog.Info("accepted connection", "conn", conn.UUID(), "remote", raw.RemoteAddr())

	idleTimeout := s.cfg.ReadIdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = 120 * time.Second
	}

	for {
		if err := raw.SetReadDeadline(time.Now().Add(idleTimeout)); err != nil {
			slog.Debug("setting read deadline", "conn", conn.UUID(), "error", err)
			return
		}

		frame, err := protocol.ReadFrame(raw)
		if err != nil {
			if errors.Is(err, io.EOF) {
				slog.Debug("connection closed by peer", "conn", conn.UUID())
			} else {
				slog.Debug("frame read failed, closing connection", "conn", conn.UUID(), "error", err)
			}
			return
		}

		conn.MarkInbound(frame.PacketID, frame.Body)
		s.ctx.Dispatch(conn, frame)
	}
}

// serveHolepunch answers every inbound UDP datagram with the sender's
// own IPv4 address (4 bytes) and port (2 bytes, little-endian), letting
// a NATed client discover its own public endpoint for peer-to-peer
// traversal.
func serveHolepunch(ctx context.Context, conn *net.UDPConn) {
	buf := make([]byte, 64)
	for {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Debug("holepunch read failed", "error", err)
			continue
		}

		ip4 := addr.IP.To4()
		if ip4 == nil {
			continue
		}
		reply := make([]byte, 6)
		copy(reply[0:4], ip4)
		reply[4] = byte(addr.Port)
		reply[5] = byte(addr.Port >> 8)

		if _, err := conn.WriteToUDP(reply, addr); err != nil {
			slog.Debug("holepunch reply failed", "error", err)
		}
	}
}
