package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/masterserver/internal/config"
	"github.com/udisondev/masterserver/internal/server"
)

const ConfigPath = "config/masterserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// cliFlags holds the process's flag surface: bind address or interface
// selection, the TCP and UDP ports, and a packet-dump toggle.
type cliFlags struct {
	ipAddress  string
	iface      string
	portMaster int
	portPunch  int
	logPackets bool
}

func parseFlags(args []string) (cliFlags, error) {
	fs := flag.NewFlagSet("masterserver", flag.ContinueOnError)
	var f cliFlags
	fs.StringVar(&f.ipAddress, "ip-address", "", "bind IP address")
	fs.StringVar(&f.ipAddress, "i", "", "bind IP address (shorthand)")
	fs.StringVar(&f.iface, "interface", "", "bind network interface by name")
	fs.StringVar(&f.iface, "I", "", "bind network interface by name (shorthand)")
	fs.IntVar(&f.portMaster, "port-master", 30001, "TCP master port")
	fs.IntVar(&f.portMaster, "p", 30001, "TCP master port (shorthand)")
	fs.IntVar(&f.portPunch, "port-holepunch", 30002, "UDP holepunch port")
	fs.IntVar(&f.portPunch, "P", 30002, "UDP holepunch port (shorthand)")
	fs.BoolVar(&f.logPackets, "log-packets", false, "enable packet dumping")
	fs.BoolVar(&f.logPackets, "l", false, "enable packet dumping (shorthand)")

	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}
	return f, nil
}

// resolveInterfaceAddr returns the first IPv4 address bound to the named
// interface. Exit code 1 covers both "interface not found" and "no IPv4
// address to select".
func resolveInterfaceAddr(name string) (string, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return "", fmt.Errorf("interface %q not found: %w", name, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return "", fmt.Errorf("reading addresses for interface %q: %w", name, err)
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String(), nil
		}
	}
	return "", fmt.Errorf("interface %q has no usable IPv4 address", name)
}

func run(ctx context.Context) error {
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if flags.ipAddress != "" && flags.iface != "" {
		fmt.Fprintln(os.Stderr, "-i/--ip-address and -I/--interface are mutually exclusive")
		os.Exit(2)
	}

	cfgPath := ConfigPath
	if p := os.Getenv("MASTERSERVER_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadMasterServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if flags.iface != "" {
		addr, err := resolveInterfaceAddr(flags.iface)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg.BindAddress = addr
	} else if flags.ipAddress != "" {
		cfg.BindAddress = flags.ipAddress
	}
	cfg.Port = flags.portMaster
	cfg.HolepunchPort = flags.portPunch
	if flags.logPackets && cfg.PacketDumpDir == "" {
		cfg.PacketDumpDir = "dumps"
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("master server starting",
		"bind", cfg.BindAddress,
		"port", cfg.Port,
		"holepunch_port", cfg.HolepunchPort,
		"upstream", fmt.Sprintf("%s:%d", cfg.UserService.Host, cfg.UserService.Port))

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("constructing server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Run(gctx); err != nil {
			return fmt.Errorf("master server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
