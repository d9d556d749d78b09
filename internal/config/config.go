// Package config loads the master server's YAML configuration, mirroring
// how the login and game servers load theirs: sensible defaults, overlaid
// by an optional YAML file, with the two upstream user-service endpoint
// fields also overridable from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// MasterServer holds all configuration for the master server process.
type MasterServer struct {
	// Network
	BindAddress   string `yaml:"bind_address"`
	Port          int    `yaml:"port"`           // TCP master port
	HolepunchPort int    `yaml:"holepunch_port"` // UDP NAT holepunch port

	// Upstream user service
	UserService UserServiceConfig `yaml:"user_service"`

	// Channel/room topology
	Channels []ChannelServerEntry `yaml:"channels"`

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error (default: info)

	// Timeouts
	ReadIdleTimeout time.Duration `yaml:"read_idle_timeout"` // stalled-connection cutoff (default: 120s)

	// Packet logging
	PacketDumpDir string `yaml:"packet_dump_dir"` // empty disables dumping
}

// UserServiceConfig holds the upstream HTTP user service's location and
// client timeout.
type UserServiceConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"` // per-request deadline (default: 5s)
}

// ChannelServerEntry describes one configured channel server's static layout.
type ChannelServerEntry struct {
	Name         string `yaml:"name"`
	ChannelCount int    `yaml:"channel_count"`
}

// DefaultMasterServer returns MasterServer config with sensible defaults.
func DefaultMasterServer() MasterServer {
	return MasterServer{
		BindAddress:   "0.0.0.0",
		Port:          30001,
		HolepunchPort: 30002,
		UserService: UserServiceConfig{
			Host:    "127.0.0.1",
			Port:    8080,
			Timeout: 5 * time.Second,
		},
		Channels: []ChannelServerEntry{
			{Name: "Channel Server 1", ChannelCount: 4},
		},
		LogLevel:        "info",
		ReadIdleTimeout: 120 * time.Second,
	}
}

// LoadMasterServer loads master server config from a YAML file. If the
// file doesn't exist, returns defaults. USERSERVICE_HOST/USERSERVICE_PORT,
// when set, override the corresponding YAML fields.
func LoadMasterServer(path string) (MasterServer, error) {
	cfg := DefaultMasterServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if host := os.Getenv("USERSERVICE_HOST"); host != "" {
		cfg.UserService.Host = host
	}
	if port := os.Getenv("USERSERVICE_PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err != nil {
			return cfg, fmt.Errorf("parsing USERSERVICE_PORT=%q: %w", port, err)
		}
		cfg.UserService.Port = p
	}

	return cfg, nil
}
