// Package config loads application configuration from an optional YAML
// file with environment variable overrides. Environment always wins so
// deployments can keep a checked-in file and tweak single values.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server settings for the registry service
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the listen address in host:port form
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	// Type is "memory" or "redis"
	Type     string `yaml:"type"`
	RedisURL string `yaml:"redis_url"`
}

// TransportConfig selects and configures the peer channel
type TransportConfig struct {
	// Type is "inprocess" or "redis"
	Type             string        `yaml:"type"`
	RedisURL         string        `yaml:"redis_url"`
	SubscribeTimeout time.Duration `yaml:"subscribe_timeout"`
}

// PeerConfig holds settings for the peer CLI
type PeerConfig struct {
	DisplayName       string        `yaml:"display_name"`
	RegistryURL       string        `yaml:"registry_url"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// Config is the full application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Transport TransportConfig `yaml:"transport"`
	Peer      PeerConfig      `yaml:"peer"`
}

// Default returns the configuration defaults
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Type: "memory",
		},
		Transport: TransportConfig{
			Type:             "redis",
			SubscribeTimeout: 10 * time.Second,
		},
		Peer: PeerConfig{
			RegistryURL:       "http://localhost:8080",
			HeartbeatInterval: time.Minute,
		},
	}
}

// Load reads configuration from the given YAML file, if any, and applies
// environment variable overrides on top. An empty path skips the file;
// a missing file at an explicit path is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("GAMEROOM_HOST")); v != "" {
		c.Server.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("GAMEROOM_PORT")); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil && port > 0 {
			c.Server.Port = port
		}
	}
	if v := strings.TrimSpace(os.Getenv("GAMEROOM_STORAGE_TYPE")); v != "" {
		c.Storage.Type = v
	}
	if v := strings.TrimSpace(os.Getenv("GAMEROOM_REDIS_URL")); v != "" {
		// One redis serves both concerns unless overridden individually
		c.Storage.RedisURL = v
		c.Transport.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GAMEROOM_STORAGE_REDIS_URL")); v != "" {
		c.Storage.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GAMEROOM_TRANSPORT_TYPE")); v != "" {
		c.Transport.Type = v
	}
	if v := strings.TrimSpace(os.Getenv("GAMEROOM_TRANSPORT_REDIS_URL")); v != "" {
		c.Transport.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GAMEROOM_SUBSCRIBE_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Transport.SubscribeTimeout = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("GAMEROOM_DISPLAY_NAME")); v != "" {
		c.Peer.DisplayName = v
	}
	if v := strings.TrimSpace(os.Getenv("GAMEROOM_REGISTRY_URL")); v != "" {
		c.Peer.RegistryURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GAMEROOM_HEARTBEAT_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Peer.HeartbeatInterval = d
		}
	}
}
