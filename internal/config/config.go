// Package config loads peerchat settings from defaults, an optional JSON
// file and the environment, in increasing order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrInvalid is wrapped by every validation and environment parse error.
var ErrInvalid = errors.New("invalid config")

// Config holds the settings shared by the server and client commands. The
// JSON tags are the keys of the config file.
type Config struct {
	Username       string `json:"username"`
	Host           string `json:"host"`
	Port           int    `json:"port"`
	Transport      string `json:"transport"`
	DefaultRoom    string `json:"default_room"`
	LogLevel       string `json:"log_level"`
	PollIntervalMS int    `json:"poll_interval_ms"`
	QueueCapacity  int    `json:"queue_capacity"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:           9000,
		Transport:      "tcp",
		DefaultRoom:    "default",
		LogLevel:       "warn",
		PollIntervalMS: 50,
		QueueCapacity:  256,
	}
}

// Load returns the defaults overlaid with the file at path, when it exists,
// and then with PEERCHAT_* environment variables. An empty path skips the
// file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PEERCHAT_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("PEERCHAT_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("PEERCHAT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PEERCHAT_PORT %q: %v", ErrInvalid, v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("PEERCHAT_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("PEERCHAT_ROOM"); v != "" {
		cfg.DefaultRoom = v
	}
	if v := os.Getenv("PEERCHAT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalid, c.Port)
	case c.Transport != "tcp" && c.Transport != "ws":
		return fmt.Errorf("%w: transport %q (want tcp or ws)", ErrInvalid, c.Transport)
	case strings.TrimSpace(c.DefaultRoom) == "":
		return fmt.Errorf("%w: default room is empty", ErrInvalid)
	case c.PollIntervalMS <= 0:
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalid)
	case c.QueueCapacity <= 0:
		return fmt.Errorf("%w: queue capacity must be positive", ErrInvalid)
	}
	return nil
}

// Addr joins Host and Port; it is the address a client dials.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ListenAddr is the address a server binds: Port on all interfaces.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort("", strconv.Itoa(c.Port))
}

// PollInterval returns PollIntervalMS as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Save writes cfg to path atomically.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
