package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempConfigPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "config.json")
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PEERCHAT_USERNAME", "PEERCHAT_HOST", "PEERCHAT_PORT",
		"PEERCHAT_TRANSPORT", "PEERCHAT_ROOM", "PEERCHAT_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)
	path := tempConfigPath(t)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.Transport != "tcp" {
		t.Errorf("Transport = %q, want tcp", cfg.Transport)
	}
	if cfg.DefaultRoom != "default" {
		t.Errorf("DefaultRoom = %q, want default", cfg.DefaultRoom)
	}
	if cfg.PollInterval() != 50*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 50ms", cfg.PollInterval())
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Load should not create the config file")
	}
}

func TestSave_ReloadRoundTrip(t *testing.T) {
	clearEnv(t)
	path := tempConfigPath(t)

	original := &Config{
		Username:       "alice",
		Host:           "10.0.0.2",
		Port:           9100,
		Transport:      "ws",
		DefaultRoom:    "lobby",
		LogLevel:       "debug",
		PollIntervalMS: 20,
		QueueCapacity:  32,
	}
	if err := Save(path, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *loaded != *original {
		t.Errorf("Load() = %+v, want %+v", loaded, original)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := tempConfigPath(t)
	if err := os.WriteFile(path, []byte(`{"username":"bob"}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Username != "bob" {
		t.Errorf("Username = %q, want bob", cfg.Username)
	}
	if cfg.Port != 9000 || cfg.QueueCapacity != 256 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := tempConfigPath(t)
	if err := os.WriteFile(path, []byte(`{"username":"bob","port":9100,"transport":"tcp"}`), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PEERCHAT_USERNAME", "carol")
	t.Setenv("PEERCHAT_PORT", "9200")
	t.Setenv("PEERCHAT_TRANSPORT", "ws")
	t.Setenv("PEERCHAT_ROOM", "lobby")
	t.Setenv("PEERCHAT_HOST", "example.net")
	t.Setenv("PEERCHAT_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := Config{
		Username:       "carol",
		Host:           "example.net",
		Port:           9200,
		Transport:      "ws",
		DefaultRoom:    "lobby",
		LogLevel:       "debug",
		PollIntervalMS: 50,
		QueueCapacity:  256,
	}
	if *cfg != want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoad_InvalidEnvPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PEERCHAT_PORT", "ninety")

	_, err := Load("")
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("Load() error = %v, want ErrInvalid", err)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	clearEnv(t)
	path := tempConfigPath(t)
	if err := os.WriteFile(path, []byte(`{not json`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid JSON, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"unknown transport", func(c *Config) { c.Transport = "udp" }, true},
		{"blank room", func(c *Config) { c.DefaultRoom = "  " }, true},
		{"zero interval", func(c *Config) { c.PollIntervalMS = 0 }, true},
		{"zero capacity", func(c *Config) { c.QueueCapacity = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestAddr(t *testing.T) {
	cfg := Default()
	if got := cfg.ListenAddr(); got != ":9000" {
		t.Errorf("ListenAddr() = %q, want :9000", got)
	}
	if got := cfg.Addr(); got != ":9000" {
		t.Errorf("Addr() = %q, want :9000", got)
	}
	cfg.Host = "::1"
	if got := cfg.Addr(); got != "[::1]:9000" {
		t.Errorf("Addr() = %q, want [::1]:9000", got)
	}
	if got := cfg.ListenAddr(); got != ":9000" {
		t.Errorf("ListenAddr() = %q, want :9000 regardless of host", got)
	}
}
