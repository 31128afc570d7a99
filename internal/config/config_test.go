package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.SQLite.Path != "./data/gateway.db" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9090
storage:
  type: memory
cloud:
  base_urls:
    - https://example.com
cascade:
  port: 42100
  csrf_token: abc
  poll_interval: 250ms
  poll_timeout: 30s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("storage type = %s", cfg.Storage.Type)
	}
	if len(cfg.Cloud.BaseURLs) != 1 || cfg.Cloud.BaseURLs[0] != "https://example.com" {
		t.Errorf("base urls = %v", cfg.Cloud.BaseURLs)
	}
	if cfg.Cascade.Port != 42100 || cfg.Cascade.CSRFToken != "abc" {
		t.Errorf("cascade = %+v", cfg.Cascade)
	}

	interval, timeout := cfg.Cascade.PollingDurations(time.Second, 2*time.Minute)
	if interval != 250*time.Millisecond || timeout != 30*time.Second {
		t.Errorf("polling = %v, %v", interval, timeout)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ANTI_SERVER__PORT", "7070")
	t.Setenv("ANTI_CASCADE__CSRF_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, env should win", cfg.Server.Port)
	}
	if cfg.Cascade.CSRFToken != "from-env" {
		t.Errorf("csrf token = %s", cfg.Cascade.CSRFToken)
	}
}

func TestPollingDurations_Fallback(t *testing.T) {
	c := CascadeConfig{PollInterval: "garbage"}
	interval, timeout := c.PollingDurations(time.Second, 2*time.Minute)
	if interval != time.Second || timeout != 2*time.Minute {
		t.Errorf("polling = %v, %v, want defaults", interval, timeout)
	}
}
