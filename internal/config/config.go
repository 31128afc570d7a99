package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage"`
	Cloud   CloudConfig   `koanf:"cloud"`
	Cascade CascadeConfig `koanf:"cascade"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, memory
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type CloudConfig struct {
	BaseURLs  []string `koanf:"base_urls"`  // optional endpoint override
	UserAgent string   `koanf:"user_agent"` // optional client identity override
}

// CascadeConfig covers the local RPC backend. Port and CSRF token are
// normally discovered from the running editor process; setting them
// here pins the values instead.
type CascadeConfig struct {
	Port         int    `koanf:"port"`
	CSRFToken    string `koanf:"csrf_token"`
	Token        string `koanf:"token"` // bearer token for the local service
	PollInterval string `koanf:"poll_interval"`
	PollTimeout  string `koanf:"poll_timeout"`
}

// PollingDurations parses the poll settings, falling back to def values
// for fields that are empty or unparseable.
func (c CascadeConfig) PollingDurations(defInterval, defTimeout time.Duration) (time.Duration, time.Duration) {
	interval := defInterval
	if d, err := time.ParseDuration(c.PollInterval); err == nil && d > 0 {
		interval = d
	}
	timeout := defTimeout
	if d, err := time.ParseDuration(c.PollTimeout); err == nil && d > 0 {
		timeout = d
	}
	return interval, timeout
}

// Load reads config.yaml (when present) and then ANTI_-prefixed
// environment variables, which override file values. Nested keys use
// double underscores: ANTI_SERVER__PORT, ANTI_CASCADE__CSRF_TOKEN.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = "config.yaml"
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// A missing file is fine, env vars can carry everything.
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("ANTI_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "ANTI_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("storage.type") {
		k.Set("storage.type", "sqlite")
	}
	if !k.Exists("storage.sqlite.path") {
		k.Set("storage.sqlite.path", "./data/gateway.db")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
