// Package discovery locates the local language server endpoint. The
// server is started by the IDE, not by the gateway, so its absence is
// a normal state rather than a failure.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Info identifies a reachable language server instance.
type Info struct {
	Port      int    `json:"port"`
	CSRFToken string `json:"csrfToken"`
}

// Source supplies the current language server info. A nil Info with a
// nil error means the server is not running.
type Source interface {
	Info(ctx context.Context) (*Info, error)
}

// Static returns a fixed Info, typically from configuration.
type Static struct {
	Port      int
	CSRFToken string
}

func (s Static) Info(ctx context.Context) (*Info, error) {
	if s.Port == 0 || s.CSRFToken == "" {
		return nil, nil
	}
	return &Info{Port: s.Port, CSRFToken: s.CSRFToken}, nil
}

// Env reads the endpoint from ANTI_LS_PORT and ANTI_LS_CSRF_TOKEN.
type Env struct{}

func (Env) Info(ctx context.Context) (*Info, error) {
	portStr := os.Getenv("ANTI_LS_PORT")
	token := os.Getenv("ANTI_LS_CSRF_TOKEN")
	if portStr == "" || token == "" {
		return nil, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid ANTI_LS_PORT %q: %w", portStr, err)
	}
	return &Info{Port: port, CSRFToken: token}, nil
}

// File reads the lock file the language server writes on startup. The
// default location is ~/.antigravity/language_server.json.
type File struct {
	Path string
}

func (f File) Info(ctx context.Context) (*Info, error) {
	path := f.Path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil
		}
		path = filepath.Join(home, ".antigravity", "language_server.json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read language server lock file: %w", err)
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse language server lock file: %w", err)
	}
	if info.Port == 0 || info.CSRFToken == "" {
		return nil, nil
	}
	return &info, nil
}

// Chain tries each source in order and returns the first hit.
type Chain []Source

func (c Chain) Info(ctx context.Context) (*Info, error) {
	for _, src := range c {
		info, err := src.Info(ctx)
		if err != nil {
			return nil, err
		}
		if info != nil {
			return info, nil
		}
	}
	return nil, nil
}
