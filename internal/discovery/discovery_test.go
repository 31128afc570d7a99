package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestStatic(t *testing.T) {
	info, err := Static{Port: 4100, CSRFToken: "t"}.Info(context.Background())
	if err != nil || info == nil {
		t.Fatalf("Info = %v, %v", info, err)
	}
	if info.Port != 4100 || info.CSRFToken != "t" {
		t.Errorf("info = %+v", info)
	}

	info, err = Static{}.Info(context.Background())
	if err != nil || info != nil {
		t.Errorf("empty static should report not running, got %v, %v", info, err)
	}
}

func TestEnv(t *testing.T) {
	t.Setenv("ANTI_LS_PORT", "42123")
	t.Setenv("ANTI_LS_CSRF_TOKEN", "csrf")

	info, err := Env{}.Info(context.Background())
	if err != nil || info == nil {
		t.Fatalf("Info = %v, %v", info, err)
	}
	if info.Port != 42123 || info.CSRFToken != "csrf" {
		t.Errorf("info = %+v", info)
	}

	t.Setenv("ANTI_LS_PORT", "not-a-port")
	if _, err := (Env{}).Info(context.Background()); err == nil {
		t.Error("invalid port accepted")
	}

	t.Setenv("ANTI_LS_PORT", "")
	info, err = Env{}.Info(context.Background())
	if err != nil || info != nil {
		t.Errorf("unset env should report not running, got %v, %v", info, err)
	}
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "language_server.json")

	info, err := File{Path: path}.Info(context.Background())
	if err != nil || info != nil {
		t.Errorf("missing file should report not running, got %v, %v", info, err)
	}

	if err := os.WriteFile(path, []byte(`{"port":42950,"csrfToken":"abc"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	info, err = File{Path: path}.Info(context.Background())
	if err != nil || info == nil {
		t.Fatalf("Info = %v, %v", info, err)
	}
	if info.Port != 42950 || info.CSRFToken != "abc" {
		t.Errorf("info = %+v", info)
	}

	if err := os.WriteFile(path, []byte(`{broken`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := (File{Path: path}).Info(context.Background()); err == nil {
		t.Error("malformed lock file accepted")
	}
}

func TestChain(t *testing.T) {
	chain := Chain{
		Static{}, // not running
		Static{Port: 1, CSRFToken: "first"},
		Static{Port: 2, CSRFToken: "second"},
	}

	info, err := chain.Info(context.Background())
	if err != nil || info == nil {
		t.Fatalf("Info = %v, %v", info, err)
	}
	if info.CSRFToken != "first" {
		t.Errorf("chain picked %+v, want the first hit", info)
	}

	empty := Chain{Static{}}
	info, err = empty.Info(context.Background())
	if err != nil || info != nil {
		t.Errorf("empty chain = %v, %v", info, err)
	}
}
