package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/anti-api/gateway/internal/domain"
	"github.com/anti-api/gateway/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "accounts.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Get(ctx, "antigravity"); err != storage.ErrNotFound {
		t.Errorf("Get on empty db = %v", err)
	}

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	cred := &domain.Credential{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresAt:    expires,
		Email:        "dev@example.com",
		ProjectID:    "proj-1",
	}
	if err := s.Put(ctx, "antigravity", cred); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "antigravity")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AccessToken != "at-1" || got.RefreshToken != "rt-1" ||
		got.Email != "dev@example.com" || got.ProjectID != "proj-1" {
		t.Errorf("got = %+v", got)
	}
	if !got.ExpiresAt.Equal(expires) {
		t.Errorf("expires = %v, want %v", got.ExpiresAt, expires)
	}
}

func TestUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := &domain.Credential{AccessToken: "old", ExpiresAt: time.Now().UTC()}
	if err := s.Put(ctx, "antigravity", first); err != nil {
		t.Fatalf("Put: %v", err)
	}

	second := &domain.Credential{AccessToken: "new", RefreshToken: "rt", ExpiresAt: time.Now().UTC()}
	if err := s.Put(ctx, "antigravity", second); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, err := s.Get(ctx, "antigravity")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AccessToken != "new" || got.RefreshToken != "rt" {
		t.Errorf("got = %+v", got)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Delete(ctx, "antigravity"); err != nil {
		t.Errorf("Delete on empty db = %v", err)
	}

	if err := s.Put(ctx, "antigravity", &domain.Credential{AccessToken: "a", ExpiresAt: time.Now().UTC()}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete(ctx, "antigravity"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "antigravity"); err != storage.ErrNotFound {
		t.Errorf("Get after Delete = %v", err)
	}
}
