// Package memory provides an in-memory AccountStore for tests and for
// running without durable credential storage.
package memory

import (
	"context"
	"sync"

	"github.com/anti-api/gateway/internal/domain"
	"github.com/anti-api/gateway/internal/storage"
)

// Store is an in-memory implementation of storage.AccountStore.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]domain.Credential
}

var _ storage.AccountStore = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{accounts: make(map[string]domain.Credential)}
}

func (s *Store) Get(ctx context.Context, provider string) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.accounts[provider]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := cred
	return &out, nil
}

func (s *Store) Put(ctx context.Context, provider string, cred *domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[provider] = *cred
	return nil
}

func (s *Store) Delete(ctx context.Context, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.accounts, provider)
	return nil
}

func (s *Store) Close() error { return nil }
