// Package storage defines the account/credential store contract. The
// credential manager persists refreshed credentials through it so they
// survive process restart.
package storage

import (
	"context"
	"errors"

	"github.com/anti-api/gateway/internal/domain"
)

// ErrNotFound is returned when no credential is stored for a provider.
var ErrNotFound = errors.New("account not found")

// AccountStore persists backend credentials keyed by provider.
type AccountStore interface {
	// Get returns the stored credential for a provider, or ErrNotFound.
	Get(ctx context.Context, provider string) (*domain.Credential, error)

	// Put durably stores the credential for a provider, replacing any
	// previous value.
	Put(ctx context.Context, provider string, cred *domain.Credential) error

	// Delete removes the stored credential for a provider. Deleting a
	// missing credential is not an error.
	Delete(ctx context.Context, provider string) error

	// Close releases underlying resources.
	Close() error
}
