// Package credential owns the backend access credential: loading it
// from the account store, serving the current access token, and
// refreshing it transparently before expiry.
package credential

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/anti-api/gateway/internal/domain"
	"github.com/anti-api/gateway/internal/storage"
)

// Provider is the account-store key for the cloud backend credential.
const Provider = "antigravity"

// refreshMargin is the safety window before expiry inside which the
// token is refreshed.
const refreshMargin = 5 * time.Minute

// ManagerOption configures the manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager is the credential lifecycle manager. Exactly one instance
// exists per process; concurrent callers share a single in-flight
// refresh instead of triggering duplicates.
type Manager struct {
	store  storage.AccountStore
	oauth  *OAuthClient
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	cred    *domain.Credential
	pending chan struct{} // non-nil while a refresh is in flight
	lastErr error         // outcome of the most recent refresh
}

// NewManager creates a manager backed by the given store and OAuth
// client.
func NewManager(store storage.AccountStore, oauth *OAuthClient, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  store,
		oauth:  oauth,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load restores the persisted credential. A missing credential is not
// an error; AccessToken will report not-authenticated until login.
func (m *Manager) Load(ctx context.Context) error {
	cred, err := m.store.Get(ctx, Provider)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}

	m.mu.Lock()
	m.cred = cred
	m.mu.Unlock()
	return nil
}

// SetCredential installs and persists a credential (login path).
func (m *Manager) SetCredential(ctx context.Context, cred *domain.Credential) error {
	if err := m.store.Put(ctx, Provider, cred); err != nil {
		return err
	}

	m.mu.Lock()
	copied := *cred
	m.cred = &copied
	m.lastErr = nil
	m.mu.Unlock()
	return nil
}

// Clear removes the credential (logout path).
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Delete(ctx, Provider); err != nil {
		return err
	}

	m.mu.Lock()
	m.cred = nil
	m.lastErr = nil
	m.mu.Unlock()
	return nil
}

// Credential returns a copy of the current credential, or nil.
func (m *Manager) Credential() *domain.Credential {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cred == nil {
		return nil
	}
	copied := *m.cred
	return &copied
}

// AccessToken returns the current access token, refreshing it first
// when expiry is within the safety margin and a refresh token exists.
// A rejected refresh fails with the re-login condition and is not
// retried; an expired credential without a refresh token fails the
// same way without any network call.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()

	if m.cred == nil || m.cred.AccessToken == "" {
		m.mu.Unlock()
		return "", domain.ErrNotAuthenticated("no credential; login first")
	}

	now := m.now()
	withinMargin := !m.cred.ExpiresAt.IsZero() && now.After(m.cred.ExpiresAt.Add(-refreshMargin))
	if !withinMargin {
		token := m.cred.AccessToken
		m.mu.Unlock()
		return token, nil
	}

	if m.cred.RefreshToken == "" {
		expired := now.After(m.cred.ExpiresAt)
		token := m.cred.AccessToken
		m.mu.Unlock()
		if expired {
			return "", domain.ErrCredentialRefreshFailed("token expired and no refresh token available", nil)
		}
		// Inside the margin but still valid; serve it as-is.
		return token, nil
	}

	// Join an in-flight refresh rather than starting a second one.
	if m.pending != nil {
		pending := m.pending
		m.mu.Unlock()

		select {
		case <-pending:
		case <-ctx.Done():
			return "", ctx.Err()
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.lastErr != nil {
			return "", m.lastErr
		}
		return m.cred.AccessToken, nil
	}

	pending := make(chan struct{})
	m.pending = pending
	refreshToken := m.cred.RefreshToken
	m.mu.Unlock()

	token, err := m.refresh(ctx, refreshToken)

	m.mu.Lock()
	defer m.mu.Unlock()
	defer close(pending)
	m.pending = nil

	if err != nil {
		m.lastErr = err
		return "", err
	}
	m.lastErr = nil
	return token, nil
}

func (m *Manager) refresh(ctx context.Context, refreshToken string) (string, error) {
	result, err := m.oauth.Refresh(ctx, refreshToken)
	if err != nil {
		m.logger.Error("token refresh failed", slog.String("error", err.Error()))
		return "", domain.ErrCredentialRefreshFailed("token expired and refresh failed; re-login required", err)
	}

	m.mu.Lock()
	updated := *m.cred
	m.mu.Unlock()

	updated.AccessToken = result.AccessToken
	updated.ExpiresAt = m.now().Add(time.Duration(result.ExpiresIn) * time.Second)
	if result.RefreshToken != "" {
		updated.RefreshToken = result.RefreshToken
	}

	// Persist before handing the token out so a restart keeps it.
	if err := m.store.Put(ctx, Provider, &updated); err != nil {
		m.logger.Warn("failed to persist refreshed credential", slog.String("error", err.Error()))
	}

	m.mu.Lock()
	m.cred = &updated
	m.mu.Unlock()

	m.logger.Info("access token refreshed",
		slog.Time("expires_at", updated.ExpiresAt),
	)
	return updated.AccessToken, nil
}
