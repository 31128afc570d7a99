package frontdoor

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/anti-api/gateway/internal/credential"
	"github.com/anti-api/gateway/internal/domain"
	"github.com/anti-api/gateway/internal/server"
)

// AuthHandler serves the login/logout/status routes for the cloud
// backend credential.
type AuthHandler struct {
	manager *credential.Manager
	oauth   *credential.OAuthClient
	logger  *slog.Logger
}

func NewAuthHandler(manager *credential.Manager, oauth *credential.OAuthClient, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{manager: manager, oauth: oauth, logger: logger}
}

// HandleStatus reports whether a credential is present and its owner.
func (h *AuthHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	type status struct {
		Authenticated bool   `json:"authenticated"`
		Email         string `json:"email,omitempty"`
		ProjectID     string `json:"project_id,omitempty"`
		ExpiresAt     string `json:"expires_at,omitempty"`
	}

	out := status{}
	if cred := h.manager.Credential(); cred != nil && cred.AccessToken != "" {
		out.Authenticated = true
		out.Email = cred.Email
		out.ProjectID = cred.ProjectID
		if !cred.ExpiresAt.IsZero() {
			out.ExpiresAt = cred.ExpiresAt.Format(time.RFC3339)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// HandleLoginURL returns the authorization URL to start the OAuth flow.
func (h *AuthHandler) HandleLoginURL(w http.ResponseWriter, r *http.Request) {
	redirectURI := r.URL.Query().Get("redirect_uri")
	if redirectURI == "" {
		redirectURI = "http://localhost:8080/auth/callback"
	}
	state := r.URL.Query().Get("state")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"auth_url": h.oauth.AuthCodeURL(redirectURI, state),
	})
}

// HandleLogin exchanges an authorization code for tokens and installs
// the resulting credential.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string `json:"code"`
		RedirectURI string `json:"redirect_uri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "code is required")
		return
	}
	if req.RedirectURI == "" {
		req.RedirectURI = "http://localhost:8080/auth/callback"
	}

	result, err := h.oauth.ExchangeCode(r.Context(), req.Code, req.RedirectURI)
	if err != nil {
		h.logger.Error("code exchange failed", slog.String("error", err.Error()))
		server.AddError(r.Context(), err)
		writeError(w, http.StatusUnauthorized, "authentication_error", err.Error())
		return
	}

	cred := &domain.Credential{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(result.ExpiresIn) * time.Second),
	}

	// Best effort enrichment; login succeeds without either.
	if email, err := h.oauth.UserEmail(r.Context(), result.AccessToken); err == nil {
		cred.Email = email
	} else {
		h.logger.Warn("userinfo lookup failed", slog.String("error", err.Error()))
	}
	if projectID, err := h.oauth.ProjectID(r.Context(), result.AccessToken); err == nil {
		cred.ProjectID = projectID
	} else {
		h.logger.Warn("project lookup failed", slog.String("error", err.Error()))
	}

	if err := h.manager.SetCredential(r.Context(), cred); err != nil {
		h.logger.Error("failed to persist credential", slog.String("error", err.Error()))
		server.AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, "api_error", err.Error())
		return
	}

	h.logger.Info("login complete", slog.String("email", cred.Email))
	h.HandleStatus(w, r)
}

// HandleLogout removes the stored credential.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Clear(r.Context()); err != nil {
		server.AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, "api_error", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}
