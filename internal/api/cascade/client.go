// Package cascade is the HTTP client for the local language server's
// binary RPC surface. The server listens on loopback with a
// self-signed certificate, so this client's transport alone accepts
// untrusted certificates; nothing else in the process weakens TLS
// validation.
package cascade

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	servicePrefix = "/exa.language_server_pb.LanguageServerService"

	pathStartSession  = servicePrefix + "/StartCascade"
	pathSendMessage   = servicePrefix + "/SendUserCascadeMessage"
	pathGetTrajectory = servicePrefix + "/GetCascadeTrajectory"

	connectProtocolVersion = "1"
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client, replacing the loopback
// transport. Used by tests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL overrides the loopback address entirely. Used by tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// Client talks to one discovered language server instance.
type Client struct {
	baseURL    string
	csrfToken  string
	httpClient *http.Client
}

// NewClient creates a client for the language server at the given
// loopback port, authenticated by the out-of-band CSRF token.
func NewClient(port int, csrfToken string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   fmt.Sprintf("https://127.0.0.1:%d", port),
		csrfToken: csrfToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				// The language server presents a self-signed loopback
				// certificate; this transport is never used for any
				// other host.
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartSession creates a fresh ephemeral session and returns its id.
func (c *Client) StartSession(ctx context.Context, accessToken string) (string, error) {
	body, err := c.post(ctx, pathStartSession, accessToken, "application/json", []byte("{}"))
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}

	var resp StartSessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode session response: %w", err)
	}
	if resp.CascadeID == "" {
		return "", fmt.Errorf("server returned no session id")
	}
	return resp.CascadeID, nil
}

// SendMessage submits an encoded message payload. The call only
// acknowledges enqueueing; the answer surfaces later in the trajectory.
func (c *Client) SendMessage(ctx context.Context, accessToken string, payload []byte) error {
	if _, err := c.post(ctx, pathSendMessage, accessToken, "application/connect+json", payload); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Trajectory reads the current step log of a session.
func (c *Client) Trajectory(ctx context.Context, accessToken, sessionID string) (*Trajectory, error) {
	reqBody, err := json.Marshal(map[string]string{"cascadeId": sessionID})
	if err != nil {
		return nil, fmt.Errorf("marshal trajectory request: %w", err)
	}

	body, err := c.post(ctx, pathGetTrajectory, accessToken, "application/json", reqBody)
	if err != nil {
		return nil, fmt.Errorf("get trajectory: %w", err)
	}

	var traj Trajectory
	if err := json.Unmarshal(body, &traj); err != nil {
		return nil, fmt.Errorf("decode trajectory: %w", err)
	}
	return &traj, nil
}

func (c *Client) post(ctx context.Context, path, accessToken, contentType string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("X-Csrf-Token", c.csrfToken)
	httpReq.Header.Set("Connect-Protocol-Version", connectProtocolVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("language server error (status %d): %s", resp.StatusCode, respBody)
	}

	return respBody, nil
}
