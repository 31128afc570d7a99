// Package cloud is the HTTP client for the cloud generate API. A fixed
// priority list of base URLs is the redundancy mechanism: each request
// walks the list in order and the first 2xx wins.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anti-api/gateway/internal/domain"
)

const (
	// GenerateEndpoint serves complete responses.
	GenerateEndpoint = "/v1internal:generateContent"

	// StreamEndpoint serves chunked responses.
	StreamEndpoint = "/v1internal:streamGenerateContent"

	defaultUserAgent = "antigravity/1.104.0 darwin/arm64"
)

// DefaultBaseURLs is the candidate list in priority order.
var DefaultBaseURLs = []string{
	"https://daily-cloudcode-pa.googleapis.com",
	"https://daily-cloudcode-pa.sandbox.googleapis.com",
	"https://cloudcode-pa.googleapis.com",
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURLs overrides the candidate list.
func WithBaseURLs(urls []string) ClientOption {
	return func(c *Client) {
		c.baseURLs = make([]string, len(urls))
		for i, u := range urls {
			c.baseURLs[i] = strings.TrimSuffix(u, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// Client posts native requests against the candidate list.
type Client struct {
	baseURLs   []string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a cloud API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURLs:   DefaultBaseURLs,
		userAgent:  defaultUserAgent,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post sends the request to each candidate base URL in priority order
// and returns the first 2xx body. A candidate is abandoned on network
// failure or non-2xx status; there is no retry within a candidate and
// no backoff. All candidates failing yields a single typed error
// carrying the last underlying cause.
func (c *Client) Post(ctx context.Context, endpoint string, req *GenerateRequest, accessToken string) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error

	for _, baseURL := range c.baseURLs {
		url := baseURL + endpoint
		c.logger.Debug("trying cloud endpoint", slog.String("url", url))

		respBody, err := c.attempt(ctx, url, body, accessToken)
		if err != nil {
			c.logger.Warn("cloud endpoint failed",
				slog.String("url", url),
				slog.String("error", err.Error()),
			)
			lastErr = err
			continue
		}

		c.logger.Debug("cloud request served", slog.String("base_url", baseURL))
		return respBody, nil
	}

	return nil, domain.ErrBackendUnavailable("all cloud endpoints failed", lastErr)
}

func (c *Client) attempt(ctx context.Context, url string, body []byte, accessToken string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("cloud API error (status %d): %s", resp.StatusCode, truncate(respBody, 300))
	}

	return respBody, nil
}

// DecodeChunks parses a raw response body that may be a single JSON
// object or a JSON array of progressive chunks.
func DecodeChunks(body []byte) ([]ResponseChunk, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, domain.ErrBackendProtocolError("empty response from cloud API", nil)
	}

	switch trimmed[0] {
	case '[':
		var chunks []ResponseChunk
		if err := json.Unmarshal(trimmed, &chunks); err != nil {
			return nil, domain.ErrBackendProtocolError("malformed chunk array", err)
		}
		return chunks, nil
	case '{':
		var chunk ResponseChunk
		if err := json.Unmarshal(trimmed, &chunk); err != nil {
			return nil, domain.ErrBackendProtocolError("malformed response object", err)
		}
		return []ResponseChunk{chunk}, nil
	default:
		return nil, domain.ErrBackendProtocolError("unrecognized response body", nil)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
