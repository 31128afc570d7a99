// Package cloud implements the chat backend for the cloud REST API:
// normalization into the native request shape, failover execution, and
// translation of chunked responses into client-protocol output.
package cloud

import (
	"context"
	"log/slog"

	cloudapi "github.com/anti-api/gateway/internal/api/cloud"
	"github.com/anti-api/gateway/internal/domain"
	"github.com/anti-api/gateway/internal/translator"
)

// CredentialSource is what the backend needs from the credential
// manager: a live access token and the associated project id.
type CredentialSource interface {
	domain.TokenSource
	Credential() *domain.Credential
}

// Option configures the backend.
type Option func(*Backend)

// WithClient sets a custom API client.
func WithClient(client *cloudapi.Client) Option {
	return func(b *Backend) {
		b.client = client
	}
}

// WithLogger sets the backend's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// Backend is the cloud REST chat backend.
type Backend struct {
	client *cloudapi.Client
	creds  CredentialSource
	logger *slog.Logger
}

var _ domain.Backend = (*Backend)(nil)

// New creates the cloud backend.
func New(creds CredentialSource, opts ...Option) *Backend {
	b := &Backend{
		client: cloudapi.NewClient(),
		creds:  creds,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string { return "cloud" }

// Complete executes a non-streaming chat completion.
func (b *Backend) Complete(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	chunks, _, err := b.execute(ctx, cloudapi.GenerateEndpoint, req)
	if err != nil {
		return nil, err
	}
	return ParseResponse(chunks)
}

// Stream executes a streaming chat completion. The backend delivers
// the full chunk sequence in one body; each chunk is translated into
// protocol events in arrival order.
func (b *Backend) Stream(ctx context.Context, req *domain.ChatRequest) (<-chan domain.StreamResult, error) {
	chunks, model, err := b.execute(ctx, cloudapi.StreamEndpoint, req)
	if err != nil {
		return nil, err
	}

	out := make(chan domain.StreamResult)
	go func() {
		defer close(out)

		state := translator.NewState(model)
		for _, chunk := range chunks {
			for _, event := range translator.Translate(state, ToTranslatorChunk(chunk)) {
				select {
				case out <- domain.StreamResult{Event: event}:
				case <-ctx.Done():
					return
				}
			}
		}
		for _, event := range translator.Finish(state) {
			select {
			case out <- domain.StreamResult{Event: event}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (b *Backend) execute(ctx context.Context, endpoint string, req *domain.ChatRequest) ([]cloudapi.ResponseChunk, string, error) {
	accessToken, err := b.creds.AccessToken(ctx)
	if err != nil {
		return nil, "", err
	}

	projectID := ""
	if cred := b.creds.Credential(); cred != nil {
		projectID = cred.ProjectID
	}

	model := ResolveModel(req.Model)
	native := Normalize(req, model, projectID)

	body, err := b.client.Post(ctx, endpoint, native, accessToken)
	if err != nil {
		return nil, "", err
	}

	chunks, err := cloudapi.DecodeChunks(body)
	if err != nil {
		return nil, "", err
	}
	return chunks, model, nil
}
