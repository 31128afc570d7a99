// Package cascade implements the chat backend for the local language
// server. Answers are produced out-of-band: a request creates an
// ephemeral session, submits one message, and polls the session
// trajectory until a terminal step appears.
package cascade

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	cascadeapi "github.com/anti-api/gateway/internal/api/cascade"
	"github.com/anti-api/gateway/internal/discovery"
	"github.com/anti-api/gateway/internal/domain"
	"github.com/anti-api/gateway/internal/tokens"
	"github.com/anti-api/gateway/internal/translator"
)

const (
	defaultPollInterval = 1 * time.Second
	defaultPollTimeout  = 120 * time.Second
)

// Caller is the subset of the API client the orchestrator drives.
type Caller interface {
	StartSession(ctx context.Context, accessToken string) (string, error)
	SendMessage(ctx context.Context, accessToken string, payload []byte) error
	Trajectory(ctx context.Context, accessToken, sessionID string) (*cascadeapi.Trajectory, error)
}

// session is the per-request conversation state. Sessions are never
// reused across requests: reuse trips the language server's "executor
// not idle" fault.
type session struct {
	id        string
	watermark int // trajectory length before our message; steps past it are new
	createdAt time.Time
}

// Option configures the backend.
type Option func(*Backend)

// WithEncoder sets the message payload encoder.
func WithEncoder(enc cascadeapi.Encoder) Option {
	return func(b *Backend) {
		b.encoder = enc
	}
}

// WithLogger sets the backend's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// WithPolling overrides the poll interval and overall deadline.
func WithPolling(interval, timeout time.Duration) Option {
	return func(b *Backend) {
		b.pollInterval = interval
		b.pollTimeout = timeout
	}
}

// WithClientFactory replaces how per-endpoint clients are built. Used
// by tests.
func WithClientFactory(factory func(port int, csrfToken string) Caller) Option {
	return func(b *Backend) {
		b.newClient = factory
	}
}

// Backend is the local RPC chat backend.
type Backend struct {
	source    discovery.Source
	creds     domain.TokenSource
	filter    domain.TextFilter
	encoder   cascadeapi.Encoder
	estimator *tokens.Estimator
	logger    *slog.Logger

	pollInterval time.Duration
	pollTimeout  time.Duration

	newClient func(port int, csrfToken string) Caller
}

var _ domain.Backend = (*Backend)(nil)

// New creates the cascade backend. source locates the language server,
// creds supplies its bearer token, and filter scrubs recovered text.
func New(source discovery.Source, creds domain.TokenSource, filter domain.TextFilter, opts ...Option) *Backend {
	b := &Backend{
		source:       source,
		creds:        creds,
		filter:       filter,
		encoder:      cascadeapi.EnvelopeEncoder{},
		estimator:    tokens.NewEstimator(),
		logger:       slog.Default(),
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
		newClient: func(port int, csrfToken string) Caller {
			return cascadeapi.NewClient(port, csrfToken)
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string { return "cascade" }

// Complete runs the session state machine and returns the recovered
// answer as a single text block.
func (b *Backend) Complete(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	text, prompt, err := b.run(ctx, req)
	if err != nil {
		return nil, err
	}

	return &domain.ChatResponse{
		ContentBlocks: []domain.ContentBlock{{Type: domain.BlockText, Text: text}},
		StopReason:    domain.StopEndTurn,
		Usage: &domain.Usage{
			InputTokens:  b.estimator.Count(prompt),
			OutputTokens: b.estimator.Count(text),
		},
	}, nil
}

// Stream simulates a stream: the language server cannot deliver
// incremental output, so the complete answer is recovered first and
// then replayed in fixed-size windows. On failure the stream emits one
// error event and closes rather than hanging.
func (b *Backend) Stream(ctx context.Context, req *domain.ChatRequest) (<-chan domain.StreamResult, error) {
	out := make(chan domain.StreamResult)

	go func() {
		defer close(out)

		text, prompt, err := b.run(ctx, req)
		if err != nil {
			select {
			case out <- domain.StreamResult{Event: translator.ErrorEvent(err), Err: err}:
			case <-ctx.Done():
			}
			return
		}

		usage := &domain.Usage{
			InputTokens:  b.estimator.Count(prompt),
			OutputTokens: b.estimator.Count(text),
		}
		for _, event := range translator.Synthesize(req.Model, text, usage) {
			select {
			case out <- domain.StreamResult{Event: event}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// run executes the per-request state machine: create, snapshot,
// submit, poll, sanitize. It returns the sanitized answer and the
// submitted prompt.
func (b *Backend) run(ctx context.Context, req *domain.ChatRequest) (answer, prompt string, err error) {
	info, err := b.source.Info(ctx)
	if err != nil {
		return "", "", fmt.Errorf("discover language server: %w", err)
	}
	if info == nil || info.Port == 0 || info.CSRFToken == "" {
		return "", "", domain.ErrLocalServiceNotInitialized("language server endpoint or CSRF token not discovered")
	}

	accessToken, err := b.creds.AccessToken(ctx)
	if err != nil || accessToken == "" {
		return "", "", domain.ErrLocalServiceNotInitialized("language server session token not available")
	}

	// Only the last user-authored message goes to the server; system
	// and assistant history would leak caller-side context.
	prompt = lastUserMessage(req.Messages)
	if prompt == "" {
		return "", "", domain.ErrBackendProtocolError("request contains no user message", nil)
	}
	prompt = decontaminate(prompt, b.filter)

	client := b.newClient(info.Port, info.CSRFToken)

	sess, err := b.createSession(ctx, client, accessToken)
	if err != nil {
		return "", "", err
	}

	payload, err := b.encoder.Encode(cascadeapi.SubmitMessage{
		SessionID:   sess.id,
		Message:     prompt,
		AccessToken: accessToken,
		Model:       req.Model,
	})
	if err != nil {
		return "", "", fmt.Errorf("encode message: %w", err)
	}

	if err := client.SendMessage(ctx, accessToken, payload); err != nil {
		return "", "", fmt.Errorf("submit message: %w", err)
	}

	text, err := b.awaitAnswer(ctx, client, accessToken, sess)
	if err != nil {
		return "", "", err
	}

	if b.filter != nil {
		text = b.filter.Filter(text)
	}
	return text, prompt, nil
}

// createSession starts a fresh session and snapshots the trajectory
// watermark. Failure here is fatal for the request; there is no second
// RPC backend to fail over to.
func (b *Backend) createSession(ctx context.Context, client Caller, accessToken string) (*session, error) {
	id, err := client.StartSession(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	traj, err := client.Trajectory(ctx, accessToken, id)
	if err != nil {
		return nil, fmt.Errorf("snapshot trajectory: %w", err)
	}

	b.logger.Debug("cascade session created",
		slog.String("session_id", id),
		slog.Int("watermark", len(traj.Steps)),
	)

	return &session{
		id:        id,
		watermark: len(traj.Steps),
		createdAt: time.Now(),
	}, nil
}

// awaitAnswer polls the trajectory on a fixed interval until a
// qualifying step appears past the watermark or the deadline elapses.
// The session is simply abandoned on timeout; the server expires it on
// its own.
func (b *Backend) awaitAnswer(ctx context.Context, client Caller, accessToken string, sess *session) (string, error) {
	deadline := time.Now().Add(b.pollTimeout)
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		traj, err := client.Trajectory(ctx, accessToken, sess.id)
		if err != nil {
			// Transient poll failures don't abort the wait.
			b.logger.Warn("trajectory poll failed",
				slog.String("session_id", sess.id),
				slog.String("error", err.Error()),
			)
		} else if text, ok := answerFrom(traj.Steps, sess.watermark); ok {
			return text, nil
		}

		if time.Now().After(deadline) {
			return "", domain.ErrResponseTimeout(
				fmt.Sprintf("no response step after %s", b.pollTimeout))
		}
	}
}

// answerFrom scans steps past the watermark. The most recent completed
// planner response wins; failing that, a notify-user step counts as an
// answer that needs no further model turns.
func answerFrom(steps []cascadeapi.Step, watermark int) (string, bool) {
	if watermark > len(steps) {
		return "", false
	}
	fresh := steps[watermark:]

	for i := len(fresh) - 1; i >= 0; i-- {
		step := fresh[i]
		if step.Type == cascadeapi.StepPlannerResponse && step.Status == cascadeapi.StatusDone {
			return step.Text(), true
		}
	}

	for _, step := range fresh {
		if step.Type == cascadeapi.StepNotifyUser {
			return step.Text(), true
		}
	}

	return "", false
}

// lastUserMessage extracts the text of the final user turn.
func lastUserMessage(messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != "user" {
			continue
		}

		content := messages[i].Content
		if content.IsPlain() {
			return content.PlainText()
		}

		var parts []string
		for _, block := range content.Blocks() {
			if block.Type == domain.BlockText && block.Text != "" {
				parts = append(parts, block.Text)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}
