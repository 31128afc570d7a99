package domain

import "context"

// Backend is one transport reaching the underlying model. Both the
// cloud REST backend and the local cascade RPC backend implement it;
// the frontdoor selects one at request time.
type Backend interface {
	Name() string

	// Complete executes a non-streaming chat completion.
	Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Stream executes a streaming chat completion. The returned channel
	// yields protocol event strings in order and is closed at stream
	// end. On failure a StreamResult carrying the error is emitted
	// before close; the stream never hangs.
	Stream(ctx context.Context, req *ChatRequest) (<-chan StreamResult, error)
}

// TokenSource supplies the current backend access token, refreshing it
// as a side effect when needed.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticToken adapts a fixed token to TokenSource, for backends whose
// token is discovered out-of-band rather than refreshed.
type StaticToken string

func (t StaticToken) AccessToken(ctx context.Context) (string, error) {
	return string(t), nil
}

// TextFilter removes backend-identity or environment-context
// disclosures from recovered text. Implementations are heuristic and
// replaceable; they must be pure and fail open.
type TextFilter interface {
	Filter(text string) string
}

// TextFilterFunc adapts a function to the TextFilter interface.
type TextFilterFunc func(string) string

func (f TextFilterFunc) Filter(text string) string { return f(text) }
