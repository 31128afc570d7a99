package domain

import "time"

// Stop reasons reported on a ChatResponse.
const (
	StopEndTurn   = "end_turn"
	StopToolUse   = "tool_use"
	StopMaxTokens = "max_tokens"
)

// Content block types.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// Message is a single turn in a chat conversation.
type Message struct {
	Role    string         `json:"role"` // user, assistant, system
	Content MessageContent `json:"content"`
}

// Tool declares a callable tool with a JSON-schema parameter description.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

// ChatRequest is the client-protocol chat completion request.
// It is treated as immutable once built.
type ChatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	Tools     []Tool    `json:"tools,omitempty"`
	MaxTokens int       `json:"max_tokens,omitempty"`
	Stream    bool      `json:"stream,omitempty"`
}

// ContentBlock is one typed unit of response content. Order within a
// response is significant.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	// Tool use fields.
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// Tool result payload: a plain string or nested content blocks.
	Content *ToolResultContent `json:"content,omitempty"`
}

// Usage carries token accounting for one completion.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ChatResponse is the client-protocol completion result.
type ChatResponse struct {
	ContentBlocks []ContentBlock `json:"content_blocks"`
	StopReason    string         `json:"stop_reason"`
	Usage         *Usage         `json:"usage,omitempty"`
}

// StreamResult is one element of a streaming response: either a fully
// formed protocol event string or a terminal error. The sequence is
// ordered, finite, and not restartable.
type StreamResult struct {
	Event string
	Err   error
}

// Credential is an access credential for a backend, owned by the
// credential manager. Other components read the access token through
// the manager, never the struct directly.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	Email        string    `json:"email,omitempty"`
	ProjectID    string    `json:"project_id,omitempty"`
}

// Model describes a model entry exposed by the frontdoor listing.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// ModelList is the frontdoor model listing response.
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}
