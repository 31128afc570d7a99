package cloud

// Native request and response shapes for the cloud generate API. The
// request nests the conversation under an inner envelope keyed by the
// caller's project and session.

// GenerateRequest is the outer request envelope.
type GenerateRequest struct {
	Model     string       `json:"model"`
	UserAgent string       `json:"userAgent"`
	Project   string       `json:"project"`
	RequestID string       `json:"requestId"`
	Request   InnerRequest `json:"request"`
}

// InnerRequest carries the conversation payload.
type InnerRequest struct {
	Contents         []Content         `json:"contents"`
	SessionID        string            `json:"sessionId"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
	Tools            []ToolDeclaration `json:"tools,omitempty"`
	ToolConfig       *ToolConfig       `json:"toolConfig,omitempty"`
}

// Content is one conversation turn in native form.
type Content struct {
	Role  string `json:"role"` // user, model, system
	Parts []Part `json:"parts"`
}

// Part is a fragment of a turn: a text piece or a function call.
type Part struct {
	Text         string        `json:"text,omitempty"`
	Thought      bool          `json:"thought,omitempty"`
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
}

// FunctionCall is a native tool invocation.
type FunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// GenerationConfig bounds the generation.
type GenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

// ToolDeclaration wraps function declarations the model may call.
type ToolDeclaration struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
}

// FunctionDeclaration describes one callable function.
type FunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolConfig selects the function-calling mode.
type ToolConfig struct {
	FunctionCallingConfig FunctionCallingConfig `json:"functionCallingConfig"`
}

// FunctionCallingConfig holds the calling mode.
type FunctionCallingConfig struct {
	Mode string `json:"mode"`
}

// ResponseChunk is one element of the (possibly progressive) response.
// The backend returns either a single object or a JSON array of these
// even for a non-streaming call.
type ResponseChunk struct {
	Response *ChunkResponse `json:"response,omitempty"`

	// Some chunk shapes carry usage at the top level.
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
}

// ChunkResponse is the inner payload of a response chunk.
type ChunkResponse struct {
	Candidates    []Candidate    `json:"candidates,omitempty"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
}

// Candidate is one generated alternative; only the first is used.
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

// UsageMetadata carries native token accounting. Thought tokens are
// reported separately from visible candidate tokens.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount int `json:"candidatesTokenCount,omitempty"`
	ThoughtsTokenCount   int `json:"thoughtsTokenCount,omitempty"`
}
