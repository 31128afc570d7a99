package cloud

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	cloudapi "github.com/anti-api/gateway/internal/api/cloud"
	"github.com/anti-api/gateway/internal/domain"
)

// modelAliases maps caller-facing model ids to the names the cloud API
// accepts. Unknown ids pass through unchanged.
var modelAliases = map[string]string{
	"claude-sonnet-4-5":          "claude-sonnet-4-5",
	"claude-sonnet-4-5-thinking": "claude-sonnet-4-5-thinking",
	"claude-opus-4-5-thinking":   "claude-opus-4-5-thinking",

	// Date-suffixed ids some clients send.
	"claude-sonnet-4-5-20251001": "claude-sonnet-4-5",
	"claude-sonnet-4-5-20251022": "claude-sonnet-4-5",
	"claude-haiku-4-5-20251001":  "claude-sonnet-4-5", // haiku unavailable upstream
	"claude-haiku-4-5-20251022":  "claude-sonnet-4-5",

	"gemini-3-pro-high": "gemini-3-pro-high",
	"gemini-3-pro-low":  "gemini-3-pro-low",
	"gemini-3-flash":    "gemini-3-flash",

	// gpt-oss needs the effort suffix upstream.
	"gpt-oss-120b":        "gpt-oss-120b-medium",
	"gpt-oss-120b-medium": "gpt-oss-120b-medium",

	"claude-haiku-4-5":          "claude-sonnet-4-5",
	"claude-haiku-4-5-thinking": "claude-sonnet-4-5-thinking",
	"claude-opus-4":             "claude-opus-4",
	"claude-opus-4-thinking":    "claude-opus-4-thinking",
	"claude-sonnet-4":           "claude-sonnet-4",
	"claude-sonnet-4-thinking":  "claude-sonnet-4-thinking",
	"gemini-3-pro":              "gemini-3-pro",
	"gemini-2-5-pro":            "gemini-2-5-pro",
	"gemini-2-5-flash":          "gemini-2-5-flash",
}

// ResolveModel translates a caller model id via the alias table.
// Unknown ids are forwarded as-is with a diagnostic, never rejected.
func ResolveModel(userModel string) string {
	if mapped, ok := modelAliases[userModel]; ok {
		return mapped
	}
	slog.Debug("unknown model, forwarding as-is", slog.String("model", userModel))
	return userModel
}

// KnownModels lists the caller-facing model ids for the frontdoor.
func KnownModels() []string {
	ids := make([]string, 0, len(modelAliases))
	for id := range modelAliases {
		ids = append(ids, id)
	}
	return ids
}

const (
	defaultMaxTokens = 4096

	// Thinking models burn part of their output budget on reasoning
	// before any visible text, so their limit gets a floor.
	thinkingTokenFloor = 1000
)

// Normalize converts a client chat request into the cloud API's native
// request shape. model must already be resolved via ResolveModel.
func Normalize(req *domain.ChatRequest, model, projectID string) *cloudapi.GenerateRequest {
	contents := make([]cloudapi.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := msg.Role
		if role == "assistant" {
			role = "model"
		}
		contents = append(contents, cloudapi.Content{
			Role:  role,
			Parts: []cloudapi.Part{{Text: flattenContent(msg.Content)}},
		})
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	if isThinkingModel(model) && maxTokens < thinkingTokenFloor {
		maxTokens = thinkingTokenFloor
	}

	if projectID == "" {
		projectID = "unknown"
	}

	native := &cloudapi.GenerateRequest{
		Model:     model,
		UserAgent: "antigravity",
		Project:   projectID,
		RequestID: "agent-" + uuid.NewString(),
		Request: cloudapi.InnerRequest{
			Contents:         contents,
			SessionID:        sessionID(req.Messages),
			GenerationConfig: &cloudapi.GenerationConfig{MaxOutputTokens: maxTokens},
		},
	}

	// Only the claude family validates tool schemas; other families
	// reject tool declarations outright, so they never see them.
	if strings.Contains(model, "claude") {
		native.Request.ToolConfig = &cloudapi.ToolConfig{
			FunctionCallingConfig: cloudapi.FunctionCallingConfig{Mode: "VALIDATED"},
		}
		if len(req.Tools) > 0 {
			for _, tool := range req.Tools {
				native.Request.Tools = append(native.Request.Tools, cloudapi.ToolDeclaration{
					FunctionDeclarations: []cloudapi.FunctionDeclaration{{
						Name:        tool.Name,
						Description: tool.Description,
						Parameters:  SanitizeSchema(tool.InputSchema),
					}},
				})
			}
		}
	}

	return native
}

func isThinkingModel(model string) bool {
	return strings.Contains(model, "gemini-3") || strings.Contains(model, "gpt-oss")
}

// sessionID derives a stable session identifier from the first
// plain-string user message so repeated identical prompts land in the
// same backend session. Without one, a random large value keeps calls
// distinct.
func sessionID(messages []domain.Message) string {
	for _, msg := range messages {
		if msg.Role != "user" || !msg.Content.IsPlain() {
			continue
		}
		var h int32
		for _, c := range msg.Content.PlainText() {
			h = h*31 + int32(c)
		}
		n := int64(h)
		if n < 0 {
			n = -n
		}
		return fmt.Sprintf("-%d", n*1_000_000_000_000)
	}
	return fmt.Sprintf("-%d", rand.Int63())
}

// flattenContent reduces structured message content to plain text.
// Tool-use blocks become a labeled pretty-printed block; tool results
// surface their inner text, including one nested level.
func flattenContent(content domain.MessageContent) string {
	if content.IsPlain() {
		return content.PlainText()
	}

	var parts []string
	for _, block := range content.Blocks() {
		switch block.Type {
		case domain.BlockText:
			if block.Text != "" {
				parts = append(parts, block.Text)
			}
		case domain.BlockToolUse:
			input, err := json.MarshalIndent(block.Input, "", "  ")
			if err != nil {
				input = []byte("{}")
			}
			parts = append(parts, fmt.Sprintf("[Tool Call: %s]\n%s", block.Name, input))
		case domain.BlockToolResult:
			if block.Content == nil {
				continue
			}
			if block.Content.IsText {
				parts = append(parts, block.Content.Text)
				continue
			}
			for _, nested := range block.Content.Blocks {
				if nested.Type == domain.BlockText && nested.Text != "" {
					parts = append(parts, nested.Text)
				}
			}
		}
	}

	if len(parts) == 0 {
		return "[No text content]"
	}
	return strings.Join(parts, "\n")
}
