// Package translator converts backend response units into ordered
// Anthropic-style SSE event strings.
//
// The cloud backend feeds it already-chunked deltas; the cascade
// backend has no true stream, so its complete final text is sliced
// into fixed-size windows and replayed as deltas. The simulated stream
// is a deliberate compromise: the local RPC service produces its answer
// out-of-band and cannot deliver incremental output.
package translator

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/anti-api/gateway/internal/domain"
)

// Part is one unit of backend output inside a chunk: a text fragment
// or a complete tool invocation. Tool invocations always arrive whole;
// they are never split across chunks.
type Part struct {
	Text    string
	ToolUse *domain.ContentBlock
}

// Chunk is one backend response unit in arrival order.
type Chunk struct {
	Parts        []Part
	FinishReason string // backend finish reason of the chunk, if any
	Usage        *domain.Usage
}

// State carries the cross-chunk conversion state for one streaming
// response. It is created at stream start and discarded at stream end;
// never shared across requests.
type State struct {
	messageID string
	model     string

	started    bool
	blockOpen  bool
	blockIndex int
	blockType  string

	hasToolUse bool
	truncated  bool
	usage      *domain.Usage
}

// NewState creates the conversion state for one streaming call.
func NewState(model string) *State {
	return &State{
		messageID:  "msg_" + uuid.NewString(),
		model:      model,
		blockIndex: -1,
	}
}

// Translate converts one backend chunk into zero or more protocol
// events, updating the state. Invariants: at most one content block is
// open at a time, and blocks close in the order they were opened.
func Translate(s *State, chunk Chunk) []string {
	var events []string

	if !s.started {
		events = append(events, s.messageStart())
		s.started = true
	}

	for _, part := range chunk.Parts {
		switch {
		case part.ToolUse != nil:
			s.hasToolUse = true
			events = append(events, s.closeBlock()...)
			events = append(events, s.openToolUse(part.ToolUse)...)
			events = append(events, s.closeBlock()...)

		case part.Text != "":
			if s.blockOpen && s.blockType != domain.BlockText {
				events = append(events, s.closeBlock()...)
			}
			if !s.blockOpen {
				events = append(events, s.openText())
			}
			events = append(events, sse("content_block_delta", map[string]any{
				"type":  "content_block_delta",
				"index": s.blockIndex,
				"delta": map[string]any{"type": "text_delta", "text": part.Text},
			}))
		}
	}

	if chunk.FinishReason == "MAX_TOKENS" {
		s.truncated = true
	}
	if chunk.Usage != nil {
		s.usage = chunk.Usage
	}

	return events
}

// Finish closes any open block and terminates the stream with
// message_delta and message_stop. It must be called exactly once after
// the final chunk.
func Finish(s *State) []string {
	var events []string

	if !s.started {
		events = append(events, s.messageStart())
		s.started = true
	}

	events = append(events, s.closeBlock()...)

	delta := map[string]any{
		"type":  "message_delta",
		"delta": map[string]any{"stop_reason": s.stopReason(), "stop_sequence": nil},
	}
	if s.usage != nil {
		delta["usage"] = map[string]any{"output_tokens": s.usage.OutputTokens}
	}
	events = append(events, sse("message_delta", delta))
	events = append(events, sse("message_stop", map[string]any{"type": "message_stop"}))

	return events
}

// ErrorEvent formats a terminal in-stream error so the event sequence
// can close instead of hanging.
func ErrorEvent(err error) string {
	return sse("error", map[string]any{
		"type": "error",
		"error": map[string]any{
			"type":    "api_error",
			"message": err.Error(),
		},
	})
}

// SynthesizeWindow is the character window used when a complete text
// is replayed as a simulated stream.
const SynthesizeWindow = 64

// Synthesize converts one complete final text into a full event
// sequence by slicing it into fixed-size character windows. Usage may
// be nil when the backend reports none.
func Synthesize(model, text string, usage *domain.Usage) []string {
	s := NewState(model)
	s.usage = usage

	var events []string
	runes := []rune(text)
	for start := 0; start < len(runes); start += SynthesizeWindow {
		end := start + SynthesizeWindow
		if end > len(runes) {
			end = len(runes)
		}
		events = append(events, Translate(s, Chunk{
			Parts: []Part{{Text: string(runes[start:end])}},
		})...)
	}

	return append(events, Finish(s)...)
}

func (s *State) stopReason() string {
	switch {
	case s.hasToolUse:
		return domain.StopToolUse
	case s.truncated:
		return domain.StopMaxTokens
	default:
		return domain.StopEndTurn
	}
}

func (s *State) messageStart() string {
	inputTokens := 0
	if s.usage != nil {
		inputTokens = s.usage.InputTokens
	}
	return sse("message_start", map[string]any{
		"type": "message_start",
		"message": map[string]any{
			"id":            s.messageID,
			"type":          "message",
			"role":          "assistant",
			"model":         s.model,
			"content":       []any{},
			"stop_reason":   nil,
			"stop_sequence": nil,
			"usage":         map[string]any{"input_tokens": inputTokens, "output_tokens": 0},
		},
	})
}

func (s *State) openText() string {
	s.blockIndex++
	s.blockOpen = true
	s.blockType = domain.BlockText
	return sse("content_block_start", map[string]any{
		"type":          "content_block_start",
		"index":         s.blockIndex,
		"content_block": map[string]any{"type": "text", "text": ""},
	})
}

// openToolUse emits the block start and the complete input as a single
// input_json_delta. Tool-use blocks are delivered atomically.
func (s *State) openToolUse(block *domain.ContentBlock) []string {
	s.blockIndex++
	s.blockOpen = true
	s.blockType = domain.BlockToolUse

	input, err := json.Marshal(block.Input)
	if err != nil {
		input = []byte("{}")
	}

	return []string{
		sse("content_block_start", map[string]any{
			"type":  "content_block_start",
			"index": s.blockIndex,
			"content_block": map[string]any{
				"type":  "tool_use",
				"id":    block.ID,
				"name":  block.Name,
				"input": map[string]any{},
			},
		}),
		sse("content_block_delta", map[string]any{
			"type":  "content_block_delta",
			"index": s.blockIndex,
			"delta": map[string]any{"type": "input_json_delta", "partial_json": string(input)},
		}),
	}
}

func (s *State) closeBlock() []string {
	if !s.blockOpen {
		return nil
	}
	s.blockOpen = false
	return []string{sse("content_block_stop", map[string]any{
		"type":  "content_block_stop",
		"index": s.blockIndex,
	})}
}

func sse(event string, payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("{}")
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)
}
