package cloud

import (
	"github.com/google/uuid"

	cloudapi "github.com/anti-api/gateway/internal/api/cloud"
	"github.com/anti-api/gateway/internal/domain"
	"github.com/anti-api/gateway/internal/translator"
)

// ParseResponse aggregates one or more backend response chunks into a
// client-protocol response. Consecutive text parts merge into a single
// text block; each function call becomes a discrete tool-use block.
func ParseResponse(chunks []cloudapi.ResponseChunk) (*domain.ChatResponse, error) {
	if len(chunks) == 0 {
		return nil, domain.ErrBackendProtocolError("empty response from cloud API", nil)
	}

	last := chunks[len(chunks)-1]
	if last.Response == nil {
		return nil, domain.ErrBackendProtocolError("no valid response payload", nil)
	}

	var blocks []domain.ContentBlock
	hasToolUse := false

	for _, chunk := range chunks {
		for _, part := range chunkParts(chunk) {
			if part.Text != "" {
				// Thought parts are kept: thinking models may put the
				// whole answer there.
				if n := len(blocks); n > 0 && blocks[n-1].Type == domain.BlockText {
					blocks[n-1].Text += part.Text
				} else {
					blocks = append(blocks, domain.ContentBlock{Type: domain.BlockText, Text: part.Text})
				}
			}
			if part.FunctionCall != nil {
				hasToolUse = true
				blocks = append(blocks, toolUseBlock(part.FunctionCall))
			}
		}
	}

	if len(blocks) == 0 {
		blocks = append(blocks, domain.ContentBlock{Type: domain.BlockText, Text: ""})
	}

	stopReason := domain.StopEndTurn
	switch {
	case hasToolUse:
		stopReason = domain.StopToolUse
	case finishReason(last) == "MAX_TOKENS":
		stopReason = domain.StopMaxTokens
	}

	return &domain.ChatResponse{
		ContentBlocks: blocks,
		StopReason:    stopReason,
		Usage:         chunkUsage(last),
	}, nil
}

// ToTranslatorChunk converts a native chunk into the translator's
// neutral representation for streaming.
func ToTranslatorChunk(chunk cloudapi.ResponseChunk) translator.Chunk {
	out := translator.Chunk{
		FinishReason: finishReason(chunk),
		Usage:        chunkUsage(chunk),
	}

	for _, part := range chunkParts(chunk) {
		if part.Text != "" {
			out.Parts = append(out.Parts, translator.Part{Text: part.Text})
		}
		if part.FunctionCall != nil {
			block := toolUseBlock(part.FunctionCall)
			out.Parts = append(out.Parts, translator.Part{ToolUse: &block})
		}
	}

	return out
}

func chunkParts(chunk cloudapi.ResponseChunk) []cloudapi.Part {
	if chunk.Response == nil || len(chunk.Response.Candidates) == 0 {
		return nil
	}
	candidate := chunk.Response.Candidates[0]
	if candidate.Content == nil {
		return nil
	}
	return candidate.Content.Parts
}

func finishReason(chunk cloudapi.ResponseChunk) string {
	if chunk.Response == nil || len(chunk.Response.Candidates) == 0 {
		return ""
	}
	return chunk.Response.Candidates[0].FinishReason
}

// chunkUsage reads usage metadata, combining visible and thought
// token counts into the output total.
func chunkUsage(chunk cloudapi.ResponseChunk) *domain.Usage {
	meta := chunk.UsageMetadata
	if chunk.Response != nil && chunk.Response.UsageMetadata != nil {
		meta = chunk.Response.UsageMetadata
	}
	if meta == nil {
		return nil
	}
	return &domain.Usage{
		InputTokens:  meta.PromptTokenCount,
		OutputTokens: meta.CandidatesTokenCount + meta.ThoughtsTokenCount,
	}
}

func toolUseBlock(call *cloudapi.FunctionCall) domain.ContentBlock {
	id := call.ID
	if id == "" {
		id = "toolu_" + uuid.NewString()[:8]
	}
	input := call.Args
	if input == nil {
		input = map[string]any{}
	}
	return domain.ContentBlock{
		Type:  domain.BlockToolUse,
		ID:    id,
		Name:  call.Name,
		Input: input,
	}
}
