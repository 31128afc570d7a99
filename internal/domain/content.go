package domain

import (
	"encoding/json"
	"fmt"
)

// MessageContent supports both the string shortcut and the full
// content-block array wire forms. The original form is remembered:
// some backends treat a plain-string user message differently from an
// equivalent single text block.
type MessageContent struct {
	plain   string
	blocks  []ContentBlock
	isPlain bool
}

// TextContent builds content from the plain string form.
func TextContent(s string) MessageContent {
	return MessageContent{plain: s, isPlain: true}
}

// BlocksContent builds content from typed blocks.
func BlocksContent(blocks ...ContentBlock) MessageContent {
	return MessageContent{blocks: blocks}
}

// IsPlain reports whether the content arrived as a plain string.
func (c MessageContent) IsPlain() bool { return c.isPlain }

// PlainText returns the string form; empty unless IsPlain.
func (c MessageContent) PlainText() string { return c.plain }

// Blocks returns the block form. A plain string is exposed as a single
// text block so callers can iterate uniformly.
func (c MessageContent) Blocks() []ContentBlock {
	if c.isPlain {
		return []ContentBlock{{Type: BlockText, Text: c.plain}}
	}
	return c.blocks
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*c = MessageContent{plain: single, isPlain: true}
		return nil
	}

	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err == nil {
		for i := range blocks {
			if blocks[i].Type == "" {
				blocks[i].Type = BlockText
			}
		}
		*c = MessageContent{blocks: blocks}
		return nil
	}

	return fmt.Errorf("content must be a string or array of content blocks")
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.isPlain {
		return json.Marshal(c.plain)
	}
	return json.Marshal(c.blocks)
}

// ToolResultContent is the payload of a tool_result block: either a
// plain string or one level of nested content blocks.
type ToolResultContent struct {
	Text   string
	Blocks []ContentBlock
	IsText bool
}

func (c *ToolResultContent) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*c = ToolResultContent{Text: single, IsText: true}
		return nil
	}

	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err == nil {
		*c = ToolResultContent{Blocks: blocks}
		return nil
	}

	return fmt.Errorf("tool_result content must be a string or array of content blocks")
}

func (c ToolResultContent) MarshalJSON() ([]byte, error) {
	if c.IsText {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Blocks)
}
