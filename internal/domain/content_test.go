package domain

import (
	"encoding/json"
	"testing"
)

func TestMessageContent_UnmarshalString(t *testing.T) {
	var msg Message
	if err := json.Unmarshal([]byte(`{"role":"user","content":"plain text"}`), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !msg.Content.IsPlain() || msg.Content.PlainText() != "plain text" {
		t.Errorf("content = %+v", msg.Content)
	}

	blocks := msg.Content.Blocks()
	if len(blocks) != 1 || blocks[0].Type != BlockText || blocks[0].Text != "plain text" {
		t.Errorf("blocks = %+v", blocks)
	}
}

func TestMessageContent_UnmarshalBlocks(t *testing.T) {
	raw := `{"role":"user","content":[
		{"type":"text","text":"look at this"},
		{"type":"tool_result","content":[{"type":"text","text":"result"}]},
		{"text":"untyped defaults to text"}
	]}`

	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Content.IsPlain() {
		t.Error("block content reported as plain")
	}

	blocks := msg.Content.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("blocks = %d", len(blocks))
	}
	if blocks[1].Type != BlockToolResult || blocks[1].Content == nil || blocks[1].Content.Blocks[0].Text != "result" {
		t.Errorf("tool_result = %+v", blocks[1])
	}
	if blocks[2].Type != BlockText {
		t.Errorf("untyped block = %+v", blocks[2])
	}
}

func TestMessageContent_RoundTripPreservesForm(t *testing.T) {
	plain, err := json.Marshal(TextContent("hi"))
	if err != nil {
		t.Fatal(err)
	}
	if string(plain) != `"hi"` {
		t.Errorf("plain form marshals to %s", plain)
	}

	structured, err := json.Marshal(BlocksContent(ContentBlock{Type: BlockText, Text: "hi"}))
	if err != nil {
		t.Fatal(err)
	}
	if string(structured) != `[{"type":"text","text":"hi"}]` {
		t.Errorf("block form marshals to %s", structured)
	}
}

func TestMessageContent_Rejected(t *testing.T) {
	var c MessageContent
	if err := json.Unmarshal([]byte(`42`), &c); err == nil {
		t.Error("numeric content accepted")
	}
}

func TestToolResultContent(t *testing.T) {
	var c ToolResultContent
	if err := json.Unmarshal([]byte(`"string result"`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !c.IsText || c.Text != "string result" {
		t.Errorf("content = %+v", c)
	}

	var c2 ToolResultContent
	if err := json.Unmarshal([]byte(`[{"type":"text","text":"block result"}]`), &c2); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c2.IsText || len(c2.Blocks) != 1 {
		t.Errorf("content = %+v", c2)
	}
}
