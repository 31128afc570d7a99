package cascade

import (
	"encoding/binary"
	"encoding/json"
	"testing"
)

func TestEnvelopeEncoder(t *testing.T) {
	framed, err := EnvelopeEncoder{}.Encode(SubmitMessage{
		SessionID:   "sess-1",
		Message:     "hello",
		AccessToken: "tok",
		Model:       "claude-sonnet-4-5",
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if framed[0] != 0 {
		t.Errorf("flag byte = %d", framed[0])
	}
	size := binary.BigEndian.Uint32(framed[1:5])
	if int(size) != len(framed)-5 {
		t.Errorf("length prefix = %d, payload = %d", size, len(framed)-5)
	}

	var msg SubmitMessage
	if err := json.Unmarshal(framed[5:], &msg); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if msg.SessionID != "sess-1" || msg.Message != "hello" || msg.Model != "claude-sonnet-4-5" {
		t.Errorf("round trip = %+v", msg)
	}
}

func TestDecodeEnvelope(t *testing.T) {
	framed, err := EnvelopeEncoder{}.Encode(SubmitMessage{SessionID: "s", Message: "m"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	payload, err := DecodeEnvelope(framed)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	var msg SubmitMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.SessionID != "s" {
		t.Errorf("session id = %q", msg.SessionID)
	}

	if _, err := DecodeEnvelope([]byte{0, 0}); err == nil {
		t.Error("short envelope accepted")
	}
	if _, err := DecodeEnvelope([]byte{0, 0, 0, 0, 99, 'x'}); err == nil {
		t.Error("overlong length prefix accepted")
	}
}

func TestStepText(t *testing.T) {
	if got := (Step{Response: "r", Message: "m"}).Text(); got != "r" {
		t.Errorf("Text = %q, response should win", got)
	}
	if got := (Step{Message: "m"}).Text(); got != "m" {
		t.Errorf("Text = %q", got)
	}
}
