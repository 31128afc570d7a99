package cascade

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// SubmitMessage is the field contract for the submission payload.
type SubmitMessage struct {
	SessionID   string `json:"cascadeId"`
	Message     string `json:"message"`
	AccessToken string `json:"accessToken,omitempty"`
	Model       string `json:"model,omitempty"`
}

// Encoder produces the language server's wire format for a message
// submission. The serialization itself is opaque to the orchestrator.
type Encoder interface {
	Encode(msg SubmitMessage) ([]byte, error)
}

// EnvelopeEncoder frames the payload in a Connect envelope: one flag
// byte, a big-endian 4-byte length, then the serialized message.
type EnvelopeEncoder struct{}

func (EnvelopeEncoder) Encode(msg SubmitMessage) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal submit message: %w", err)
	}

	framed := make([]byte, 5+len(payload))
	binary.BigEndian.PutUint32(framed[1:5], uint32(len(payload)))
	copy(framed[5:], payload)
	return framed, nil
}

// DecodeEnvelope unwraps a Connect envelope. Used by tests and by the
// trajectory reader when the server responds in framed form.
func DecodeEnvelope(framed []byte) ([]byte, error) {
	if len(framed) < 5 {
		return nil, fmt.Errorf("envelope too short: %d bytes", len(framed))
	}
	size := binary.BigEndian.Uint32(framed[1:5])
	if int(size) > len(framed)-5 {
		return nil, fmt.Errorf("envelope length %d exceeds payload %d", size, len(framed)-5)
	}
	return framed[5 : 5+size], nil
}
