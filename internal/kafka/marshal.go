package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
)

func DecodeEnvelope(b []byte) (ledger.Envelope, error) {
	var env ledger.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// UnwrapPayload decodes the event-specific payload of an envelope.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
