package eventbus

import (
	"encoding/json"
	"fmt"

	"github.com/sellerhub/payouts/pkg/domain/common"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// decodeEvent turns a wire envelope back into a concrete event using
// the registered type factories.
func decodeEvent(raw []byte, types map[string]func() common.Event) (common.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	factory, ok := types[env.Type]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	evt := factory()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", env.Type, err)
	}
	return evt, nil
}
