// Package hooks bridges agent host hook events to a running verdict server:
// submitted prompts and final assistant messages are sent for processing.
package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Supported hook events.
const (
	EventSubmit = "submit" // UserPromptSubmit
	EventStop   = "stop"   // Stop
)

// Handle reads HookInput from stdin and forwards the event's text to the
// server. A server that is down is not an error: hooks must never block the
// host. It returns the keys recorded.
func Handle(ctx context.Context, client *Client, event string, stdin io.Reader) ([]string, error) {
	if event != EventSubmit && event != EventStop {
		return nil, fmt.Errorf("unknown hook event: %s", event)
	}

	var input HookInput
	if err := json.NewDecoder(stdin).Decode(&input); err != nil {
		return nil, fmt.Errorf("decode stdin: %w", err)
	}

	text, role, ok := input.turn(event)
	if !ok {
		return nil, nil
	}
	if !client.Healthy(ctx) {
		return nil, nil
	}
	return client.Process(ctx, text, input.SessionID, role)
}
