package hooks

// HookInput is the JSON an agent host sends on stdin to hook handlers.
// Different events populate different subsets.
type HookInput struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	CWD            string `json:"cwd"`
	HookEventName  string `json:"hook_event_name"`

	// UserPromptSubmit
	Prompt string `json:"prompt,omitempty"`

	// Stop
	StopHookActive       bool   `json:"stop_hook_active,omitempty"`
	LastAssistantMessage string `json:"last_assistant_message,omitempty"`
}

// turn returns the text and role an event contributes, or ok=false when the
// event carries nothing to process.
func (h *HookInput) turn(event string) (text, role string, ok bool) {
	switch event {
	case EventSubmit:
		return h.Prompt, "user", h.Prompt != ""
	case EventStop:
		// A stop hook that itself continued the turn has already been seen.
		if h.StopHookActive {
			return "", "", false
		}
		return h.LastAssistantMessage, "assistant", h.LastAssistantMessage != ""
	}
	return "", "", false
}
