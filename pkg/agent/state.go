package agent

import "encoding/json"

// ActionRequest describes one gated tool call waiting for a human decision.
type ActionRequest struct {
	ToolCallID  string          `json:"tool_call_id"`
	Name        string          `json:"name"`
	Args        json.RawMessage `json:"args"`
	Description string          `json:"description"`
}

type ReviewConfig struct {
	ActionName       string   `json:"action_name"`
	AllowedDecisions []string `json:"allowed_decisions"`
}

// Interrupt is the pending approval of a paused thread.
type Interrupt struct {
	MessageID      string          `json:"message_id"`
	ActionRequests []ActionRequest `json:"action_requests"`
	ReviewConfigs  []ReviewConfig  `json:"review_configs"`
}

// State is what the checkpointer persists per thread.
type State struct {
	Messages []Message `json:"messages"`
	Pending  *Interrupt `json:"pending,omitempty"`
}

func (s *State) Paused() bool {
	return s != nil && s.Pending != nil
}
