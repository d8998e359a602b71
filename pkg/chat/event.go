package chat

import (
	"bufio"
	"chef-agent-api/pkg/agent"
	"encoding/json"
)

const (
	EventData       = "data"
	EventStatus     = "status"
	EventToolCall   = "tool_call"
	EventToolResult = "tool_result"
	EventRecipe     = "recipe"
	EventInterrupt  = "interrupt"
	EventError      = "error"
)

const statusCreatingRecipe = "Creating your recipe..."

type (
	ToolCallPayload struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	ToolResultPayload struct {
		ToolCallID string `json:"tool_call_id"`
		Name       string `json:"name"`
		Content    string `json:"content"`
	}

	InterruptPayload struct {
		ActionRequests []agent.ActionRequest `json:"action_requests"`
		ReviewConfigs  []agent.ReviewConfig  `json:"review_configs"`
	}

	// Event is one server-sent event of a chat stream.
	Event struct {
		Type       string             `json:"type"`
		Data       string             `json:"data,omitempty"`
		ThreadID   string             `json:"thread_id,omitempty"`
		Status     string             `json:"status,omitempty"`
		ToolCall   *ToolCallPayload   `json:"tool_call,omitempty"`
		ToolResult *ToolResultPayload `json:"tool_result,omitempty"`
		Recipes    []map[string]any   `json:"recipes,omitempty"`
		Interrupt  *InterruptPayload  `json:"interrupt,omitempty"`
		Error      string             `json:"error,omitempty"`
	}
)

// sseWriter writes events as "data: <json>\n\n" frames. After the first
// write failure the client is considered gone and later events are dropped.
type sseWriter struct {
	w    *bufio.Writer
	gone bool
}

func (s *sseWriter) send(e Event) {
	if s.gone {
		return
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	if _, err := s.w.WriteString("data: " + string(raw) + "\n\n"); err != nil {
		s.gone = true
		return
	}
	if err := s.w.Flush(); err != nil {
		s.gone = true
	}
}
