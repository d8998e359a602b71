package agent

import (
	"encoding/json"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentPart is one element of a multimodal user turn.
type ContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// ToolCall is the single representation of a tool invocation requested by
// the model, whatever shape the provider used on the wire.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type Message struct {
	ID         string        `json:"id"`
	Role       Role          `json:"role"`
	Content    string        `json:"content,omitempty"`
	Parts      []ContentPart `json:"parts,omitempty"`
	ToolCalls  []ToolCall    `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	Name       string        `json:"name,omitempty"`
}

func UserMessage(text string) Message {
	return Message{ID: uuid.NewString(), Role: RoleUser, Content: text}
}

// UserMessageWithImage builds a text + image turn. imageURL is usually a
// base64 data URL.
func UserMessageWithImage(text, imageURL string) Message {
	return Message{
		ID:      uuid.NewString(),
		Role:    RoleUser,
		Content: text,
		Parts: []ContentPart{
			{Type: "text", Text: text},
			{Type: "image_url", ImageURL: imageURL},
		},
	}
}

func ToolResultMessage(call ToolCall, content string) Message {
	return Message{
		ID:         uuid.NewString(),
		Role:       RoleTool,
		Content:    content,
		ToolCallID: call.ID,
		Name:       call.Name,
	}
}

func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// ArgsOrEmpty returns the arguments, or an empty object when none were sent.
func (c ToolCall) ArgsOrEmpty() json.RawMessage {
	if len(c.Arguments) == 0 {
		return json.RawMessage(`{}`)
	}
	return c.Arguments
}
