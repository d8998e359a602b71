package chat

import (
	"chef-agent-api/pkg/agent"
	"chef-agent-api/pkg/chef"
	"chef-agent-api/pkg/recipe"
	"encoding/json"
	"strings"
)

// tool results the client never sees
var hiddenToolResults = map[string]struct{}{
	chef.ToolPresentRecipes: {},
	chef.ToolSaveRecipe:     {},
}

// shaper turns agent events into client events and keeps what has to be
// persisted once the run is over.
type shaper struct {
	threadID string
	send     func(Event)

	// text of the current model step while it may still be recipe JSON
	pending   strings.Builder
	streaming bool

	text    strings.Builder
	recipes []map[string]any
}

func newShaper(threadID string, send func(Event)) *shaper {
	return &shaper{threadID: threadID, send: send}
}

func (s *shaper) handle(e agent.Event) {
	switch e.Type {
	case agent.EventToken:
		s.token(e.Text)
	case agent.EventModelEnd:
		s.endStep()
	case agent.EventToolCall:
		s.toolCall(e.ToolCall)
	case agent.EventToolResult:
		s.toolResult(e.ToolResult)
	case agent.EventInterrupt:
		s.send(Event{Type: EventInterrupt, Interrupt: &InterruptPayload{
			ActionRequests: e.Interrupt.ActionRequests,
			ReviewConfigs:  e.Interrupt.ReviewConfigs,
		}})
	}
}

// token forwards text as it arrives, except a step that opens with "{" is
// held back until the step ends, since it may be raw recipe JSON.
func (s *shaper) token(tok string) {
	if s.streaming {
		s.emitText(tok)
		return
	}
	s.pending.WriteString(tok)
	head := strings.TrimLeft(s.pending.String(), " \t\r\n")
	if head == "" || head[0] == '{' {
		return
	}
	s.streaming = true
	held := s.pending.String()
	s.pending.Reset()
	s.emitText(held)
}

func (s *shaper) endStep() {
	held := s.pending.String()
	s.pending.Reset()
	s.streaming = false
	if held == "" || isRecipeJSON(held) {
		return
	}
	s.emitText(held)
}

func (s *shaper) emitText(text string) {
	if text == "" {
		return
	}
	s.text.WriteString(text)
	s.send(Event{Type: EventData, Data: text, ThreadID: s.threadID})
}

func (s *shaper) toolCall(call *agent.ToolCall) {
	if call.Name == chef.ToolCallChef {
		s.send(Event{Type: EventStatus, Status: statusCreatingRecipe})
	}
	s.send(Event{Type: EventToolCall, ToolCall: &ToolCallPayload{
		ID:        call.ID,
		Name:      call.Name,
		Arguments: call.ArgsOrEmpty(),
	}})
}

func (s *shaper) toolResult(result *agent.Message) {
	if _, hidden := hiddenToolResults[result.Name]; hidden {
		return
	}
	if result.Name == chef.ToolCallChef {
		// raw chef output never reaches the client; the latest recipe wins
		if parsed, ok := chef.ParseRecipeResponse(result.Content); ok {
			first := recipe.NormalizePayload(parsed.Recipes[0])
			s.recipes = []map[string]any{first}
			s.send(Event{Type: EventRecipe, Recipes: s.recipes})
		}
		return
	}
	s.send(Event{Type: EventToolResult, ToolResult: &ToolResultPayload{
		ToolCallID: result.ToolCallID,
		Name:       result.Name,
		Content:    result.Content,
	}})
}

// content is what gets persisted as the assistant message. A turn that only
// produced a recipe is stored under the recipe's name.
func (s *shaper) content() string {
	text := strings.TrimSpace(s.text.String())
	if text == "" && len(s.recipes) > 0 {
		if name, ok := s.recipes[0]["name"].(string); ok {
			return name
		}
	}
	return text
}

func isRecipeJSON(text string) bool {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, `{"recipes"`) {
		return true
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return false
	}
	_, ok := obj["recipes"]
	return ok
}
