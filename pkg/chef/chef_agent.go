package chef

import (
	"chef-agent-api/pkg/agent"
	"chef-agent-api/pkg/websearch"
	"context"
	"encoding/json"
	"errors"
	"strings"
)

const (
	ToolCallChef       = "call_chef_agent"
	ToolPresentRecipes = "present_recipes_for_save"
	ToolSaveRecipe     = "save_recipe"
	ToolWebSearch      = "web_search"
)

// RecipeResponse is the structured answer of the chef agent.
type RecipeResponse struct {
	Recipes   []map[string]any `json:"recipes"`
	Source    string           `json:"source"`
	Reasoning string           `json:"reasoning"`
}

// NewChefAgent builds the stateless recipe creator. It answers in JSON.
func NewChefAgent(model agent.Model, searcher websearch.Searcher) *agent.Agent {
	return agent.New(agent.Config{
		Name:          "chef",
		SystemPrompt:  ChefPrompt,
		Model:         model,
		Tools:         []agent.Tool{NewWebSearchTool(searcher)},
		MaxIterations: 6,
		JSONResponse:  true,
	})
}

var webSearchParams = json.RawMessage(`{
	"type": "object",
	"properties": {"text_query": {"type": "string", "description": "What to search for"}},
	"required": ["text_query"]
}`)

func NewWebSearchTool(searcher websearch.Searcher) agent.Tool {
	return agent.NewTool(ToolWebSearch, "Search the web for recipes by text query", webSearchParams,
		func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				TextQuery string `json:"text_query"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			if strings.TrimSpace(in.TextQuery) == "" {
				return "", errors.New("text_query is required")
			}

			res, err := searcher.Search(ctx, in.TextQuery)
			switch {
			case errors.Is(err, websearch.ErrTimeout):
				return `{"error":"search timed out","results":[]}`, nil
			case errors.Is(err, websearch.ErrDisabled):
				return `{"error":"web search is unavailable, answer from your own knowledge","results":[]}`, nil
			case err != nil:
				return "", err
			}
			out, err := json.Marshal(res)
			if err != nil {
				return "", err
			}
			return string(out), nil
		})
}

var callChefParams = json.RawMessage(`{
	"type": "object",
	"properties": {"message": {"type": "string", "description": "What the user wants cooked, with ingredients and preferences"}},
	"required": ["message"]
}`)

// NewCallChefTool exposes the chef agent to the general agent. The structured
// response is returned as JSON; when it cannot be parsed the chef's raw text is
// returned instead.
func NewCallChefTool(chef *agent.Agent) agent.Tool {
	return agent.NewTool(ToolCallChef, "Call the chef agent to create recipes from the user's ingredients and instructions.", callChefParams,
		func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}

			answer, err := chef.Invoke(ctx, []agent.Message{agent.UserMessage(in.Message)})
			if err != nil {
				return "", err
			}
			if parsed, ok := ParseRecipeResponse(answer.Content); ok {
				out, err := json.MarshalIndent(parsed, "", "  ")
				if err == nil {
					return string(out), nil
				}
			}
			return answer.Content, nil
		})
}

// ParseRecipeResponse reads a chef answer, tolerating text around the JSON
// object.
func ParseRecipeResponse(content string) (*RecipeResponse, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	var res RecipeResponse
	if err := json.Unmarshal([]byte(content[start:end+1]), &res); err != nil {
		return nil, false
	}
	if len(res.Recipes) == 0 {
		return nil, false
	}
	return &res, true
}
