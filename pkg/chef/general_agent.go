package chef

import (
	"chef-agent-api/pkg/agent"
	"chef-agent-api/pkg/recipe"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
)

const (
	msgSaveNoUser    = "Cannot save recipe: user not identified. Please log in."
	msgPresented     = "Recipes were presented to the user."
	msgSaveFailedFmt = "Failed to save recipe: %v"
)

type GeneralAgentConfig struct {
	Model         agent.Model
	Chef          *agent.Agent
	RecipeService recipe.RecipeService
	Checkpointer  agent.Checkpointer
	Locker        agent.ThreadLocker
	InterruptOn   []string
	HistoryLimit  int
}

// NewGeneralAgent builds the conversational agent that delegates recipe
// creation to the chef and gates saving behind a user decision.
func NewGeneralAgent(cfg GeneralAgentConfig) *agent.Agent {
	return agent.New(agent.Config{
		Name:         "general",
		SystemPrompt: GeneralPrompt,
		Model:        cfg.Model,
		Tools: []agent.Tool{
			NewCallChefTool(cfg.Chef),
			NewPresentRecipesTool(),
			NewSaveRecipeTool(cfg.RecipeService),
		},
		Checkpointer: cfg.Checkpointer,
		Locker:       cfg.Locker,
		InterruptOn:  cfg.InterruptOn,
		HistoryLimit: cfg.HistoryLimit,
	})
}

var presentRecipesParams = json.RawMessage(`{
	"type": "object",
	"properties": {"recipes": {"type": "array", "items": {"type": "object"}, "description": "The recipes array returned by call_chef_agent"}},
	"required": ["recipes"]
}`)

// NewPresentRecipesTool is the approval gate: it only runs once the user has
// approved, and then has nothing left to do.
func NewPresentRecipesTool() agent.Tool {
	return agent.NewTool(ToolPresentRecipes,
		"Present the created recipes to the user so they can choose to save one or none. Call this immediately after call_chef_agent returns.",
		presentRecipesParams,
		func(context.Context, json.RawMessage) (string, error) {
			return msgPresented, nil
		})
}

var saveRecipeParams = json.RawMessage(`{
	"type": "object",
	"properties": {"recipe": {"type": "object", "description": "Full recipe: name, description, prep_time, cook_time, total_time, servings, difficulty, ingredients, instructions, tags, optional image_url"}},
	"required": ["recipe"]
}`)

// NewSaveRecipeTool saves a recipe for the user of the current run. Failures
// are reported to the model as text.
func NewSaveRecipeTool(recipeService recipe.RecipeService) agent.Tool {
	return agent.NewTool(ToolSaveRecipe,
		"Save a recipe to the user's collection. Call this when the user asks to save one of the recipes you just showed.",
		saveRecipeParams,
		func(ctx context.Context, args json.RawMessage) (string, error) {
			rc, ok := agent.RunContextFrom(ctx)
			if !ok || rc.UserID == 0 {
				return msgSaveNoUser, nil
			}

			var in struct {
				Recipe map[string]any `json:"recipe"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return fmt.Sprintf(msgSaveFailedFmt, err), nil
			}
			if in.Recipe == nil {
				return fmt.Sprintf(msgSaveFailedFmt, "recipe is missing"), nil
			}

			saved, err := recipeService.SaveFromAgent(ctx, in.Recipe, rc.UserID)
			if err != nil {
				log.Errorf("failed to save recipe for user %d: %v", rc.UserID, err)
				return fmt.Sprintf(msgSaveFailedFmt, err), nil
			}
			log.Infof("recipe saved: id=%s name=%s user_id=%d", saved.ID, saved.Name, rc.UserID)
			return fmt.Sprintf("Recipe saved: “%s” (id: %s).", saved.Name, saved.ID), nil
		})
}
