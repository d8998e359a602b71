package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	MessageSuccessCreateRecipe = "recipe created successfully"
	MessageSuccessGetRecipes   = "success get recipes"
	MessageSuccessGetRecipe    = "success get recipe detail"
	MessageSuccessUpdateRecipe = "recipe updated successfully"
	MessageSuccessDeleteRecipe = "recipe deleted successfully"
	MessageSuccessShareRecipe  = "recipe shared successfully"

	MessageFailedCreateRecipe = "failed to create recipe"
	MessageFailedGetRecipes   = "failed to get recipes"
	MessageFailedGetRecipe    = "failed to get recipe detail"
	MessageFailedUpdateRecipe = "failed to update recipe"
	MessageFailedDeleteRecipe = "failed to delete recipe"
	MessageFailedShareRecipe  = "failed to share recipe"

	ErrRecipeNotFound = errors.New("recipe not found")
	ErrRecipeInvalid  = errors.New("recipe payload is invalid")
)

// DescriptionAliases are instruction keys models use instead of "description".
var DescriptionAliases = []string{"desc", "descr", "step", "text", "instruction"}

type (
	IngredientRequest struct {
		Name     string `json:"name" validate:"required"`
		Quantity string `json:"quantity"`
	}

	InstructionRequest struct {
		StepNumber  int     `json:"step_number" validate:"min=1"`
		Description string  `json:"description" validate:"required"`
		TimeMinutes int     `json:"time_minutes" validate:"min=0"`
		ChefTip     *string `json:"chef_tip,omitempty"`
	}

	CreateRecipeRequest struct {
		Name         string               `json:"name" validate:"required,max=255"`
		Description  string               `json:"description" validate:"required"`
		PrepTime     int                  `json:"prep_time" validate:"min=0"`
		CookTime     int                  `json:"cook_time" validate:"min=0"`
		TotalTime    int                  `json:"total_time" validate:"min=0"`
		Servings     int                  `json:"servings" validate:"min=1"`
		Difficulty   string               `json:"difficulty" validate:"required,max=20"`
		Ingredients  []IngredientRequest  `json:"ingredients" validate:"dive"`
		Instructions []InstructionRequest `json:"instructions" validate:"dive"`
		Tags         []string             `json:"tags"`
		ImageURL     *string              `json:"image_url" validate:"omitempty,max=1024"`
	}

	// UpdateRecipeRequest only changes the fields that are present.
	UpdateRecipeRequest struct {
		Name         *string               `json:"name" validate:"omitempty,max=255"`
		Description  *string               `json:"description"`
		PrepTime     *int                  `json:"prep_time" validate:"omitempty,min=0"`
		CookTime     *int                  `json:"cook_time" validate:"omitempty,min=0"`
		TotalTime    *int                  `json:"total_time" validate:"omitempty,min=0"`
		Servings     *int                  `json:"servings" validate:"omitempty,min=1"`
		Difficulty   *string               `json:"difficulty" validate:"omitempty,max=20"`
		Ingredients  *[]IngredientRequest  `json:"ingredients" validate:"omitempty,dive"`
		Instructions *[]InstructionRequest `json:"instructions" validate:"omitempty,dive"`
		Tags         *[]string             `json:"tags"`
		ImageURL     *string               `json:"image_url" validate:"omitempty,max=1024"`
	}

	ShareRecipeRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	RecipeResponse struct {
		ID           string               `json:"id"`
		Name         string               `json:"name"`
		Description  string               `json:"description"`
		PrepTime     int                  `json:"prep_time"`
		CookTime     int                  `json:"cook_time"`
		TotalTime    int                  `json:"total_time"`
		Servings     int                  `json:"servings"`
		Difficulty   string               `json:"difficulty"`
		Ingredients  []IngredientRequest  `json:"ingredients"`
		Instructions []InstructionRequest `json:"instructions"`
		Tags         []string             `json:"tags"`
		ImageURL     *string              `json:"image_url"`
		CreatedAt    time.Time            `json:"created_at"`
		UpdatedAt    time.Time            `json:"updated_at"`
	}
)

// UnmarshalJSON accepts the description under one of the alias keys when
// "description" itself is missing.
func (i *InstructionRequest) UnmarshalJSON(data []byte) error {
	type plain InstructionRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if _, ok := raw["description"]; !ok {
		for _, alt := range DescriptionAliases {
			v, ok := raw[alt]
			if !ok || v == nil {
				continue
			}
			if s, ok := v.(string); ok {
				p.Description = s
			} else {
				p.Description = fmt.Sprint(v)
			}
			break
		}
	}

	*i = InstructionRequest(p)
	return nil
}
