package recipe

import (
	"bytes"
	"chef-agent-api/domain"
	"chef-agent-api/entities"
	"chef-agent-api/internal/utils/mailing"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// saves of the same name inside this window return the earlier recipe
const agentSaveDedupeWindow = 2 * time.Minute

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID uint) (domain.RecipeResponse, error)
		GetRecipes(ctx context.Context, userID uint) ([]domain.RecipeResponse, error)
		GetRecipe(ctx context.Context, recipeID string, userID uint) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID uint) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, recipeID string, userID uint) error
		ShareRecipe(ctx context.Context, recipeID string, email string, userID uint) error
		SaveFromAgent(ctx context.Context, payload map[string]any, userID uint) (domain.RecipeResponse, error)
	}

	recipeService struct {
		recipeRepository RecipeRepository
		validator        *validator.Validate
		mailer           mailing.Mailer
		now              func() time.Time
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	validator *validator.Validate,
	mailer mailing.Mailer,
) RecipeService {
	return &recipeService{
		recipeRepository: recipeRepository,
		validator:        validator,
		mailer:           mailer,
		now:              time.Now,
	}
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID uint) (domain.RecipeResponse, error) {
	recipe := toEntity(req, userID)
	if err := s.recipeRepository.CreateRecipe(ctx, recipe); err != nil {
		return domain.RecipeResponse{}, err
	}
	return ToResponse(recipe), nil
}

func (s *recipeService) GetRecipes(ctx context.Context, userID uint) ([]domain.RecipeResponse, error) {
	recipes, err := s.recipeRepository.GetRecipes(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := make([]domain.RecipeResponse, 0, len(recipes))
	for i := range recipes {
		res = append(res, ToResponse(&recipes[i]))
	}
	return res, nil
}

func (s *recipeService) GetRecipe(ctx context.Context, recipeID string, userID uint) (domain.RecipeResponse, error) {
	recipe, err := s.getOwned(ctx, recipeID, userID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	return ToResponse(recipe), nil
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID uint) (domain.RecipeResponse, error) {
	recipe, err := s.getOwned(ctx, recipeID, userID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	if req.Name != nil {
		recipe.Name = *req.Name
	}
	if req.Description != nil {
		recipe.Description = *req.Description
	}
	if req.PrepTime != nil {
		recipe.PrepTime = *req.PrepTime
	}
	if req.CookTime != nil {
		recipe.CookTime = *req.CookTime
	}
	if req.TotalTime != nil {
		recipe.TotalTime = *req.TotalTime
	}
	if req.Servings != nil {
		recipe.Servings = *req.Servings
	}
	if req.Difficulty != nil {
		recipe.Difficulty = *req.Difficulty
	}
	if req.Ingredients != nil {
		recipe.Ingredients = datatypes.NewJSONType(toIngredients(*req.Ingredients))
	}
	if req.Instructions != nil {
		recipe.Instructions = datatypes.NewJSONType(toInstructions(*req.Instructions))
	}
	if req.Tags != nil {
		recipe.Tags = datatypes.JSONSlice[string](*req.Tags)
	}
	if req.ImageURL != nil {
		recipe.ImageURL = req.ImageURL
	}

	if err := s.recipeRepository.UpdateRecipe(ctx, recipe); err != nil {
		return domain.RecipeResponse{}, err
	}
	return ToResponse(recipe), nil
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, userID uint) error {
	id, err := uuid.Parse(recipeID)
	if err != nil {
		return domain.ErrRecipeNotFound
	}
	if err := s.recipeRepository.DeleteRecipe(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}
	return nil
}

func (s *recipeService) ShareRecipe(ctx context.Context, recipeID string, email string, userID uint) error {
	recipe, err := s.getOwned(ctx, recipeID, userID)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	if err := shareTemplate.Execute(&body, ToResponse(recipe)); err != nil {
		return err
	}
	return s.mailer.SendMail(email, "Recipe: "+recipe.Name, body.String())
}

// SaveFromAgent stores a recipe proposed by the agent. The payload may come in
// either the chef or the storage shape.
func (s *recipeService) SaveFromAgent(ctx context.Context, payload map[string]any, userID uint) (domain.RecipeResponse, error) {
	normalized := NormalizePayload(payload)

	raw, err := json.Marshal(normalized)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	var req domain.CreateRecipeRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return domain.RecipeResponse{}, fmt.Errorf("%w: %v", domain.ErrRecipeInvalid, err)
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return domain.RecipeResponse{}, fmt.Errorf("%w: %v", domain.ErrRecipeInvalid, err)
	}

	existing, err := s.recipeRepository.FindRecentByName(ctx, userID, req.Name, s.now().Add(-agentSaveDedupeWindow))
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	if existing != nil {
		log.Infof("recipe %s already saved for user %d, reusing", existing.ID, userID)
		return ToResponse(existing), nil
	}

	return s.CreateRecipe(ctx, req, userID)
}

func (s *recipeService) getOwned(ctx context.Context, recipeID string, userID uint) (*entities.Recipe, error) {
	id, err := uuid.Parse(recipeID)
	if err != nil {
		return nil, domain.ErrRecipeNotFound
	}
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, err
	}
	return recipe, nil
}

func toEntity(req domain.CreateRecipeRequest, userID uint) *entities.Recipe {
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	return &entities.Recipe{
		UserID:       userID,
		Name:         req.Name,
		Description:  req.Description,
		PrepTime:     req.PrepTime,
		CookTime:     req.CookTime,
		TotalTime:    req.TotalTime,
		Servings:     req.Servings,
		Difficulty:   req.Difficulty,
		Ingredients:  datatypes.NewJSONType(toIngredients(req.Ingredients)),
		Instructions: datatypes.NewJSONType(toInstructions(req.Instructions)),
		Tags:         datatypes.JSONSlice[string](tags),
		ImageURL:     req.ImageURL,
	}
}

func toIngredients(items []domain.IngredientRequest) []entities.Ingredient {
	res := make([]entities.Ingredient, 0, len(items))
	for _, it := range items {
		res = append(res, entities.Ingredient{Name: it.Name, Quantity: it.Quantity})
	}
	return res
}

func toInstructions(items []domain.InstructionRequest) []entities.Instruction {
	res := make([]entities.Instruction, 0, len(items))
	for _, it := range items {
		step := entities.Instruction{
			StepNumber:  it.StepNumber,
			Description: it.Description,
			TimeMinutes: it.TimeMinutes,
		}
		if it.ChefTip != nil {
			step.ChefTip = *it.ChefTip
		}
		res = append(res, step)
	}
	return res
}

func ToResponse(recipe *entities.Recipe) domain.RecipeResponse {
	ingredients := make([]domain.IngredientRequest, 0)
	for _, it := range recipe.Ingredients.Data() {
		ingredients = append(ingredients, domain.IngredientRequest{Name: it.Name, Quantity: it.Quantity})
	}

	instructions := make([]domain.InstructionRequest, 0)
	for _, it := range recipe.Instructions.Data() {
		step := domain.InstructionRequest{
			StepNumber:  it.StepNumber,
			Description: it.Description,
			TimeMinutes: it.TimeMinutes,
		}
		if it.ChefTip != "" {
			tip := it.ChefTip
			step.ChefTip = &tip
		}
		instructions = append(instructions, step)
	}

	tags := []string(recipe.Tags)
	if tags == nil {
		tags = []string{}
	}

	return domain.RecipeResponse{
		ID:           recipe.ID.String(),
		Name:         recipe.Name,
		Description:  recipe.Description,
		PrepTime:     recipe.PrepTime,
		CookTime:     recipe.CookTime,
		TotalTime:    recipe.TotalTime,
		Servings:     recipe.Servings,
		Difficulty:   recipe.Difficulty,
		Ingredients:  ingredients,
		Instructions: instructions,
		Tags:         tags,
		ImageURL:     recipe.ImageURL,
		CreatedAt:    recipe.CreatedAt,
		UpdatedAt:    recipe.UpdatedAt,
	}
}

var shareTemplate = template.Must(template.New("share").Parse(`<h2>{{.Name}}</h2>
<p>{{.Description}}</p>
<p>Prep {{.PrepTime}} min &middot; Cook {{.CookTime}} min &middot; Total {{.TotalTime}} min &middot; Serves {{.Servings}}</p>
<h3>Ingredients</h3>
<ul>{{range .Ingredients}}<li>{{.Quantity}} {{.Name}}</li>{{end}}</ul>
<h3>Instructions</h3>
<ol>{{range .Instructions}}<li>{{.Description}}{{if .ChefTip}} <em>Tip: {{.ChefTip}}</em>{{end}}</li>{{end}}</ol>
`))
