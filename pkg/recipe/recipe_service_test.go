package recipe

import (
	"chef-agent-api/domain"
	"chef-agent-api/entities"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRecipeRepository struct {
	recipes []*entities.Recipe
	clock   func() time.Time
}

func (f *fakeRecipeRepository) CreateRecipe(_ context.Context, recipe *entities.Recipe) error {
	recipe.ID = uuid.New()
	recipe.CreatedAt = f.clock()
	recipe.UpdatedAt = recipe.CreatedAt
	f.recipes = append(f.recipes, recipe)
	return nil
}

func (f *fakeRecipeRepository) GetRecipeByID(_ context.Context, id uuid.UUID, userID uint) (*entities.Recipe, error) {
	for _, r := range f.recipes {
		if r.ID == id && r.UserID == userID {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRecipeRepository) GetRecipes(_ context.Context, userID uint) ([]entities.Recipe, error) {
	var res []entities.Recipe
	for _, r := range f.recipes {
		if r.UserID == userID {
			res = append(res, *r)
		}
	}
	return res, nil
}

func (f *fakeRecipeRepository) UpdateRecipe(_ context.Context, _ *entities.Recipe) error {
	return nil
}

func (f *fakeRecipeRepository) DeleteRecipe(_ context.Context, id uuid.UUID, userID uint) error {
	for i, r := range f.recipes {
		if r.ID == id && r.UserID == userID {
			f.recipes = append(f.recipes[:i], f.recipes[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRecipeRepository) FindRecentByName(_ context.Context, userID uint, name string, since time.Time) (*entities.Recipe, error) {
	for _, r := range f.recipes {
		if r.UserID == userID && r.Name == name && !r.CreatedAt.Before(since) {
			return r, nil
		}
	}
	return nil, nil
}

type fakeMailer struct {
	to, subject, body string
	err               error
}

func (m *fakeMailer) SendMail(to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return m.err
}

func newTestService(t *testing.T) (*recipeService, *fakeRecipeRepository, *fakeMailer, *time.Time) {
	t.Helper()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeRecipeRepository{clock: func() time.Time { return now }}
	mailer := &fakeMailer{}
	svc := NewRecipeService(repo, validator.New(), mailer).(*recipeService)
	svc.now = func() time.Time { return now }
	return svc, repo, mailer, &now
}

func sampleCreateRequest() domain.CreateRecipeRequest {
	return domain.CreateRecipeRequest{
		Name:        "Pasta",
		Description: "Quick pasta",
		PrepTime:    5,
		CookTime:    10,
		TotalTime:   15,
		Servings:    2,
		Difficulty:  "easy",
		Ingredients: []domain.IngredientRequest{{Name: "pasta", Quantity: "200g"}},
		Instructions: []domain.InstructionRequest{
			{StepNumber: 1, Description: "boil", TimeMinutes: 10},
		},
	}
}

func TestRecipeService_OwnershipIsNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRecipe(ctx, sampleCreateRequest(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{}, created.Tags)

	_, err = svc.GetRecipe(ctx, created.ID, 2)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	err = svc.DeleteRecipe(ctx, created.ID, 2)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	_, err = svc.GetRecipe(ctx, "not-a-uuid", 1)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	require.NoError(t, svc.DeleteRecipe(ctx, created.ID, 1))
	_, err = svc.GetRecipe(ctx, created.ID, 1)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestRecipeService_UpdateOnlyTouchesSuppliedFields(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRecipe(ctx, sampleCreateRequest(), 1)
	require.NoError(t, err)

	servings := 4
	tags := []string{"italian"}
	updated, err := svc.UpdateRecipe(ctx, created.ID, domain.UpdateRecipeRequest{
		Servings: &servings,
		Tags:     &tags,
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, 4, updated.Servings)
	assert.Equal(t, []string{"italian"}, updated.Tags)
	assert.Equal(t, "Pasta", updated.Name)
	assert.Equal(t, 15, updated.TotalTime)
	require.Len(t, updated.Instructions, 1)
	assert.Equal(t, "boil", updated.Instructions[0].Description)
}

func TestRecipeService_SaveFromAgentNormalizes(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	res, err := svc.SaveFromAgent(context.Background(), map[string]any{
		"name":            "Omelette",
		"ingredients":     []any{"eggs", "butter"},
		"instructions":    []any{"whisk", "fry"},
		"time_to_prepare": float64(12),
	}, 7)
	require.NoError(t, err)

	assert.Equal(t, "Omelette", res.Description)
	assert.Equal(t, 12, res.TotalTime)
	assert.Equal(t, 1, res.Servings)
	assert.Equal(t, "medium", res.Difficulty)
	require.Len(t, res.Ingredients, 2)
	assert.Equal(t, "eggs", res.Ingredients[0].Name)
	require.Len(t, res.Instructions, 2)
	assert.Equal(t, 2, res.Instructions[1].StepNumber)
	require.Len(t, repo.recipes, 1)
	assert.Equal(t, uint(7), repo.recipes[0].UserID)
}

func TestRecipeService_SaveFromAgentDedupes(t *testing.T) {
	svc, repo, _, now := newTestService(t)
	ctx := context.Background()
	payload := map[string]any{"name": "Curry", "total_time": float64(40)}

	first, err := svc.SaveFromAgent(ctx, payload, 1)
	require.NoError(t, err)
	second, err := svc.SaveFromAgent(ctx, payload, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.recipes, 1)

	// another user is not deduped against
	_, err = svc.SaveFromAgent(ctx, payload, 2)
	require.NoError(t, err)
	assert.Len(t, repo.recipes, 2)

	later := now.Add(3 * time.Minute)
	svc.now = func() time.Time { return later }
	repo.clock = svc.now
	third, err := svc.SaveFromAgent(ctx, payload, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestRecipeService_SaveFromAgentRejectsInvalid(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	_, err := svc.SaveFromAgent(context.Background(), map[string]any{
		"name":         "Bad",
		"instructions": []any{map[string]any{"step_number": float64(1), "time_minutes": float64(-3), "description": "x"}},
	}, 1)
	assert.ErrorIs(t, err, domain.ErrRecipeInvalid)
	assert.Empty(t, repo.recipes)

	_, err = svc.SaveFromAgent(context.Background(), map[string]any{"description": "no name"}, 1)
	assert.ErrorIs(t, err, domain.ErrRecipeInvalid)
}

func TestRecipeService_Share(t *testing.T) {
	svc, _, mailer, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRecipe(ctx, sampleCreateRequest(), 1)
	require.NoError(t, err)

	require.NoError(t, svc.ShareRecipe(ctx, created.ID, "friend@example.com", 1))
	assert.Equal(t, "friend@example.com", mailer.to)
	assert.Equal(t, "Recipe: Pasta", mailer.subject)
	assert.True(t, strings.Contains(mailer.body, "200g pasta"))

	mailer.err = errors.New("smtp down")
	assert.Error(t, svc.ShareRecipe(ctx, created.ID, "friend@example.com", 1))
	assert.ErrorIs(t, svc.ShareRecipe(ctx, created.ID, "friend@example.com", 9), domain.ErrRecipeNotFound)
}
