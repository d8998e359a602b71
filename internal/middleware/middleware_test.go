package middleware

import (
	"chef-agent-api/domain"
	"chef-agent-api/pkg/jwt"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserService struct {
	seen []domain.Identity
}

func (f *fakeUserService) GetOrCreate(_ context.Context, identity domain.Identity) (domain.UserResponse, error) {
	f.seen = append(f.seen, identity)
	return domain.UserResponse{ID: 42, AuthID: identity.AuthID}, nil
}
func (f *fakeUserService) GetUser(context.Context, uint) (domain.UserResponse, error) {
	return domain.UserResponse{}, nil
}
func (f *fakeUserService) UpdateUser(context.Context, domain.UpdateUserRequest, uint) (domain.UserResponse, error) {
	return domain.UserResponse{}, nil
}

func TestAuthMiddleware(t *testing.T) {
	users := &fakeUserService{}
	jwtService := jwt.NewJWTServiceWithKey("secret", "", "")
	app := fiber.New()
	app.Get("/me", NewMiddleware(users).AuthMiddleware(jwtService), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("user_id")})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := jwtService.GenerateToken(domain.Identity{AuthID: "auth0|1", Email: "a@b.c"}, time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, users.seen, 1)
	assert.Equal(t, "auth0|1", users.seen[0].AuthID)
}
