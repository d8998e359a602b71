package routes

import (
	"chef-agent-api/internal/api/handlers"
	"chef-agent-api/internal/middleware"
	"chef-agent-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App            *fiber.App
	UserHandler    handlers.UserHandler
	ThreadHandler  handlers.ThreadHandler
	MessageHandler handlers.MessageHandler
	RecipeHandler  handlers.RecipeHandler
	ChatHandler    handlers.ChatHandler
	Middleware     middleware.Middleware
	JWTService     jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.GuestRoute()
	c.User()
	c.Threads()
	c.Messages()
	c.Recipes()
	c.Chat()
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}

func (c *Config) User() {
	user := c.App.Group("/api/v1/user", c.Middleware.AuthMiddleware(c.JWTService))
	user.Get("/me", c.UserHandler.Me)
	user.Patch("/me", c.UserHandler.UpdateUser)
}

func (c *Config) Threads() {
	threads := c.App.Group("/api/v1/thread", c.Middleware.AuthMiddleware(c.JWTService))
	threads.Post("", c.ThreadHandler.CreateThread)
	threads.Get("", c.ThreadHandler.GetThreads)
	threads.Get("/:id", c.ThreadHandler.GetThread)
	threads.Delete("/:id", c.ThreadHandler.DeleteThread)
}

func (c *Config) Messages() {
	messages := c.App.Group("/api/v1/message", c.Middleware.AuthMiddleware(c.JWTService))
	messages.Post("", c.MessageHandler.CreateMessage)
	messages.Get("/thread/:thread_id", c.MessageHandler.GetMessages)
	messages.Get("/:id", c.MessageHandler.GetMessage)
	messages.Delete("/:id", c.MessageHandler.DeleteMessage)
}

func (c *Config) Recipes() {
	recipes := c.App.Group("/api/v1/recipes", c.Middleware.AuthMiddleware(c.JWTService))
	recipes.Post("", c.RecipeHandler.CreateRecipe)
	recipes.Get("", c.RecipeHandler.GetRecipes)
	recipes.Get("/:id", c.RecipeHandler.GetRecipe)
	recipes.Patch("/:id", c.RecipeHandler.UpdateRecipe)
	recipes.Delete("/:id", c.RecipeHandler.DeleteRecipe)
	recipes.Post("/:id/share", c.RecipeHandler.ShareRecipe)
}

func (c *Config) Chat() {
	chat := c.App.Group("/api/v1/chat", c.Middleware.AuthMiddleware(c.JWTService))
	chat.Post("/stream", c.ChatHandler.Stream)
	chat.Post("/resume", c.ChatHandler.Resume)
}
