package config

import (
	"chef-agent-api/domain"
	"chef-agent-api/internal/api/handlers"
	"chef-agent-api/internal/api/routes"
	"chef-agent-api/internal/middleware"
	"chef-agent-api/internal/utils"
	"chef-agent-api/internal/utils/mailing"
	"chef-agent-api/internal/utils/storage"
	"chef-agent-api/pkg/agent"
	"chef-agent-api/pkg/chat"
	"chef-agent-api/pkg/chef"
	"chef-agent-api/pkg/jwt"
	"chef-agent-api/pkg/message"
	"chef-agent-api/pkg/recipe"
	"chef-agent-api/pkg/thread"
	"chef-agent-api/pkg/user"
	"chef-agent-api/pkg/websearch"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const checkpointNamespace = "general"

func NewApp(db *gorm.DB) (*fiber.App, error) {
	if utils.GetConfig("JWT_SECRET") == "" {
		return nil, domain.ErrTokenNoSecret
	}
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
		BodyLimit:         chat.MaxImageSize + 1<<20,
	})
	validator := utils.Validate

	// setting up logging and limiter
	logFile := utils.GetConfig("LOG_FILE")
	if err := os.MkdirAll(filepath.Dir(logFile), os.ModePerm); err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3 := storage.NewAwsS3()
	mailer := mailing.NewMailer(mailing.LoadMailConfig())

	// agent runtime
	checkpointer, err := newCheckpointer(db)
	if err != nil {
		return nil, err
	}
	locker, closeLocker := newThreadLocker()
	app.Hooks().OnShutdown(func() error {
		closeLocker()
		return checkpointer.Close()
	})

	timeout := time.Duration(utils.GetConfigInt("MODEL_TIMEOUT_SECONDS")) * time.Second
	generalModel := agent.NewOpenAIModel(
		utils.GetConfig("OPENAI_BASE_URL"),
		utils.GetConfig("OPENAI_API_KEY"),
		utils.GetConfig("GENERAL_MODEL"),
		timeout,
		agent.WithTemperature(utils.GetConfigFloat("GENERAL_TEMPERATURE")),
	)
	chefModel := agent.NewOpenAIModel(
		utils.GetConfig("OPENAI_BASE_URL"),
		utils.GetConfig("OPENAI_API_KEY"),
		utils.GetConfig("CHEF_MODEL"),
		timeout,
	)
	// Repository
	userRepository := user.NewUserRepository(db)
	threadRepository := thread.NewThreadRepository(db)
	messageRepository := message.NewMessageRepository(db)
	recipeRepository := recipe.NewRecipeRepository(db)

	// Service
	jwtService := jwt.NewJWTService()
	userService := user.NewUserService(userRepository)
	recipeService := recipe.NewRecipeService(recipeRepository, validator, mailer)
	messageService := message.NewMessageService(messageRepository, s3)

	chefAgent := chef.NewChefAgent(chefModel, websearch.NewTavilyClient(
		"",
		utils.GetConfig("TAVILY_API_KEY"),
		time.Duration(utils.GetConfigInt("WEB_SEARCH_TIMEOUT_SECONDS"))*time.Second,
	))
	generalAgent := chef.NewGeneralAgent(chef.GeneralAgentConfig{
		Model:         generalModel,
		Chef:          chefAgent,
		RecipeService: recipeService,
		Checkpointer:  checkpointer,
		Locker:        locker,
		InterruptOn:   utils.GetConfigList("HITL_TOOLS"),
		HistoryLimit:  utils.GetConfigInt("HISTORY_LIMIT"),
	})

	threadService := thread.NewThreadService(threadRepository, generalAgent)
	chatService := chat.NewChatService(generalAgent, threadService, messageService, s3)

	// Handler
	middlewares := middleware.NewMiddleware(userService)
	userHandler := handlers.NewUserHandler(userService, validator)
	threadHandler := handlers.NewThreadHandler(threadService)
	messageHandler := handlers.NewMessageHandler(messageService, validator)
	recipeHandler := handlers.NewRecipeHandler(recipeService, validator)
	chatHandler := handlers.NewChatHandler(chatService, validator)

	// routes
	routesConfig := routes.Config{
		App:            app,
		UserHandler:    userHandler,
		ThreadHandler:  threadHandler,
		MessageHandler: messageHandler,
		RecipeHandler:  recipeHandler,
		ChatHandler:    chatHandler,
		Middleware:     middlewares,
		JWTService:     jwtService,
	}
	routesConfig.Setup()
	return app, nil
}

func newCheckpointer(db *gorm.DB) (agent.Checkpointer, error) {
	switch strings.ToLower(utils.GetConfig("CHECKPOINT_DRIVER")) {
	case "memory":
		log.Warn("agent checkpoints kept in memory, paused threads are lost on restart")
		return agent.NewMemoryCheckpointer(), nil
	case "sqlite":
		path := utils.GetConfig("CHECKPOINT_SQLITE_PATH")
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return nil, err
		}
		return agent.NewSQLiteCheckpointer(path, checkpointNamespace)
	default:
		return agent.NewGormCheckpointer(db, checkpointNamespace), nil
	}
}

// newThreadLocker uses Redis when REDIS_ADDR is set and reachable so that
// several instances share thread ownership.
func newThreadLocker() (agent.ThreadLocker, func()) {
	addr := utils.GetConfig("REDIS_ADDR")
	if addr == "" {
		return agent.NewMemoryLocker(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: utils.GetConfig("REDIS_PASSWORD"),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warnf("redis at %s unreachable, using in-process thread locks: %v", addr, err)
		_ = client.Close()
		return agent.NewMemoryLocker(), func() {}
	}

	ttl := time.Duration(utils.GetConfigInt("THREAD_LOCK_TTL_SECONDS")) * time.Second
	return agent.NewRedisLocker(client, ttl), func() { _ = client.Close() }
}
