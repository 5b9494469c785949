package main

import (
	"context"
	"os"
	"time"

	"github.com/codevhq/codev/internal/ai"
	"github.com/codevhq/codev/internal/api/handlers"
	"github.com/codevhq/codev/internal/api/middleware"
	"github.com/codevhq/codev/internal/config"
	"github.com/codevhq/codev/internal/crypto"
	"github.com/codevhq/codev/internal/database"
	"github.com/codevhq/codev/internal/websocket"
	wshandlers "github.com/codevhq/codev/internal/websocket/handlers"
	"github.com/codevhq/codev/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load(config.Overrides{})
	if err != nil {
		logger.Errorf("Failed to load config: %v", err)
		os.Exit(1)
	}

	if cfg.Debug {
		logger.SetLevel(logger.LevelDebug)
	}

	// Set Gin mode
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Open database
	logger.Infof("Opening database: %s", cfg.DatabasePath)
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Errorf("Failed to open database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize JWT manager
	logger.Infof("Initializing JWT manager...")
	jwtManager, err := crypto.NewJWTManager(cfg.MasterSecret)
	if err != nil {
		logger.Errorf("Failed to create JWT manager: %v", err)
		os.Exit(1)
	}
	blacklist := crypto.NewTokenBlacklist(24 * time.Hour)

	// AI generation backend is optional; without an API key, mention
	// messages are relayed like any other chat message.
	var dispatcher wshandlers.Dispatcher
	if cfg.GeminiAPIKey != "" {
		generator, err := ai.NewGeminiGenerator(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Errorf("Failed to create generation backend: %v", err)
			os.Exit(1)
		}
		dispatcher = ai.NewDispatcher(generator)
		logger.Infof("AI generation backend enabled (model: %s)", cfg.GeminiModel)
	} else {
		logger.Warnf("GEMINI_API_KEY not set; AI mentions are disabled")
	}

	// Initialize Socket.IO server
	logger.Infof("Initializing Socket.IO server...")
	socketIOServer := websocket.NewSocketIOServer(db.DB, jwtManager, blacklist, dispatcher)
	defer socketIOServer.Close()

	// Plain WebSocket gateway for non-Socket.IO clients
	simpleServer := websocket.NewSimpleServer(jwtManager, blacklist, dispatcher)

	// Create Gin router
	router := gin.Default()

	// CORS middleware
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Logging middleware
	router.Use(middleware.LoggingMiddleware())

	// Root endpoint - returns plain text for client validation
	router.GET("/", func(c *gin.Context) {
		c.String(200, "Welcome to Codev Server!")
	})

	// Initialize handlers
	userHandler := handlers.NewUserHandler(db.DB, jwtManager, blacklist)
	projectHandler := handlers.NewProjectHandler(db.DB)

	// Public routes (no auth required)
	users := router.Group("/users")
	{
		users.POST("/register", userHandler.Register)
		users.POST("/login", userHandler.Login)
	}

	// Protected routes (auth required)
	usersProtected := users.Group("")
	usersProtected.Use(middleware.AuthMiddleware(jwtManager, blacklist))
	{
		usersProtected.POST("/logout", userHandler.Logout)
		usersProtected.GET("/profile", userHandler.GetProfile)
		usersProtected.GET("/all", userHandler.ListUsers)
	}

	projects := router.Group("/projects")
	projects.Use(middleware.AuthMiddleware(jwtManager, blacklist))
	{
		projects.POST("/create", projectHandler.CreateProject)
		projects.GET("/all", projectHandler.ListProjects)
		projects.GET("/:id", projectHandler.GetProject)
		projects.POST("/add-user", projectHandler.AddUser)
	}

	// Socket.IO room gateway (auth is checked after the handshake)
	router.Any("/socket.io", socketIOServer.HandleSocketIO())
	router.Any("/socket.io/*any", socketIOServer.HandleSocketIO())

	// Plain WebSocket fallback with the same room contract
	router.GET("/ws", simpleServer.HandleWebSocket)

	// Start HTTP server
	logger.Infof("Codev Server starting on http://localhost%s", cfg.Addr)
	logger.Infof("Database: %s", cfg.DatabasePath)

	if err := router.Run(cfg.Addr); err != nil {
		logger.Errorf("Failed to start server: %v", err)
		os.Exit(1)
	}
}
