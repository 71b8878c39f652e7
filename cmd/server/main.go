package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dayplan/internal/auth"
	"dayplan/internal/database"
	"dayplan/internal/handlers"
	"dayplan/internal/llm"
	"dayplan/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// This is our main function - the entry point of our application
func main() {
	// Load .env in development; production sets real env vars
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: no .env file found, using environment variables")
	}

	// Initialize database
	if err := database.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Initialize Google OAuth
	if err := auth.InitOAuth(); err != nil {
		log.Fatal("Failed to initialize OAuth:", err)
	}

	// Initialize refresh token encryption
	if err := auth.InitCrypto(); err != nil {
		log.Fatal("Failed to initialize token encryption:", err)
	}

	// Start the delayed-delivery worker
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := services.InitDispatcher(database.GetDB(), services.NewEmailService())
	dispatcher.Start(ctx)

	// Wire the assistant if a model key is configured
	if apiKey := os.Getenv("DEEPSEEK_API_KEY"); apiKey != "" {
		provider, err := llm.NewDeepSeekProvider(apiKey)
		if err != nil {
			log.Fatal("Failed to initialize DeepSeek provider:", err)
		}
		handlers.InitChat(provider, os.Getenv("DEEPSEEK_MODEL"))
	} else {
		log.Println("Warning: DEEPSEEK_API_KEY not set, assistant disabled")
	}

	// Initialize Gin router
	router := gin.Default()

	// Configure trusted proxies
	router.SetTrustedProxies([]string{"127.0.0.1"})

	// Allow the frontend to send the session cookie cross-origin
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Basic routes
	router.GET("/", handlers.HomeHandler)
	router.GET("/health", handlers.HealthHandler)

	// Auth routes (no auth required)
	router.GET("/auth/login", handlers.LoginHandler)
	router.GET("/auth/callback", handlers.GoogleCallbackHandler)

	// Protected routes (auth required)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/auth/logout", handlers.LogoutHandler)

		api.GET("/me", handlers.GetProfile)
		api.PUT("/me/avatar", handlers.UpdateAvatar)
		api.GET("/dashboard", handlers.GetDashboard)

		api.GET("/tasks", handlers.ListTasks)
		api.POST("/tasks", handlers.CreateTask)
		api.POST("/tasks/:task_id/toggle", handlers.ToggleTaskStatus)

		api.GET("/reminders", handlers.ListReminders)
		api.POST("/reminders", handlers.CreateReminder)
		api.POST("/reminders/:reminder_id/toggle", handlers.ToggleReminderCompleted)

		api.GET("/events", handlers.ListEvents)
		api.POST("/events", handlers.CreateEvent)

		api.POST("/chat", handlers.Chat)
		api.POST("/calendar/events", handlers.AddCalendarEvent)
	}

	// Start the server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("Server starting on port %s...\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
