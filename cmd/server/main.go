package main

import (
	"context"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	goredis "github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/teamtaskhq/teamtask-api/internal/cache"
	"github.com/teamtaskhq/teamtask-api/internal/config"
	"github.com/teamtaskhq/teamtask-api/internal/database"
	"github.com/teamtaskhq/teamtask-api/internal/handlers"
	"github.com/teamtaskhq/teamtask-api/internal/middleware"
	"github.com/teamtaskhq/teamtask-api/internal/models"
	"github.com/teamtaskhq/teamtask-api/internal/notify"
	"github.com/teamtaskhq/teamtask-api/internal/orchestrator"
	"github.com/teamtaskhq/teamtask-api/internal/realtime"
	"github.com/teamtaskhq/teamtask-api/internal/repository"
	"github.com/teamtaskhq/teamtask-api/internal/roles"
	"github.com/teamtaskhq/teamtask-api/internal/services"
)

const cacheTTL = 5 * time.Minute

func main() {
	// Load configuration
	cfg := config.Load()

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	log.SetFormatter(&logrus.JSONFormatter{})

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	// Redis backs both the session store and the view cache
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	redisClient := goredis.NewClient(&goredis.Options{Addr: redisAddr})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}

	// Repositories
	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Core collaborators
	hierarchy := roles.Default()
	hub := realtime.NewHub()
	invalidator := cache.NewInvalidator(cache.NewRedisStore(redisClient), log, cacheTTL)

	mailer := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		FromName:  cfg.MailFromName,
		FromEmail: cfg.MailFromEmail,
		BaseURL:   cfg.AppBaseURL,
	})

	notifier := notify.NewNotifier(notificationRepo, mailer, userRepo, hub, log)
	ctx, stopNotifier := context.WithCancel(context.Background())
	defer stopNotifier()
	go notifier.Run(ctx)

	orch := orchestrator.New(taskRepo, projectRepo, userRepo, hierarchy, notifier, invalidator, log)

	// Services and handlers
	authService := services.NewAuthService(userRepo, orgRepo)
	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(orch, taskRepo, invalidator, log)
	projectHandler := handlers.NewProjectHandler(orch, projectRepo, taskRepo, invalidator, log)
	userHandler := handlers.NewUserHandler(orch, userRepo)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, hub)

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	store, err := redisStore.NewStore(
		10,
		"tcp",
		redisAddr,
		"",
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		log.WithError(err).Fatal("Failed to create Redis session store")
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax
	})
	r.Use(sessions.Sessions("teamtask_session", store))

	requireAuth := middleware.RequireAuth(userRepo)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "TeamTask API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.Me)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.List)
			tasks.POST("", taskHandler.Create)
			tasks.GET("/:id", taskHandler.Get)
			tasks.PUT("/:id", taskHandler.Update)
			tasks.PATCH("/:id/status", taskHandler.ChangeStatus)
			tasks.PATCH("/:id/assign", taskHandler.Assign)
			tasks.DELETE("/:id", taskHandler.Delete)
		}

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.GET("", projectHandler.List)
			projects.POST("", middleware.RequireRole(hierarchy, models.RoleManager), projectHandler.Create)
			projects.GET("/:id", projectHandler.Get)
			projects.GET("/:id/tasks", projectHandler.ListTasks)
			projects.PUT("/:id", projectHandler.Update)
			projects.DELETE("/:id", projectHandler.Delete)
		}

		// User routes (protected)
		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", userHandler.List)
			users.PATCH("/:id/role", middleware.RequireRole(hierarchy, models.RoleTeamLeader), userHandler.ChangeRole)
		}

		// Notification routes (protected)
		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/stream", notificationHandler.Stream)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
		}
	}

	// Start server
	log.Info("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}
