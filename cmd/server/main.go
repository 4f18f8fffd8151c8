package main

import (
	"log"

	"github.com/agrodata/farmdata-api/internal/auth"
	"github.com/agrodata/farmdata-api/internal/config"
	"github.com/agrodata/farmdata-api/internal/constants"
	"github.com/agrodata/farmdata-api/internal/database"
	"github.com/agrodata/farmdata-api/internal/handlers"
	"github.com/agrodata/farmdata-api/internal/middleware"
	"github.com/agrodata/farmdata-api/internal/models"
	"github.com/agrodata/farmdata-api/internal/repository"
	"github.com/agrodata/farmdata-api/internal/services"
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if cfg.DBDriver == "postgres" {
		if err := database.MigrateDatabase(database.GetDB()); err != nil {
			log.Fatalf("Failed to add indexes: %v", err)
		}
	}

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,
		"tcp",
		redisAddr,
		"",
		"",
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Initialize services
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	farmRepo := repository.NewFarmRepository(db)
	fieldRepo := repository.NewFieldRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	resolver := auth.NewResolver(db)

	authService := services.NewAuthService(userRepo)
	farmService := services.NewFarmService(farmRepo, userRepo)
	fieldService := services.NewFieldService(fieldRepo, resolver)
	auditService := services.NewAuditService(auditRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, farmService, auditService, tokens)
	farmHandler := handlers.NewFarmHandler(farmService, auditService)
	fieldHandler := handlers.NewFieldHandler(fieldService, auditService)
	adminHandler := handlers.NewAdminHandler(authService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Farm Data API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/signup", authHandler.Signup)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh", authHandler.Refresh)
			authRoutes.POST("/logout", authHandler.Logout)
			authRoutes.GET("/me", middleware.RequireAuth(tokens), authHandler.GetCurrentUser)
			authRoutes.POST("/change-password", middleware.RequireAuth(tokens), authHandler.ChangePassword)
		}

		// Farm routes (protected)
		farms := api.Group("/farms")
		farms.Use(middleware.RequireAuth(tokens))
		{
			farms.POST("", farmHandler.CreateFarm)
			farms.GET("", farmHandler.ListFarms)
			farms.GET("/:id", middleware.RequireFarmAccess(), farmHandler.GetFarm)
			farms.POST("/:id/switch", farmHandler.SwitchFarm)
			farms.POST("/:id/primary", farmHandler.SetPrimary)
			farms.POST("/:id/members", middleware.RequireFarmRole(models.FarmRoleAdmin), farmHandler.AddMember)
			farms.DELETE("/:id/members/:user_id", middleware.RequireFarmRole(models.FarmRoleAdmin), farmHandler.RemoveMember)
		}

		// Field routes (protected, tenant-scoped)
		fields := api.Group("/fields")
		fields.Use(middleware.RequireAuth(tokens))
		{
			fields.GET("", fieldHandler.ListFields)
			fields.POST("", fieldHandler.CreateField)
			fields.GET("/:id", fieldHandler.GetField)
			fields.DELETE("/:id", fieldHandler.DeleteField)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.RequireAuth(tokens), middleware.RequireSystemAdmin())
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.PATCH("/users/:id/role", adminHandler.UpdateUserRole)
		}
	}

	// Start server
	log.Println("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
