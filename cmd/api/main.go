package main

import (
	"fmt"
	"net/http"
	"os"

	"tally/internal/config"
	"tally/internal/database"
	"tally/internal/handlers"
	"tally/internal/logger"
	"tally/internal/middleware"
	"tally/internal/services"
	"tally/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "tally/internal/docs" // Import swagger docs
)

// @title           Tally API
// @version         1.0
// @description     Tally is a multi-tenant finance tracker: households and small businesses share a ledger, organize it with hierarchical categories, set budgets, and automate recurring transactions.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom request validators with Gin's binding engine
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	entityService := services.NewEntityService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db)
	budgetService := services.NewBudgetService(db)
	recurringService := services.NewRecurringService(db)
	reportService := services.NewReportService(db)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	entityHandler := handlers.NewEntityHandler(entityService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	recurringHandler := handlers.NewRecurringHandler(recurringService, auditService)
	reportHandler := handlers.NewReportHandler(reportService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Entity routes
	entities := protected.Group("/entities")
	entities.POST("", entityHandler.CreateEntity)
	entities.GET("", entityHandler.GetEntities)

	// Everything below is scoped to one entity and requires membership
	entity := entities.Group("/:entityID")
	entity.Use(middleware.EntityAccess(entityService))

	entity.GET("", entityHandler.GetEntity)
	entity.PUT("", entityHandler.UpdateEntity)
	entity.DELETE("", entityHandler.DeleteEntity)
	entity.GET("/members", entityHandler.GetMembers)
	entity.POST("/members", entityHandler.AddMember)
	entity.DELETE("/members/:userID", entityHandler.RemoveMember)

	// Category routes
	entity.POST("/categories", categoryHandler.CreateCategory)
	entity.GET("/categories", categoryHandler.GetCategories)
	entity.GET("/categories/tree", categoryHandler.GetCategoryTree)
	entity.GET("/categories/:id", categoryHandler.GetCategoryByID)
	entity.PUT("/categories/:id", categoryHandler.UpdateCategory)
	entity.DELETE("/categories/:id", categoryHandler.DeleteCategory)

	// Transaction routes
	entity.POST("/transactions", transactionHandler.CreateTransaction)
	entity.GET("/transactions", transactionHandler.GetTransactions)
	entity.GET("/transactions/:id", transactionHandler.GetTransactionByID)
	entity.PUT("/transactions/:id", transactionHandler.UpdateTransaction)
	entity.DELETE("/transactions/:id", transactionHandler.DeleteTransaction)

	// Budget routes
	entity.POST("/budgets", budgetHandler.CreateBudget)
	entity.GET("/budgets", budgetHandler.GetBudgets)
	entity.GET("/budgets/:id", budgetHandler.GetBudgetByID)
	entity.GET("/budgets/:id/spending", budgetHandler.GetBudgetSpending)
	entity.PUT("/budgets/:id", budgetHandler.UpdateBudget)
	entity.DELETE("/budgets/:id", budgetHandler.DeleteBudget)

	// Recurring template routes
	entity.POST("/recurring", recurringHandler.CreateTemplate)
	entity.GET("/recurring", recurringHandler.GetTemplates)
	entity.POST("/recurring/generate", recurringHandler.Generate)
	entity.GET("/recurring/:id", recurringHandler.GetTemplateByID)
	entity.PUT("/recurring/:id", recurringHandler.UpdateTemplate)
	entity.DELETE("/recurring/:id", recurringHandler.DeactivateTemplate)

	// Report routes
	entity.GET("/reports/summary", reportHandler.GetMonthlySummary)
	entity.GET("/reports/trends", reportHandler.GetMonthlyTrends)
	entity.GET("/reports/breakdown", reportHandler.GetExpenseBreakdown)
	entity.GET("/reports/export", reportHandler.ExportTransactions)

	log.Infof("Starting Tally backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
