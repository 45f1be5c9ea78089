package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tally/internal/handlers"
	"tally/internal/logger"
	"tally/internal/middleware"
	"tally/internal/models"
	"tally/internal/services"
	"tally/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Entity{},
		&models.EntityMember{},
		&models.Category{},
		&models.Transaction{},
		&models.Budget{},
		&models.RecurringTemplate{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	entityService := services.NewEntityService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db)
	budgetService := services.NewBudgetService(db)
	recurringService := services.NewRecurringService(db)
	reportService := services.NewReportService(db)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	entityHandler := handlers.NewEntityHandler(entityService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	recurringHandler := handlers.NewRecurringHandler(recurringService, auditService)
	reportHandler := handlers.NewReportHandler(reportService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	entities := protected.Group("/entities")
	entities.POST("", entityHandler.CreateEntity)
	entities.GET("", entityHandler.GetEntities)

	entity := entities.Group("/:entityID")
	entity.Use(middleware.EntityAccess(entityService))

	entity.GET("", entityHandler.GetEntity)
	entity.PUT("", entityHandler.UpdateEntity)
	entity.DELETE("", entityHandler.DeleteEntity)
	entity.GET("/members", entityHandler.GetMembers)
	entity.POST("/members", entityHandler.AddMember)
	entity.DELETE("/members/:userID", entityHandler.RemoveMember)

	entity.POST("/categories", categoryHandler.CreateCategory)
	entity.GET("/categories", categoryHandler.GetCategories)
	entity.GET("/categories/tree", categoryHandler.GetCategoryTree)
	entity.GET("/categories/:id", categoryHandler.GetCategoryByID)
	entity.PUT("/categories/:id", categoryHandler.UpdateCategory)
	entity.DELETE("/categories/:id", categoryHandler.DeleteCategory)

	entity.POST("/transactions", transactionHandler.CreateTransaction)
	entity.GET("/transactions", transactionHandler.GetTransactions)
	entity.GET("/transactions/:id", transactionHandler.GetTransactionByID)
	entity.PUT("/transactions/:id", transactionHandler.UpdateTransaction)
	entity.DELETE("/transactions/:id", transactionHandler.DeleteTransaction)

	entity.POST("/budgets", budgetHandler.CreateBudget)
	entity.GET("/budgets", budgetHandler.GetBudgets)
	entity.GET("/budgets/:id", budgetHandler.GetBudgetByID)
	entity.GET("/budgets/:id/spending", budgetHandler.GetBudgetSpending)
	entity.PUT("/budgets/:id", budgetHandler.UpdateBudget)
	entity.DELETE("/budgets/:id", budgetHandler.DeleteBudget)

	entity.POST("/recurring", recurringHandler.CreateTemplate)
	entity.GET("/recurring", recurringHandler.GetTemplates)
	entity.POST("/recurring/generate", recurringHandler.Generate)
	entity.GET("/recurring/:id", recurringHandler.GetTemplateByID)
	entity.PUT("/recurring/:id", recurringHandler.UpdateTemplate)
	entity.DELETE("/recurring/:id", recurringHandler.DeactivateTemplate)

	entity.GET("/reports/summary", reportHandler.GetMonthlySummary)
	entity.GET("/reports/trends", reportHandler.GetMonthlyTrends)
	entity.GET("/reports/breakdown", reportHandler.GetExpenseBreakdown)
	entity.GET("/reports/export", reportHandler.ExportTransactions)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(string)
}

// createEntity creates an entity for the token's user and returns its ID.
func (app *testApp) createEntity(t *testing.T, token, name string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"type":"family"}`, name)
	rec := app.request("POST", "/api/v1/entities", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create entity failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	entity := result["entity"].(map[string]interface{})
	return entity["id"].(string)
}

// createCategory creates a category in the entity and returns its ID.
func (app *testApp) createCategory(t *testing.T, token, entityID, name, categoryType string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"type":%q}`, name, categoryType)
	rec := app.request("POST", "/api/v1/entities/"+entityID+"/categories", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	category := result["category"].(map[string]interface{})
	return category["id"].(string)
}
