package services

import (
	"io"
	"time"

	"tally/internal/models"
	"tally/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// EntityServicer defines the contract for entity and membership logic.
type EntityServicer interface {
	CreateEntity(userID, name string, entityType models.EntityType, description string) (*models.Entity, error)
	GetUserEntities(userID string) ([]models.Entity, error)
	GetEntityByID(userID, entityID string) (*models.Entity, error)
	UpdateEntity(userID, entityID, name, description string) (*models.Entity, error)
	DeleteEntity(userID, entityID string) error
	AddMember(userID, entityID, memberEmail string, role models.MemberRole) (*models.EntityMember, error)
	RemoveMember(userID, entityID, memberUserID string) error
	GetMembers(userID, entityID string) ([]models.EntityMember, error)
	RequireMember(userID, entityID string) error
}

// CategoryServicer defines the contract for category-tree business logic.
type CategoryServicer interface {
	CreateCategory(entityID, name string, categoryType models.CategoryType, description, icon, color string, parentID *string) (*models.Category, error)
	GetEntityCategories(entityID string, categoryType *models.CategoryType, includeInactive bool, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryTree(entityID string, includeInactive bool) ([]*models.CategoryNode, error)
	GetCategoryByID(entityID, categoryID string) (*models.Category, error)
	UpdateCategory(entityID, categoryID, name, categoryType, description, icon, color string, parentID *string) (*models.Category, error)
	DeleteCategory(entityID, categoryID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
	UserID     *string
}

// TransactionServicer defines the contract for ledger business logic.
type TransactionServicer interface {
	CreateTransaction(entityID, categoryID string, userID *string, transactionType models.TransactionType, amount int64, date time.Time, description, notes string) (*models.Transaction, error)
	GetEntityTransactions(entityID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(entityID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(entityID, transactionID, categoryID, transactionType string, amount *int64, date *time.Time, description, notes *string) (*models.Transaction, error)
	DeleteTransaction(entityID, transactionID string) error
}

// BudgetSpending contains spending vs budget data for a budget's current period.
type BudgetSpending struct {
	BudgetID    string    `json:"budget_id"`
	Budgeted    int64     `json:"budgeted"`
	Spent       int64     `json:"spent"`
	Remaining   int64     `json:"remaining"`
	Percentage  float64   `json:"percentage"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// BudgetServicer defines the contract for budget business logic.
type BudgetServicer interface {
	CreateBudget(entityID, categoryID string, amount int64, periodType models.BudgetPeriod, startDate time.Time, endDate *time.Time) (*models.Budget, error)
	GetEntityBudgets(entityID string, page pagination.PageRequest, isActive *bool, periodType *models.BudgetPeriod) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(entityID, budgetID string) (*models.Budget, error)
	UpdateBudget(entityID, budgetID string, amount *int64, periodType *models.BudgetPeriod, endDate *time.Time, isActive *bool) (*models.Budget, error)
	DeleteBudget(entityID, budgetID string) error
	GetBudgetSpending(entityID, budgetID string) (*BudgetSpending, error)
}

// TemplateFailure reports a single template that could not be generated for.
type TemplateFailure struct {
	TemplateID string `json:"template_id"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
}

// GenerationResult summarizes one recurring-generation run.
type GenerationResult struct {
	Created  int               `json:"created"`
	Skipped  int               `json:"skipped"`
	Failures []TemplateFailure `json:"failures"`
}

// RecurringServicer defines the contract for recurring-template logic.
type RecurringServicer interface {
	CreateTemplate(entityID, categoryID, name string, amount int64, transactionType models.TransactionType, frequency models.Frequency, startDate time.Time, endDate *time.Time, description, notes string) (*models.RecurringTemplate, error)
	GetEntityTemplates(entityID string, includeInactive bool, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringTemplate], error)
	GetTemplateByID(entityID, templateID string) (*models.RecurringTemplate, error)
	UpdateTemplate(entityID, templateID, name string, amount *int64, frequency *models.Frequency, endDate *time.Time, description, notes *string, isActive *bool) (*models.RecurringTemplate, error)
	DeactivateTemplate(entityID, templateID string) error
	Generate(entityID string, from, to time.Time) (*GenerationResult, error)
}

// MonthlySummary aggregates one calendar month of entity activity.
type MonthlySummary struct {
	Year             int   `json:"year"`
	Month            int   `json:"month"`
	TotalIncome      int64 `json:"total_income"`
	TotalExpense     int64 `json:"total_expense"`
	Net              int64 `json:"net"`
	TransactionCount int64 `json:"transaction_count"`
}

// CategoryBreakdown is one category's share of entity expenses over a range.
type CategoryBreakdown struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Total        int64   `json:"total"`
	Percentage   float64 `json:"percentage"`
}

// ReportServicer defines the contract for derived reporting queries.
type ReportServicer interface {
	GetMonthlySummary(entityID string, year int, month time.Month) (*MonthlySummary, error)
	GetMonthlyTrends(entityID string, months int) ([]MonthlySummary, error)
	GetExpenseBreakdown(entityID string, from, to time.Time) ([]CategoryBreakdown, error)
	ExportTransactionsCSV(w io.Writer, entityID string, from, to *time.Time) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, entityID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
