package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"tally/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestEntity creates an entity with the given user as its owner.
func CreateTestEntity(t *testing.T, db *gorm.DB, ownerID string) *models.Entity {
	t.Helper()

	entity := &models.Entity{
		Name: fmt.Sprintf("Test Entity %d", nextID()),
		Type: models.EntityTypeFamily,
	}
	if err := db.Create(entity).Error; err != nil {
		t.Fatalf("failed to create test entity: %v", err)
	}

	member := &models.EntityMember{
		UserID:   ownerID,
		EntityID: entity.ID,
		Role:     models.MemberRoleOwner,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to create entity owner membership: %v", err)
	}
	return entity
}

// AddTestMember adds a user to an entity with the member role.
func AddTestMember(t *testing.T, db *gorm.DB, entityID, userID string) *models.EntityMember {
	t.Helper()

	member := &models.EntityMember{
		UserID:   userID,
		EntityID: entityID,
		Role:     models.MemberRoleMember,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to create test entity member: %v", err)
	}
	return member
}

// CreateTestCategory creates an active category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, entityID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		EntityID: entityID,
		Name:     fmt.Sprintf("Test Category %d", nextID()),
		Type:     categoryType,
		IsActive: true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestChildCategory creates an active category under the given parent.
func CreateTestChildCategory(t *testing.T, db *gorm.DB, parent *models.Category) *models.Category {
	t.Helper()

	category := &models.Category{
		EntityID: parent.EntityID,
		Name:     fmt.Sprintf("Test Child Category %d", nextID()),
		Type:     parent.Type,
		ParentID: &parent.ID,
		IsActive: true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test child category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction of the given type and amount
// (in cents) dated now.
func CreateTestTransaction(t *testing.T, db *gorm.DB, entityID, categoryID string, txType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()
	return CreateTestTransactionOn(t, db, entityID, categoryID, txType, amount, time.Now().UTC())
}

// CreateTestTransactionOn creates a transaction on a specific date.
func CreateTestTransactionOn(t *testing.T, db *gorm.DB, entityID, categoryID string, txType models.TransactionType, amount int64, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		EntityID:   entityID,
		CategoryID: categoryID,
		Type:       txType,
		Amount:     amount,
		Date:       date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates an active monthly budget for the given category.
func CreateTestBudget(t *testing.T, db *gorm.DB, entityID, categoryID string, amount int64) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		EntityID:   entityID,
		CategoryID: categoryID,
		Amount:     amount,
		PeriodType: models.BudgetPeriodMonthly,
		StartDate:  time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestTemplate creates an active monthly recurring template.
func CreateTestTemplate(t *testing.T, db *gorm.DB, entityID, categoryID string, startDate time.Time) *models.RecurringTemplate {
	t.Helper()

	template := &models.RecurringTemplate{
		EntityID:   entityID,
		CategoryID: categoryID,
		Name:       fmt.Sprintf("Test Template %d", nextID()),
		Amount:     100000, // $1000.00
		Type:       models.TransactionTypeExpense,
		Frequency:  models.FrequencyMonthly,
		StartDate:  startDate,
		IsActive:   true,
	}
	if err := db.Create(template).Error; err != nil {
		t.Fatalf("failed to create test recurring template: %v", err)
	}
	return template
}
