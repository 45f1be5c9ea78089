package services

import (
	"testing"
	"time"

	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/testutil"
)

func TestCreateTransaction(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		entity := testutil.CreateTestEntity(t, db, user.ID)
		cat := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeExpense)

		tx, err := svc.CreateTransaction(entity.ID, cat.ID, &user.ID, models.TransactionTypeExpense, 4599, time.Now(), "Groceries", "")
		testutil.AssertNoError(t, err)

		if tx.ID == "" {
			t.Fatal("expected non-empty transaction ID")
		}
		if tx.Amount != 4599 {
			t.Errorf("expected amount 4599, got %d", tx.Amount)
		}
		if tx.RecurringTemplateID != nil {
			t.Error("expected manual transaction to have no template link")
		}
	})

	t.Run("non_positive_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		entity := testutil.CreateTestEntity(t, db, user.ID)
		cat := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeExpense)

		_, err := svc.CreateTransaction(entity.ID, cat.ID, nil, models.TransactionTypeExpense, 0, time.Now(), "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateTransaction(entity.ID, cat.ID, nil, models.TransactionTypeExpense, -100, time.Now(), "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("type_mismatch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		entity := testutil.CreateTestEntity(t, db, user.ID)
		expense := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeExpense)

		_, err := svc.CreateTransaction(entity.ID, expense.ID, nil, models.TransactionTypeIncome, 1000, time.Now(), "", "")
		testutil.AssertAppError(t, err, "TRANSACTION_TYPE_MISMATCH")
	})

	t.Run("inactive_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		entity := testutil.CreateTestEntity(t, db, user.ID)
		cat := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeExpense)
		testutil.AssertNoError(t, db.Model(cat).Update("is_active", false).Error)

		_, err := svc.CreateTransaction(entity.ID, cat.ID, nil, models.TransactionTypeExpense, 1000, time.Now(), "", "")
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("category_from_other_entity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		entity1 := testutil.CreateTestEntity(t, db, user.ID)
		entity2 := testutil.CreateTestEntity(t, db, user.ID)
		foreign := testutil.CreateTestCategory(t, db, entity1.ID, models.CategoryTypeExpense)

		_, err := svc.CreateTransaction(entity2.ID, foreign.ID, nil, models.TransactionTypeExpense, 1000, time.Now(), "", "")
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestGetEntityTransactions(t *testing.T) {
	t.Run("scoped_to_entity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		entity1 := testutil.CreateTestEntity(t, db, user.ID)
		entity2 := testutil.CreateTestEntity(t, db, user.ID)
		cat1 := testutil.CreateTestCategory(t, db, entity1.ID, models.CategoryTypeExpense)
		cat2 := testutil.CreateTestCategory(t, db, entity2.ID, models.CategoryTypeExpense)

		testutil.CreateTestTransaction(t, db, entity1.ID, cat1.ID, models.TransactionTypeExpense, 100)
		testutil.CreateTestTransaction(t, db, entity1.ID, cat1.ID, models.TransactionTypeExpense, 200)
		testutil.CreateTestTransaction(t, db, entity2.ID, cat2.ID, models.TransactionTypeExpense, 300)

		result, err := svc.GetEntityTransactions(entity1.ID, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 2 {
			t.Errorf("expected 2 transactions for entity1, got %d", result.TotalItems)
		}
		for _, tx := range result.Data {
			if tx.EntityID != entity1.ID {
				t.Errorf("expected entity ID %s, got %s", entity1.ID, tx.EntityID)
			}
		}
	})

	t.Run("newest_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		entity := testutil.CreateTestEntity(t, db, user.ID)
		cat := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeExpense)

		old := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
		recent := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
		testutil.CreateTestTransactionOn(t, db, entity.ID, cat.ID, models.TransactionTypeExpense, 100, old)
		testutil.CreateTestTransactionOn(t, db, entity.ID, cat.ID, models.TransactionTypeExpense, 200, recent)

		result, err := svc.GetEntityTransactions(entity.ID, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertNoError(t, err)

		if len(result.Data) != 2 {
			t.Fatalf("expected 2 transactions, got %d", len(result.Data))
		}
		if result.Data[0].Amount != 200 || result.Data[1].Amount != 100 {
			t.Error("expected newest transaction first")
		}
	})

	t.Run("date_and_type_filters", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		entity := testutil.CreateTestEntity(t, db, user.ID)
		expense := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeExpense)
		income := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeIncome)

		jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
		feb := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
		testutil.CreateTestTransactionOn(t, db, entity.ID, expense.ID, models.TransactionTypeExpense, 100, jan)
		testutil.CreateTestTransactionOn(t, db, entity.ID, expense.ID, models.TransactionTypeExpense, 200, feb)
		testutil.CreateTestTransactionOn(t, db, entity.ID, income.ID, models.TransactionTypeIncome, 300, feb)

		from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		expenseType := models.TransactionTypeExpense
		result, err := svc.GetEntityTransactions(entity.ID, pagination.PageRequest{}, TransactionFilter{
			FromDate: &from,
			Type:     &expenseType,
		})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Fatalf("expected 1 filtered transaction, got %d", result.TotalItems)
		}
		if result.Data[0].Amount != 200 {
			t.Errorf("expected the February expense, got amount %d", result.Data[0].Amount)
		}
	})
}

func TestGetTransactionByID(t *testing.T) {
	t.Run("wrong_entity_is_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		entity1 := testutil.CreateTestEntity(t, db, user.ID)
		entity2 := testutil.CreateTestEntity(t, db, user.ID)
		cat := testutil.CreateTestCategory(t, db, entity1.ID, models.CategoryTypeExpense)
		tx := testutil.CreateTestTransaction(t, db, entity1.ID, cat.ID, models.TransactionTypeExpense, 100)

		_, err := svc.GetTransactionByID(entity2.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("amount_and_notes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		entity := testutil.CreateTestEntity(t, db, user.ID)
		cat := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeExpense)
		tx := testutil.CreateTestTransaction(t, db, entity.ID, cat.ID, models.TransactionTypeExpense, 100)

		amount := int64(2500)
		notes := "corrected"
		updated, err := svc.UpdateTransaction(entity.ID, tx.ID, "", "", &amount, nil, nil, &notes)
		testutil.AssertNoError(t, err)

		if updated.Amount != 2500 {
			t.Errorf("expected amount 2500, got %d", updated.Amount)
		}
		if updated.Notes != "corrected" {
			t.Errorf("expected notes corrected, got %s", updated.Notes)
		}
	})

	t.Run("category_change_revalidates_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		entity := testutil.CreateTestEntity(t, db, user.ID)
		expense := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeExpense)
		income := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeIncome)
		tx := testutil.CreateTestTransaction(t, db, entity.ID, expense.ID, models.TransactionTypeExpense, 100)

		_, err := svc.UpdateTransaction(entity.ID, tx.ID, income.ID, "", nil, nil, nil, nil)
		testutil.AssertAppError(t, err, "TRANSACTION_TYPE_MISMATCH")

		// Changing category and type together is consistent.
		updated, err := svc.UpdateTransaction(entity.ID, tx.ID, income.ID, "income", nil, nil, nil, nil)
		testutil.AssertNoError(t, err)
		if updated.Type != models.TransactionTypeIncome {
			t.Errorf("expected type income, got %s", updated.Type)
		}
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("removes_row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		entity := testutil.CreateTestEntity(t, db, user.ID)
		cat := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeExpense)
		tx := testutil.CreateTestTransaction(t, db, entity.ID, cat.ID, models.TransactionTypeExpense, 100)

		testutil.AssertNoError(t, svc.DeleteTransaction(entity.ID, tx.ID))

		_, err := svc.GetTransactionByID(entity.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("wrong_entity_is_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		entity1 := testutil.CreateTestEntity(t, db, user.ID)
		entity2 := testutil.CreateTestEntity(t, db, user.ID)
		cat := testutil.CreateTestCategory(t, db, entity1.ID, models.CategoryTypeExpense)
		tx := testutil.CreateTestTransaction(t, db, entity1.ID, cat.ID, models.TransactionTypeExpense, 100)

		err := svc.DeleteTransaction(entity2.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}
