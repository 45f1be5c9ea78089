package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"tally/internal/models"
	"tally/internal/testutil"
)

func TestGetMonthlySummary(t *testing.T) {
	t.Run("aggregates_one_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReportService(db)
		user := testutil.CreateTestUser(t, db)
		entity := testutil.CreateTestEntity(t, db, user.ID)
		expense := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeExpense)
		income := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeIncome)

		march := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
		april := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
		testutil.CreateTestTransactionOn(t, db, entity.ID, income.ID, models.TransactionTypeIncome, 500000, march)
		testutil.CreateTestTransactionOn(t, db, entity.ID, expense.ID, models.TransactionTypeExpense, 120000, march)
		testutil.CreateTestTransactionOn(t, db, entity.ID, expense.ID, models.TransactionTypeExpense, 30000, march)
		testutil.CreateTestTransactionOn(t, db, entity.ID, expense.ID, models.TransactionTypeExpense, 99999, april)

		summary, err := svc.GetMonthlySummary(entity.ID, 2026, time.March)
		testutil.AssertNoError(t, err)

		if summary.TotalIncome != 500000 {
			t.Errorf("expected income 500000, got %d", summary.TotalIncome)
		}
		if summary.TotalExpense != 150000 {
			t.Errorf("expected expense 150000, got %d", summary.TotalExpense)
		}
		if summary.Net != 350000 {
			t.Errorf("expected net 350000, got %d", summary.Net)
		}
		if summary.TransactionCount != 3 {
			t.Errorf("expected 3 transactions, got %d", summary.TransactionCount)
		}
	})

	t.Run("empty_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReportService(db)
		user := testutil.CreateTestUser(t, db)
		entity := testutil.CreateTestEntity(t, db, user.ID)

		summary, err := svc.GetMonthlySummary(entity.ID, 2026, time.July)
		testutil.AssertNoError(t, err)

		if summary.TotalIncome != 0 || summary.TotalExpense != 0 || summary.Net != 0 || summary.TransactionCount != 0 {
			t.Errorf("expected empty summary, got %+v", summary)
		}
	})
}

func TestGetMonthlyTrends(t *testing.T) {
	t.Run("returns_requested_months_oldest_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReportService(db)
		user := testutil.CreateTestUser(t, db)
		entity := testutil.CreateTestEntity(t, db, user.ID)
		cat := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeExpense)

		now := time.Now().UTC()
		testutil.CreateTestTransactionOn(t, db, entity.ID, cat.ID, models.TransactionTypeExpense, 5000, now)

		trends, err := svc.GetMonthlyTrends(entity.ID, 3)
		testutil.AssertNoError(t, err)

		if len(trends) != 3 {
			t.Fatalf("expected 3 months, got %d", len(trends))
		}
		last := trends[2]
		if last.Year != now.Year() || last.Month != int(now.Month()) {
			t.Errorf("expected final month %d-%d, got %d-%d", now.Year(), now.Month(), last.Year, last.Month)
		}
		if last.TotalExpense != 5000 {
			t.Errorf("expected current month expense 5000, got %d", last.TotalExpense)
		}
	})
}

func TestGetExpenseBreakdown(t *testing.T) {
	t.Run("shares_sum_to_hundred", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReportService(db)
		user := testutil.CreateTestUser(t, db)
		entity := testutil.CreateTestEntity(t, db, user.ID)
		food := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeExpense)
		rent := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeExpense)
		income := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeIncome)

		day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
		testutil.CreateTestTransactionOn(t, db, entity.ID, food.ID, models.TransactionTypeExpense, 25000, day)
		testutil.CreateTestTransactionOn(t, db, entity.ID, rent.ID, models.TransactionTypeExpense, 75000, day)
		testutil.CreateTestTransactionOn(t, db, entity.ID, income.ID, models.TransactionTypeIncome, 999999, day)

		from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)
		breakdown, err := svc.GetExpenseBreakdown(entity.ID, from, to)
		testutil.AssertNoError(t, err)

		if len(breakdown) != 2 {
			t.Fatalf("expected 2 expense categories, got %d", len(breakdown))
		}
		// Largest share first.
		if breakdown[0].CategoryID != rent.ID || breakdown[0].Percentage != 75.0 {
			t.Errorf("expected rent at 75%%, got %s at %f", breakdown[0].CategoryName, breakdown[0].Percentage)
		}
		if breakdown[1].CategoryID != food.ID || breakdown[1].Percentage != 25.0 {
			t.Errorf("expected food at 25%%, got %s at %f", breakdown[1].CategoryName, breakdown[1].Percentage)
		}
	})
}

func TestExportTransactionsCSV(t *testing.T) {
	t.Run("writes_header_and_rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReportService(db)
		user := testutil.CreateTestUser(t, db)
		entity := testutil.CreateTestEntity(t, db, user.ID)
		cat := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeExpense)

		day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
		testutil.CreateTestTransactionOn(t, db, entity.ID, cat.ID, models.TransactionTypeExpense, 4599, day)

		var buf bytes.Buffer
		testutil.AssertNoError(t, svc.ExportTransactionsCSV(&buf, entity.ID, nil, nil))

		out := strings.ReplaceAll(buf.String(), "\r\n", "\n")
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected header plus 1 row, got %d lines", len(lines))
		}
		if lines[0] != "date,type,category,amount,description,notes" {
			t.Errorf("unexpected header: %s", lines[0])
		}
		if !strings.Contains(lines[1], "2026-05-10") || !strings.Contains(lines[1], "45.99") {
			t.Errorf("unexpected row: %s", lines[1])
		}
	})

	t.Run("range_filter", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReportService(db)
		user := testutil.CreateTestUser(t, db)
		entity := testutil.CreateTestEntity(t, db, user.ID)
		cat := testutil.CreateTestCategory(t, db, entity.ID, models.CategoryTypeExpense)

		testutil.CreateTestTransactionOn(t, db, entity.ID, cat.ID, models.TransactionTypeExpense, 100, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
		testutil.CreateTestTransactionOn(t, db, entity.ID, cat.ID, models.TransactionTypeExpense, 200, time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC))

		from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
		var buf bytes.Buffer
		testutil.AssertNoError(t, svc.ExportTransactionsCSV(&buf, entity.ID, &from, nil))

		out := strings.ReplaceAll(buf.String(), "\r\n", "\n")
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected header plus 1 row, got %d lines", len(lines))
		}
		if !strings.Contains(lines[1], "2026-06-05") {
			t.Errorf("expected only the June transaction, got %s", lines[1])
		}
	})
}
