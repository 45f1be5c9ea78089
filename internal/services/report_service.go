package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
)

// reportService computes derived reporting aggregates for an entity.
// Everything here is recomputed per request from the ledger; there are
// no stored aggregates to invalidate.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

// monthWindow returns the inclusive window covering one calendar month.
func monthWindow(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// GetMonthlySummary aggregates income, expenses, and net for one month.
func (s *reportService) GetMonthlySummary(entityID string, year int, month time.Month) (*MonthlySummary, error) {
	start, end := monthWindow(year, month)

	summary := &MonthlySummary{Year: year, Month: int(month)}

	base := s.db.Model(&models.Transaction{}).
		Where("entity_id = ? AND date BETWEEN ? AND ?", entityID, start, end)

	if err := base.Session(&gorm.Session{}).Count(&summary.TransactionCount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	type typeTotal struct {
		Type  models.TransactionType
		Total int64
	}
	var totals []typeTotal
	if err := base.Session(&gorm.Session{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Group("type").
		Scan(&totals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, t := range totals {
		switch t.Type {
		case models.TransactionTypeIncome:
			summary.TotalIncome = t.Total
		case models.TransactionTypeExpense:
			summary.TotalExpense = t.Total
		}
	}
	summary.Net = summary.TotalIncome - summary.TotalExpense

	return summary, nil
}

// GetMonthlyTrends returns per-month summaries for the last N months,
// oldest first, ending with the current month.
func (s *reportService) GetMonthlyTrends(entityID string, months int) ([]MonthlySummary, error) {
	if months < 1 {
		months = 1
	}

	now := time.Now().UTC()
	trends := make([]MonthlySummary, 0, months)
	for i := months - 1; i >= 0; i-- {
		anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		summary, err := s.GetMonthlySummary(entityID, anchor.Year(), anchor.Month())
		if err != nil {
			return nil, err
		}
		trends = append(trends, *summary)
	}
	return trends, nil
}

// GetExpenseBreakdown returns per-category expense totals over a range,
// with each category's percentage share, largest first.
func (s *reportService) GetExpenseBreakdown(entityID string, from, to time.Time) ([]CategoryBreakdown, error) {
	type row struct {
		CategoryID   string
		CategoryName string
		Total        int64
	}

	var rows []row
	err := s.db.Model(&models.Transaction{}).
		Select("transactions.category_id AS category_id, categories.name AS category_name, COALESCE(SUM(transactions.amount), 0) AS total").
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.entity_id = ? AND transactions.type = ? AND transactions.date BETWEEN ? AND ?",
			entityID, models.TransactionTypeExpense, from, to).
		Group("transactions.category_id, categories.name").
		Order("total DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var grandTotal int64
	for _, r := range rows {
		grandTotal += r.Total
	}

	breakdown := make([]CategoryBreakdown, 0, len(rows))
	for _, r := range rows {
		var percentage float64
		if grandTotal > 0 {
			percentage = float64(r.Total) / float64(grandTotal) * 100
		}
		breakdown = append(breakdown, CategoryBreakdown{
			CategoryID:   r.CategoryID,
			CategoryName: r.CategoryName,
			Total:        r.Total,
			Percentage:   percentage,
		})
	}
	return breakdown, nil
}

// ExportTransactionsCSV streams the entity's transactions as CSV,
// newest first, optionally bounded by a date range.
func (s *reportService) ExportTransactionsCSV(w io.Writer, entityID string, from, to *time.Time) error {
	q := s.db.Preload("Category").Where("entity_id = ?", entityID)
	if from != nil {
		q = q.Where("date >= ?", *from)
	}
	if to != nil {
		q = q.Where("date <= ?", *to)
	}

	var transactions []models.Transaction
	if err := q.Order("date DESC, created_at DESC").Find(&transactions).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"date", "type", "category", "amount", "description", "notes"}); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, t := range transactions {
		categoryName := ""
		if t.Category != nil {
			categoryName = t.Category.Name
		}
		record := []string{
			t.Date.Format("2006-01-02"),
			string(t.Type),
			categoryName,
			fmt.Sprintf("%d.%02d", t.Amount/100, t.Amount%100),
			t.Description,
			t.Notes,
		}
		if err := writer.Write(record); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
