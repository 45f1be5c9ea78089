package handlers

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"tally/internal/services"
)

type mockReportService struct {
	getMonthlySummaryFn     func(entityID string, year int, month time.Month) (*services.MonthlySummary, error)
	getMonthlyTrendsFn      func(entityID string, months int) ([]services.MonthlySummary, error)
	getExpenseBreakdownFn   func(entityID string, from, to time.Time) ([]services.CategoryBreakdown, error)
	exportTransactionsCSVFn func(w io.Writer, entityID string, from, to *time.Time) error
}

func (m *mockReportService) GetMonthlySummary(entityID string, year int, month time.Month) (*services.MonthlySummary, error) {
	if m.getMonthlySummaryFn != nil {
		return m.getMonthlySummaryFn(entityID, year, month)
	}
	return &services.MonthlySummary{}, nil
}

func (m *mockReportService) GetMonthlyTrends(entityID string, months int) ([]services.MonthlySummary, error) {
	if m.getMonthlyTrendsFn != nil {
		return m.getMonthlyTrendsFn(entityID, months)
	}
	return nil, nil
}

func (m *mockReportService) GetExpenseBreakdown(entityID string, from, to time.Time) ([]services.CategoryBreakdown, error) {
	if m.getExpenseBreakdownFn != nil {
		return m.getExpenseBreakdownFn(entityID, from, to)
	}
	return nil, nil
}

func (m *mockReportService) ExportTransactionsCSV(w io.Writer, entityID string, from, to *time.Time) error {
	if m.exportTransactionsCSVFn != nil {
		return m.exportTransactionsCSVFn(w, entityID, from, to)
	}
	return nil
}

var _ services.ReportServicer = (*mockReportService)(nil)

func setupReportRouter(handler *ReportHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("/entities/:entityID", injectUserID(testUserID), injectEntityID(testEntityID))
	g.GET("/reports/summary", handler.GetMonthlySummary)
	g.GET("/reports/trends", handler.GetMonthlyTrends)
	g.GET("/reports/breakdown", handler.GetExpenseBreakdown)
	g.GET("/reports/export", handler.ExportTransactions)
	return r
}

func TestReportHandler_GetMonthlySummary(t *testing.T) {
	t.Run("returns 200 with summary", func(t *testing.T) {
		var gotYear int
		var gotMonth time.Month
		reportSvc := &mockReportService{
			getMonthlySummaryFn: func(_ string, year int, month time.Month) (*services.MonthlySummary, error) {
				gotYear, gotMonth = year, month
				return &services.MonthlySummary{
					Year: year, Month: int(month),
					TotalIncome: 500000, TotalExpense: 150000, Net: 350000, TransactionCount: 3,
				}, nil
			},
		}
		handler := NewReportHandler(reportSvc)
		r := setupReportRouter(handler)

		rec := doRequest(r, "GET", "/entities/"+testEntityID+"/reports/summary?year=2026&month=3", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotYear != 2026 || gotMonth != time.March {
			t.Errorf("expected March 2026, got %v %v", gotMonth, gotYear)
		}
		result := parseJSON(t, rec)
		summary := result["summary"].(map[string]interface{})
		if summary["net"] != float64(350000) {
			t.Errorf("expected net 350000, got %v", summary["net"])
		}
	})

	t.Run("returns 400 on missing year", func(t *testing.T) {
		handler := NewReportHandler(&mockReportService{})
		r := setupReportRouter(handler)

		rec := doRequest(r, "GET", "/entities/"+testEntityID+"/reports/summary?month=3", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on month out of range", func(t *testing.T) {
		handler := NewReportHandler(&mockReportService{})
		r := setupReportRouter(handler)

		rec := doRequest(r, "GET", "/entities/"+testEntityID+"/reports/summary?year=2026&month=13", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestReportHandler_GetMonthlyTrends(t *testing.T) {
	t.Run("defaults to six months", func(t *testing.T) {
		var gotMonths int
		reportSvc := &mockReportService{
			getMonthlyTrendsFn: func(_ string, months int) ([]services.MonthlySummary, error) {
				gotMonths = months
				return make([]services.MonthlySummary, months), nil
			},
		}
		handler := NewReportHandler(reportSvc)
		r := setupReportRouter(handler)

		rec := doRequest(r, "GET", "/entities/"+testEntityID+"/reports/trends", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotMonths != 6 {
			t.Errorf("expected 6 months, got %d", gotMonths)
		}
	})

	t.Run("returns 400 on months out of range", func(t *testing.T) {
		handler := NewReportHandler(&mockReportService{})
		r := setupReportRouter(handler)

		rec := doRequest(r, "GET", "/entities/"+testEntityID+"/reports/trends?months=100", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestReportHandler_GetExpenseBreakdown(t *testing.T) {
	t.Run("returns 200 with breakdown", func(t *testing.T) {
		reportSvc := &mockReportService{
			getExpenseBreakdownFn: func(_ string, _, _ time.Time) ([]services.CategoryBreakdown, error) {
				return []services.CategoryBreakdown{
					{CategoryID: testCategoryID, CategoryName: "Rent", Total: 150000, Percentage: 75},
					{CategoryName: "Food", Total: 50000, Percentage: 25},
				}, nil
			},
		}
		handler := NewReportHandler(reportSvc)
		r := setupReportRouter(handler)

		rec := doRequest(r, "GET",
			"/entities/"+testEntityID+"/reports/breakdown?from_date=2026-01-01&to_date=2026-12-31", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		breakdown := result["breakdown"].([]interface{})
		if len(breakdown) != 2 {
			t.Fatalf("expected 2 categories, got %d", len(breakdown))
		}
		first := breakdown[0].(map[string]interface{})
		if first["category_name"] != "Rent" {
			t.Errorf("expected Rent first, got %v", first["category_name"])
		}
	})

	t.Run("returns 400 when range missing", func(t *testing.T) {
		handler := NewReportHandler(&mockReportService{})
		r := setupReportRouter(handler)

		rec := doRequest(r, "GET", "/entities/"+testEntityID+"/reports/breakdown?from_date=2026-01-01", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestReportHandler_ExportTransactions(t *testing.T) {
	t.Run("streams CSV with attachment headers", func(t *testing.T) {
		reportSvc := &mockReportService{
			exportTransactionsCSVFn: func(w io.Writer, _ string, _, _ *time.Time) error {
				_, err := w.Write([]byte("date,type,category,amount,description,notes\n"))
				return err
			},
		}
		handler := NewReportHandler(reportSvc)
		r := setupReportRouter(handler)

		rec := doRequest(r, "GET", "/entities/"+testEntityID+"/reports/export", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
			t.Errorf("expected text/csv, got %q", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
			t.Errorf("expected attachment disposition, got %q", cd)
		}
		if !strings.HasPrefix(rec.Body.String(), "date,type,category") {
			t.Errorf("expected CSV header, got %q", rec.Body.String())
		}
	})

	t.Run("returns 400 on malformed date", func(t *testing.T) {
		handler := NewReportHandler(&mockReportService{})
		r := setupReportRouter(handler)

		rec := doRequest(r, "GET", "/entities/"+testEntityID+"/reports/export?from_date=bad", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
