package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "tally/internal/errors"
	"tally/internal/services"
)

// ReportHandler handles derived reporting requests.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetMonthlySummary handles the monthly summary report.
// @Summary     Get monthly summary
// @Description Get income, expenses, and net for one calendar month
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       entityID path string true "Entity ID"
// @Param       year  query int true "Year"
// @Param       month query int true "Month (1-12)"
// @Success     200 {object} services.MonthlySummary "Monthly summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entity not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities/{entityID}/reports/summary [get]
func (h *ReportHandler) GetMonthlySummary(c *gin.Context) {
	entityID, err := getEntityID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 1970 || year > 9999 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be a four-digit year"))
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12"))
		return
	}

	summary, err := h.reportService.GetMonthlySummary(entityID, year, time.Month(month))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetMonthlyTrends handles the month-over-month trends report.
// @Summary     Get monthly trends
// @Description Get per-month summaries for the last N months, oldest first
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       entityID path string true "Entity ID"
// @Param       months query int false "Number of months (default 6, max 36)"
// @Success     200 {array} services.MonthlySummary "Monthly trends"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entity not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities/{entityID}/reports/trends [get]
func (h *ReportHandler) GetMonthlyTrends(c *gin.Context) {
	entityID, err := getEntityID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	months := 6
	if v := c.Query("months"); v != "" {
		months, err = strconv.Atoi(v)
		if err != nil || months < 1 || months > 36 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "months must be between 1 and 36"))
			return
		}
	}

	trends, err := h.reportService.GetMonthlyTrends(entityID, months)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trends": trends})
}

// GetExpenseBreakdown handles the per-category expense breakdown report.
// @Summary     Get expense breakdown
// @Description Get per-category expense totals and shares over a date range
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       entityID path string true "Entity ID"
// @Param       from_date query string true "Earliest date (YYYY-MM-DD)"
// @Param       to_date   query string true "Latest date (YYYY-MM-DD)"
// @Success     200 {array} services.CategoryBreakdown "Expense breakdown"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entity not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities/{entityID}/reports/breakdown [get]
func (h *ReportHandler) GetExpenseBreakdown(c *gin.Context) {
	entityID, err := getEntityID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, err := parseDateQuery(c, "from_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := parseDateQuery(c, "to_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if from == nil || to == nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "from_date and to_date are required"))
		return
	}

	breakdown, err := h.reportService.GetExpenseBreakdown(entityID, *from, *to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"breakdown": breakdown})
}

// ExportTransactions streams the entity's transactions as CSV.
// @Summary     Export transactions
// @Description Download the entity's transactions as a CSV file
// @Tags        reports
// @Accept      json
// @Produce     text/csv
// @Security    BearerAuth
// @Param       entityID path string true "Entity ID"
// @Param       from_date query string false "Earliest date (YYYY-MM-DD)"
// @Param       to_date   query string false "Latest date (YYYY-MM-DD)"
// @Success     200 {string} string "CSV data"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entity not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities/{entityID}/reports/export [get]
func (h *ReportHandler) ExportTransactions(c *gin.Context) {
	entityID, err := getEntityID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, err := parseDateQuery(c, "from_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := parseDateQuery(c, "to_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("transactions-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.reportService.ExportTransactionsCSV(c.Writer, entityID, from, to); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
