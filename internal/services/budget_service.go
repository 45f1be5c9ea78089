package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/pagination"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates a new budget for a category. At most one budget may
// exist per (entity, category, period type, start date); the pre-check here
// gives a clean conflict response, and the unique index backs it up against
// races.
func (s *budgetService) CreateBudget(
	entityID string,
	categoryID string,
	amount int64,
	periodType models.BudgetPeriod,
	startDate time.Time,
	endDate *time.Time,
) (*models.Budget, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if endDate != nil && endDate.Before(startDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	var category models.Category
	if err := s.db.Where("id = ? AND entity_id = ?", categoryID, entityID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var count int64
	if err := s.db.Model(&models.Budget{}).
		Where("entity_id = ? AND category_id = ? AND period_type = ? AND start_date = ?",
			entityID, categoryID, periodType, startDate).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateBudget
	}

	budget := &models.Budget{
		EntityID:   entityID,
		CategoryID: categoryID,
		Amount:     amount,
		PeriodType: periodType,
		StartDate:  startDate,
		EndDate:    endDate,
		IsActive:   true,
	}

	if err := s.db.Create(budget).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateBudget
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

// GetEntityBudgets returns a paginated list of the entity's budgets with
// optional filters.
func (s *budgetService) GetEntityBudgets(
	entityID string,
	page pagination.PageRequest,
	isActive *bool,
	periodType *models.BudgetPeriod,
) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("entity_id = ?", entityID)
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}
	if periodType != nil {
		base = base.Where("period_type = ?", *periodType)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").Scopes(pagination.Paginate(page)).
		Order("created_at").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget scoped to an entity.
func (s *budgetService) GetBudgetByID(entityID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").
		Where("id = ? AND entity_id = ?", budgetID, entityID).
		First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates an existing budget's fields.
func (s *budgetService) UpdateBudget(
	entityID string,
	budgetID string,
	amount *int64,
	periodType *models.BudgetPeriod,
	endDate *time.Time,
	isActive *bool,
) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(entityID, budgetID)
	if err != nil {
		return nil, err
	}

	if amount != nil && *amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if endDate != nil && endDate.Before(budget.StartDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	updates := make(map[string]interface{})
	if amount != nil {
		updates["amount"] = *amount
	}
	if periodType != nil {
		updates["period_type"] = *periodType
	}
	if endDate != nil {
		updates["end_date"] = endDate
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperrors.ErrDuplicateBudget
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return budget, nil
}

// DeleteBudget deactivates a budget. The row is kept so historical
// spending views remain explainable.
func (s *budgetService) DeleteBudget(entityID, budgetID string) error {
	budget, err := s.GetBudgetByID(entityID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Model(budget).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBudgetSpending computes spending against a budget for its current
// period window. The aggregate is always derived from the ledger, never
// stored, so there is no counter to keep consistent.
func (s *budgetService) GetBudgetSpending(entityID, budgetID string) (*BudgetSpending, error) {
	budget, err := s.GetBudgetByID(entityID, budgetID)
	if err != nil {
		return nil, err
	}

	periodStart, periodEnd := budgetWindow(budget.PeriodType, budget.StartDate, budget.EndDate, time.Now().UTC())

	var spent int64
	err = s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("entity_id = ? AND category_id = ? AND type = ? AND date BETWEEN ? AND ?",
			entityID, budget.CategoryID, models.TransactionTypeExpense, periodStart, periodEnd).
		Scan(&spent).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var percentage float64
	if budget.Amount > 0 {
		percentage = float64(spent) / float64(budget.Amount) * 100
	}

	return &BudgetSpending{
		BudgetID:    budget.ID,
		Budgeted:    budget.Amount,
		Spent:       spent,
		Remaining:   budget.Amount - spent,
		Percentage:  percentage,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}, nil
}

// periodMonths maps a budget period to its length in months.
func periodMonths(periodType models.BudgetPeriod) int {
	switch periodType {
	case models.BudgetPeriodQuarterly:
		return 3
	case models.BudgetPeriodYearly:
		return 12
	default:
		return 1
	}
}

// budgetWindow derives the aggregation window for a budget at the given
// instant. While now falls inside the budget's active range the window is
// calendar-aligned (the month, quarter, or year containing now); outside
// the range it is the first window of that length anchored at the start
// date. The end is clamped to the budget's end date when one is set.
func budgetWindow(periodType models.BudgetPeriod, startDate time.Time, endDate *time.Time, now time.Time) (time.Time, time.Time) {
	months := periodMonths(periodType)

	var start time.Time
	if !now.Before(startDate) && (endDate == nil || !now.After(endOfDay(*endDate))) {
		switch periodType {
		case models.BudgetPeriodMonthly:
			start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		case models.BudgetPeriodQuarterly:
			quarterStart := time.Month(((int(now.Month())-1)/3)*3 + 1)
			start = time.Date(now.Year(), quarterStart, 1, 0, 0, 0, 0, time.UTC)
		default:
			start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		}
	} else {
		start = startDate
	}

	end := start.AddDate(0, months, 0).Add(-time.Nanosecond)
	if endDate != nil && end.After(endOfDay(*endDate)) {
		end = endOfDay(*endDate)
	}
	return start, end
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
