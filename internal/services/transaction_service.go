package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/pagination"
)

// transactionService records and queries the entity ledger.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction records a new transaction against a category. The
// category must be active, belong to the entity, and match the
// transaction's type.
func (s *transactionService) CreateTransaction(
	entityID string,
	categoryID string,
	userID *string,
	transactionType models.TransactionType,
	amount int64,
	date time.Time,
	description string,
	notes string,
) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if date.IsZero() {
		date = time.Now()
	}

	category, err := s.activeCategory(entityID, categoryID)
	if err != nil {
		return nil, err
	}
	if category.Type != models.CategoryType(transactionType) {
		return nil, apperrors.ErrTransactionTypeMismatch
	}

	transaction := &models.Transaction{
		EntityID:    entityID,
		CategoryID:  categoryID,
		UserID:      userID,
		Type:        transactionType,
		Amount:      amount,
		Date:        date,
		Description: description,
		Notes:       notes,
	}

	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return transaction, nil
}

// GetEntityTransactions retrieves a paginated, filtered list of the
// entity's transactions. Ordering is date descending with created_at
// descending as the tie-breaker, so pagination is deterministic.
func (s *transactionService) GetEntityTransactions(
	entityID string,
	page pagination.PageRequest,
	filter TransactionFilter,
) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("entity_id = ?", entityID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").
		Scopes(pagination.Paginate(page)).
		Order("date DESC, created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	return q
}

// GetTransactionByID retrieves a transaction scoped to an entity. A
// transaction belonging to another entity yields the not-found sentinel,
// never a hint that it exists.
func (s *transactionService) GetTransactionByID(entityID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Category").
		Where("id = ? AND entity_id = ?", transactionID, entityID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction updates an existing transaction. Changing the category
// or the type re-validates the type-match invariant against the effective
// category.
func (s *transactionService) UpdateTransaction(
	entityID string,
	transactionID string,
	categoryID string,
	transactionType string,
	amount *int64,
	date *time.Time,
	description *string,
	notes *string,
) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(entityID, transactionID)
	if err != nil {
		return nil, err
	}

	if amount != nil && *amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	effectiveType := transaction.Type
	if transactionType != "" {
		effectiveType = models.TransactionType(transactionType)
	}
	effectiveCategoryID := transaction.CategoryID
	if categoryID != "" {
		effectiveCategoryID = categoryID
	}

	if categoryID != "" || transactionType != "" {
		category, err := s.activeCategory(entityID, effectiveCategoryID)
		if err != nil {
			return nil, err
		}
		if category.Type != models.CategoryType(effectiveType) {
			return nil, apperrors.ErrTransactionTypeMismatch
		}
	}

	updates := make(map[string]interface{})
	if categoryID != "" {
		updates["category_id"] = categoryID
	}
	if transactionType != "" {
		updates["type"] = transactionType
	}
	if amount != nil {
		updates["amount"] = *amount
	}
	if date != nil {
		updates["date"] = *date
	}
	if description != nil {
		updates["description"] = *description
	}
	if notes != nil {
		updates["notes"] = *notes
	}

	if len(updates) > 0 {
		if err := s.db.Model(transaction).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return transaction, nil
}

// DeleteTransaction removes a transaction scoped to an entity.
func (s *transactionService) DeleteTransaction(entityID, transactionID string) error {
	transaction, err := s.GetTransactionByID(entityID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// activeCategory fetches an active category scoped to the entity.
func (s *transactionService) activeCategory(entityID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND entity_id = ? AND is_active = ?", categoryID, entityID, true).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}
