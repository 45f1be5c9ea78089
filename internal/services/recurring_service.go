package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/pagination"
)

// recurringService manages recurring templates and materializes
// transactions from them.
type recurringService struct {
	db *gorm.DB
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(db *gorm.DB) RecurringServicer {
	return &recurringService{db: db}
}

// CreateTemplate creates a new recurring template. The category must be
// active, belong to the entity, and match the template's type, and the
// end date (when present) must not precede the start date.
func (s *recurringService) CreateTemplate(
	entityID string,
	categoryID string,
	name string,
	amount int64,
	transactionType models.TransactionType,
	frequency models.Frequency,
	startDate time.Time,
	endDate *time.Time,
	description string,
	notes string,
) (*models.RecurringTemplate, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "template name is required")
	}
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if endDate != nil && endDate.Before(startDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	var category models.Category
	if err := s.db.Where("id = ? AND entity_id = ? AND is_active = ?", categoryID, entityID, true).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if category.Type != models.CategoryType(transactionType) {
		return nil, apperrors.ErrTransactionTypeMismatch
	}

	template := &models.RecurringTemplate{
		EntityID:    entityID,
		CategoryID:  categoryID,
		Name:        name,
		Amount:      amount,
		Type:        transactionType,
		Description: description,
		Notes:       notes,
		Frequency:   frequency,
		StartDate:   dateOnly(startDate),
		IsActive:    true,
	}
	if endDate != nil {
		end := dateOnly(*endDate)
		template.EndDate = &end
	}

	if err := s.db.Create(template).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return template, nil
}

// GetEntityTemplates returns a paginated list of the entity's templates.
func (s *recurringService) GetEntityTemplates(
	entityID string,
	includeInactive bool,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.RecurringTemplate], error) {
	page.Defaults()

	base := s.db.Model(&models.RecurringTemplate{}).Where("entity_id = ?", entityID)
	if !includeInactive {
		base = base.Where("is_active = ?", true)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var templates []models.RecurringTemplate
	if err := base.Preload("Category").Scopes(pagination.Paginate(page)).
		Order("created_at").
		Find(&templates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(templates, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTemplateByID returns a template scoped to an entity.
func (s *recurringService) GetTemplateByID(entityID, templateID string) (*models.RecurringTemplate, error) {
	var template models.RecurringTemplate
	if err := s.db.Preload("Category").
		Where("id = ? AND entity_id = ?", templateID, entityID).
		First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTemplateNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &template, nil
}

// UpdateTemplate updates an existing template's fields. Already-generated
// transactions are never touched: they captured the template's values at
// generation time.
func (s *recurringService) UpdateTemplate(
	entityID string,
	templateID string,
	name string,
	amount *int64,
	frequency *models.Frequency,
	endDate *time.Time,
	description *string,
	notes *string,
	isActive *bool,
) (*models.RecurringTemplate, error) {
	template, err := s.GetTemplateByID(entityID, templateID)
	if err != nil {
		return nil, err
	}

	if amount != nil && *amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if endDate != nil && endDate.Before(template.StartDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if amount != nil {
		updates["amount"] = *amount
	}
	if frequency != nil {
		updates["frequency"] = *frequency
	}
	if endDate != nil {
		end := dateOnly(*endDate)
		updates["end_date"] = end
	}
	if description != nil {
		updates["description"] = *description
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(template).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return template, nil
}

// DeactivateTemplate stops future generation for a template. Transactions
// it already produced are kept.
func (s *recurringService) DeactivateTemplate(entityID, templateID string) error {
	template, err := s.GetTemplateByID(entityID, templateID)
	if err != nil {
		return err
	}

	if err := s.db.Model(template).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Generate materializes transactions for every active template of an
// entity over [from, to]. The run is idempotent: the unique index over
// (recurring_template_id, occurrence_date) rejects occurrences that were
// already materialized, and the generator counts those as skips. A
// template whose category has since been deactivated is reported as a
// per-template failure without aborting the rest of the batch.
func (s *recurringService) Generate(entityID string, from, to time.Time) (*GenerationResult, error) {
	from = dateOnly(from)
	to = dateOnly(to)
	if to.Before(from) {
		return nil, apperrors.ErrInvalidDateRange
	}

	var templates []models.RecurringTemplate
	if err := s.db.Where("entity_id = ? AND is_active = ?", entityID, true).
		Order("created_at").
		Find(&templates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := &GenerationResult{Failures: []TemplateFailure{}}
	log := logger.Get()

	for i := range templates {
		template := &templates[i]

		upper := to
		if template.EndDate != nil && template.EndDate.Before(upper) {
			upper = *template.EndDate
		}
		lower := from
		if template.StartDate.After(lower) {
			lower = template.StartDate
		}
		if upper.Before(lower) {
			continue
		}

		var category models.Category
		err := s.db.Where("id = ? AND entity_id = ?", template.CategoryID, entityID).
			First(&category).Error
		if err != nil || !category.IsActive {
			result.Failures = append(result.Failures, TemplateFailure{
				TemplateID: template.ID,
				Name:       template.Name,
				Reason:     "category is inactive or missing",
			})
			continue
		}

		occurrences, err := occurrencesBetween(template.Frequency, template.StartDate, lower, upper)
		if err != nil {
			result.Failures = append(result.Failures, TemplateFailure{
				TemplateID: template.ID,
				Name:       template.Name,
				Reason:     err.Error(),
			})
			continue
		}

		for _, occurrence := range occurrences {
			created, err := s.materialize(template, occurrence)
			if err != nil {
				result.Failures = append(result.Failures, TemplateFailure{
					TemplateID: template.ID,
					Name:       template.Name,
					Reason:     err.Error(),
				})
				break
			}
			if created {
				result.Created++
			} else {
				result.Skipped++
			}
		}
	}

	log.Infow("recurring generation complete",
		"entity_id", entityID,
		"from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"),
		"created", result.Created,
		"skipped", result.Skipped,
		"failures", len(result.Failures),
	)
	return result, nil
}

// materialize inserts the transaction for one occurrence. A duplicate-key
// rejection from the storage layer means the occurrence was already
// generated, by this run's twin or an earlier one, and is not an error.
func (s *recurringService) materialize(template *models.RecurringTemplate, occurrence time.Time) (bool, error) {
	transaction := &models.Transaction{
		EntityID:            template.EntityID,
		CategoryID:          template.CategoryID,
		Type:                template.Type,
		Amount:              template.Amount,
		Date:                occurrence,
		Description:         template.Description,
		Notes:               template.Notes,
		RecurringTemplateID: &template.ID,
		OccurrenceDate:      &occurrence,
	}

	if err := s.db.Create(transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
