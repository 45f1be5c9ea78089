package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/pagination"
)

// categoryService maintains the per-entity category forest.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category, optionally nested under a parent.
// The parent must belong to the same entity and share the category type:
// income categories never nest under expense categories, and vice versa.
func (s *categoryService) CreateCategory(
	entityID string,
	name string,
	categoryType models.CategoryType,
	description string,
	icon string,
	color string,
	parentID *string,
) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	if parentID != nil {
		parent, err := s.activeParent(entityID, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.Type != categoryType {
			return nil, apperrors.ErrCategoryTypeMismatch
		}
	}

	category := &models.Category{
		EntityID:    entityID,
		Name:        name,
		Type:        categoryType,
		ParentID:    parentID,
		Description: description,
		Icon:        icon,
		Color:       color,
		IsActive:    true,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// GetEntityCategories retrieves a paginated flat list of the entity's
// categories, in insertion order, for dropdown population.
func (s *categoryService) GetEntityCategories(
	entityID string,
	categoryType *models.CategoryType,
	includeInactive bool,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	base := s.db.Model(&models.Category{}).Where("entity_id = ?", entityID)
	if categoryType != nil {
		base = base.Where("type = ?", *categoryType)
	}
	if !includeInactive {
		base = base.Where("is_active = ?", true)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryTree returns the entity's categories as a forest. Rows are
// stored flat and nested here in memory; siblings keep insertion order.
// A node whose parent is filtered out (or missing) surfaces as a root so
// the result always contains the full filtered node set.
func (s *categoryService) GetCategoryTree(entityID string, includeInactive bool) ([]*models.CategoryNode, error) {
	q := s.db.Where("entity_id = ?", entityID)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}

	var categories []models.Category
	if err := q.Order("created_at").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	nodes := make(map[string]*models.CategoryNode, len(categories))
	for i := range categories {
		nodes[categories[i].ID] = &models.CategoryNode{
			Category: categories[i],
			Children: []*models.CategoryNode{},
		}
	}

	roots := make([]*models.CategoryNode, 0)
	for i := range categories {
		node := nodes[categories[i].ID]
		if categories[i].ParentID != nil {
			if parent, ok := nodes[*categories[i].ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	return roots, nil
}

// GetCategoryByID retrieves a category scoped to an entity.
func (s *categoryService) GetCategoryByID(entityID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND entity_id = ?", categoryID, entityID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates an existing category. The type is immutable once
// set: changing it would invalidate the type invariant of existing children
// and transactions. Re-parenting is checked for self-reference, entity and
// type match, and cycles.
func (s *categoryService) UpdateCategory(
	entityID string,
	categoryID string,
	name string,
	categoryType string,
	description string,
	icon string,
	color string,
	parentID *string,
) (*models.Category, error) {
	category, err := s.GetCategoryByID(entityID, categoryID)
	if err != nil {
		return nil, err
	}

	if categoryType != "" && models.CategoryType(categoryType) != category.Type {
		return nil, apperrors.ErrCategoryTypeImmutable
	}

	// parentID == nil means unchanged; a pointer to "" clears the parent.
	if parentID != nil && *parentID != "" {
		if *parentID == categoryID {
			return nil, apperrors.ErrSelfParentCategory
		}

		parent, err := s.activeParent(entityID, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.Type != category.Type {
			return nil, apperrors.ErrCategoryTypeMismatch
		}

		// The storage layer cannot express "acyclic", so walk the ancestors
		// of the proposed parent and reject if we meet the category itself.
		onCycle, err := s.isDescendant(entityID, *parentID, categoryID)
		if err != nil {
			return nil, err
		}
		if onCycle {
			return nil, apperrors.ErrCategoryCycle
		}
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if color != "" {
		updates["color"] = color
	}
	if parentID != nil {
		if *parentID == "" {
			updates["parent_id"] = nil
		} else {
			updates["parent_id"] = *parentID
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return category, nil
}

// DeleteCategory soft-deactivates a category. Deletion is rejected while
// active children exist, and while any transaction, budget, or recurring
// template still references the category: historical records must keep a
// readable category label. The rejection here is authoritative; the
// schema's FK actions are a fallback only.
func (s *categoryService) DeleteCategory(entityID, categoryID string) error {
	category, err := s.GetCategoryByID(entityID, categoryID)
	if err != nil {
		return err
	}

	var childCount int64
	if err := s.db.Model(&models.Category{}).
		Where("parent_id = ? AND is_active = ?", categoryID, true).
		Count(&childCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if childCount > 0 {
		return apperrors.ErrCategoryHasChildren
	}

	inUse, err := s.isReferenced(categoryID)
	if err != nil {
		return err
	}
	if inUse {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.Model(category).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// activeParent fetches a prospective parent, scoped to the entity.
func (s *categoryService) activeParent(entityID, parentID string) (*models.Category, error) {
	var parent models.Category
	if err := s.db.Where("id = ? AND entity_id = ? AND is_active = ?", parentID, entityID, true).
		First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrParentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &parent, nil
}

// isDescendant walks up from startID and reports whether ancestorID is on
// the path. The walk is bounded by the entity's category count, so a
// corrupted chain cannot loop forever.
func (s *categoryService) isDescendant(entityID, startID, ancestorID string) (bool, error) {
	var total int64
	if err := s.db.Model(&models.Category{}).
		Where("entity_id = ?", entityID).
		Count(&total).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	current := startID
	for steps := int64(0); steps <= total; steps++ {
		var category models.Category
		if err := s.db.Select("id", "parent_id").
			Where("id = ? AND entity_id = ?", current, entityID).
			First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if category.ParentID == nil {
			return false, nil
		}
		if *category.ParentID == ancestorID {
			return true, nil
		}
		current = *category.ParentID
	}
	return true, nil
}

// isReferenced reports whether any transaction, budget, or recurring
// template still points at the category.
func (s *categoryService) isReferenced(categoryID string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Transaction{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return true, nil
	}

	if err := s.db.Model(&models.Budget{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return true, nil
	}

	if err := s.db.Model(&models.RecurringTemplate{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}
