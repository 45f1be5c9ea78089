package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
)

// entityService handles entity and membership business logic.
type entityService struct {
	db *gorm.DB
}

// NewEntityService creates a new EntityServicer.
func NewEntityService(db *gorm.DB) EntityServicer {
	return &entityService{db: db}
}

// CreateEntity creates a new entity and makes the creator its owner.
// Both writes happen in one database transaction so an entity can never
// exist without at least one owner.
func (s *entityService) CreateEntity(userID, name string, entityType models.EntityType, description string) (*models.Entity, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "entity name is required")
	}

	entity := &models.Entity{
		Name:        name,
		Type:        entityType,
		Description: description,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entity).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		member := &models.EntityMember{
			UserID:   userID,
			EntityID: entity.ID,
			Role:     models.MemberRoleOwner,
		}
		if err := tx.Create(member).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entity, nil
}

// GetUserEntities returns all entities the user is a member of.
func (s *entityService) GetUserEntities(userID string) ([]models.Entity, error) {
	var entities []models.Entity
	err := s.db.
		Joins("JOIN entity_members ON entity_members.entity_id = entities.id").
		Where("entity_members.user_id = ?", userID).
		Order("entities.created_at").
		Find(&entities).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entities, nil
}

// GetEntityByID returns an entity if the user is a member of it.
// Non-members get the not-found sentinel, never a membership hint.
func (s *entityService) GetEntityByID(userID, entityID string) (*models.Entity, error) {
	if err := s.RequireMember(userID, entityID); err != nil {
		return nil, err
	}

	var entity models.Entity
	if err := s.db.Where("id = ?", entityID).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEntityNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &entity, nil
}

// UpdateEntity updates an entity's name and description.
func (s *entityService) UpdateEntity(userID, entityID, name, description string) (*models.Entity, error) {
	entity, err := s.GetEntityByID(userID, entityID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}

	if len(updates) > 0 {
		if err := s.db.Model(entity).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return entity, nil
}

// DeleteEntity removes an entity and, via cascading foreign keys, every
// row it owns. Only owners may delete.
func (s *entityService) DeleteEntity(userID, entityID string) error {
	role, err := s.memberRole(userID, entityID)
	if err != nil {
		return err
	}
	if role != models.MemberRoleOwner {
		return apperrors.ErrForbidden
	}

	if err := s.db.Where("id = ?", entityID).Delete(&models.Entity{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// AddMember adds a user (looked up by email) to an entity.
func (s *entityService) AddMember(userID, entityID, memberEmail string, role models.MemberRole) (*models.EntityMember, error) {
	if err := s.RequireMember(userID, entityID); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.Where("email = ? AND is_active = ?", memberEmail, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if role == "" {
		role = models.MemberRoleMember
	}

	member := &models.EntityMember{
		UserID:   user.ID,
		EntityID: entityID,
		Role:     role,
	}
	if err := s.db.Create(member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateMember
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return member, nil
}

// RemoveMember removes a user from an entity. The last owner cannot be
// removed, otherwise the entity would become unreachable.
func (s *entityService) RemoveMember(userID, entityID, memberUserID string) error {
	if err := s.RequireMember(userID, entityID); err != nil {
		return err
	}

	var member models.EntityMember
	if err := s.db.Where("user_id = ? AND entity_id = ?", memberUserID, entityID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrMemberNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if member.Role == models.MemberRoleOwner {
		var owners int64
		if err := s.db.Model(&models.EntityMember{}).
			Where("entity_id = ? AND role = ?", entityID, models.MemberRoleOwner).
			Count(&owners).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if owners <= 1 {
			return apperrors.ErrLastOwner
		}
	}

	if err := s.db.Delete(&member).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetMembers lists an entity's members with their users preloaded.
func (s *entityService) GetMembers(userID, entityID string) ([]models.EntityMember, error) {
	if err := s.RequireMember(userID, entityID); err != nil {
		return nil, err
	}

	var members []models.EntityMember
	if err := s.db.Preload("User").
		Where("entity_id = ?", entityID).
		Order("created_at").
		Find(&members).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return members, nil
}

// RequireMember returns ErrEntityNotFound unless the user is a member of
// the entity. Every entity-scoped operation goes through this check.
func (s *entityService) RequireMember(userID, entityID string) error {
	var count int64
	if err := s.db.Model(&models.EntityMember{}).
		Where("user_id = ? AND entity_id = ?", userID, entityID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrEntityNotFound
	}
	return nil
}

func (s *entityService) memberRole(userID, entityID string) (models.MemberRole, error) {
	var member models.EntityMember
	if err := s.db.Where("user_id = ? AND entity_id = ?", userID, entityID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrEntityNotFound
		}
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return member.Role, nil
}
