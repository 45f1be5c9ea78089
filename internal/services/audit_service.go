package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"tally/internal/logger"
	"tally/internal/models"
)

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit entry. Failures are logged and swallowed: auditing
// must never fail the mutation it describes.
func (s *auditService) Log(userID, entityID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	log := logger.Get()

	var changesJSON string
	if len(changes) > 0 {
		data, err := json.Marshal(changes)
		if err != nil {
			log.Warnw("failed to marshal audit changes", "error", err, "action", action)
		} else {
			changesJSON = string(data)
		}
	}

	entry := models.AuditLog{
		UserID:       userID,
		EntityID:     entityID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.Create(&entry).Error; err != nil {
		log.Errorw("failed to write audit log",
			"error", err,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
