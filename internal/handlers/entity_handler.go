package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/services"
)

// EntityHandler handles entity and membership requests.
type EntityHandler struct {
	entityService services.EntityServicer
	auditService  services.AuditServicer
}

// NewEntityHandler creates a new EntityHandler.
func NewEntityHandler(entityService services.EntityServicer, auditService services.AuditServicer) *EntityHandler {
	return &EntityHandler{entityService: entityService, auditService: auditService}
}

// CreateEntityRequest represents the request payload for creating an entity.
type CreateEntityRequest struct {
	Name        string            `json:"name" binding:"required,min=1,max=100"`
	Type        models.EntityType `json:"type" binding:"required,entity_type"`
	Description string            `json:"description" binding:"max=500"`
}

// UpdateEntityRequest represents the request payload for updating an entity.
type UpdateEntityRequest struct {
	Name        string `json:"name" binding:"omitempty,min=1,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// AddMemberRequest represents the request payload for adding a member.
type AddMemberRequest struct {
	Email string            `json:"email" binding:"required,email"`
	Role  models.MemberRole `json:"role" binding:"omitempty,member_role"`
}

// CreateEntity handles the creation of a new entity.
// @Summary     Create an entity
// @Description Create a new financial tracking context; the creator becomes its owner
// @Tags        entities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateEntityRequest true "Entity details"
// @Success     201 {object} models.Entity "Entity created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities [post]
func (h *EntityHandler) CreateEntity(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	entity, err := h.entityService.CreateEntity(userID, req.Name, req.Type, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, entity.ID, "CREATE_ENTITY", "entity", entity.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "type": req.Type})

	c.JSON(http.StatusCreated, gin.H{"entity": entity})
}

// GetEntities lists the entities the authenticated user belongs to.
// @Summary     Get entities
// @Description Get all entities the authenticated user is a member of
// @Tags        entities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Entity "List of entities"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities [get]
func (h *EntityHandler) GetEntities(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entities, err := h.entityService.GetUserEntities(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entities": entities})
}

// GetEntity returns one entity.
// @Summary     Get entity by ID
// @Description Get a specific entity the user is a member of
// @Tags        entities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       entityID path string true "Entity ID"
// @Success     200 {object} models.Entity "Entity details"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entity not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities/{entityID} [get]
func (h *EntityHandler) GetEntity(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	entityID, err := getEntityID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entity, err := h.entityService.GetEntityByID(userID, entityID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entity": entity})
}

// UpdateEntity updates an entity's name or description.
// @Summary     Update entity
// @Description Update an entity's name and description
// @Tags        entities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       entityID path string true "Entity ID"
// @Param       request body UpdateEntityRequest true "Updated entity details"
// @Success     200 {object} models.Entity "Updated entity"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entity not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities/{entityID} [put]
func (h *EntityHandler) UpdateEntity(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	entityID, err := getEntityID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	entity, err := h.entityService.UpdateEntity(userID, entityID, req.Name, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, entityID, "UPDATE_ENTITY", "entity", entityID, c.ClientIP(),
		map[string]interface{}{"name": req.Name})

	c.JSON(http.StatusOK, gin.H{"entity": entity})
}

// DeleteEntity removes an entity and everything it owns.
// @Summary     Delete entity
// @Description Delete an entity; owners only
// @Tags        entities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       entityID path string true "Entity ID"
// @Success     200 {object} MessageResponse "Entity deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not an owner"
// @Failure     404 {object} ErrorResponse "Entity not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities/{entityID} [delete]
func (h *EntityHandler) DeleteEntity(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	entityID, err := getEntityID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.entityService.DeleteEntity(userID, entityID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, entityID, "DELETE_ENTITY", "entity", entityID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Entity deleted successfully"})
}

// GetMembers lists an entity's members.
// @Summary     Get entity members
// @Description List the members of an entity
// @Tags        entities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       entityID path string true "Entity ID"
// @Success     200 {array} models.EntityMember "List of members"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entity not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities/{entityID}/members [get]
func (h *EntityHandler) GetMembers(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	entityID, err := getEntityID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	members, err := h.entityService.GetMembers(userID, entityID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// AddMember adds a user to an entity by email.
// @Summary     Add entity member
// @Description Add a registered user to an entity by email
// @Tags        entities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       entityID path string true "Entity ID"
// @Param       request body AddMemberRequest true "Member details"
// @Success     201 {object} models.EntityMember "Member added"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entity or user not found"
// @Failure     409 {object} ErrorResponse "Already a member"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities/{entityID}/members [post]
func (h *EntityHandler) AddMember(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	entityID, err := getEntityID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	member, err := h.entityService.AddMember(userID, entityID, req.Email, req.Role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, entityID, "ADD_MEMBER", "entity_member", member.ID, c.ClientIP(),
		map[string]interface{}{"email": req.Email, "role": member.Role})

	c.JSON(http.StatusCreated, gin.H{"member": member})
}

// RemoveMember removes a user from an entity.
// @Summary     Remove entity member
// @Description Remove a member from an entity; the last owner cannot be removed
// @Tags        entities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       entityID path string true "Entity ID"
// @Param       userID   path string true "Member user ID"
// @Success     200 {object} MessageResponse "Member removed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entity or member not found"
// @Failure     409 {object} ErrorResponse "Last owner"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities/{entityID}/members/{userID} [delete]
func (h *EntityHandler) RemoveMember(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	entityID, err := getEntityID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	memberUserID, err := parsePathUUID(c, "userID")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.entityService.RemoveMember(userID, entityID, memberUserID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, entityID, "REMOVE_MEMBER", "entity_member", memberUserID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}
