package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/services"
)

// RecurringHandler handles recurring-template requests.
type RecurringHandler struct {
	recurringService services.RecurringServicer
	auditService     services.AuditServicer
}

// NewRecurringHandler creates a new RecurringHandler.
func NewRecurringHandler(recurringService services.RecurringServicer, auditService services.AuditServicer) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService, auditService: auditService}
}

// CreateTemplateRequest represents the request payload for creating a recurring template.
type CreateTemplateRequest struct {
	CategoryID  string                 `json:"category_id" binding:"required,uuid"`
	Name        string                 `json:"name" binding:"required,min=1,max=100"`
	Amount      int64                  `json:"amount" binding:"required,gt=0"`
	Type        models.TransactionType `json:"type" binding:"required,transaction_type"`
	Frequency   models.Frequency       `json:"frequency" binding:"required,frequency"`
	StartDate   time.Time              `json:"start_date" binding:"required"`
	EndDate     *time.Time             `json:"end_date"`
	Description string                 `json:"description" binding:"max=500"`
	Notes       string                 `json:"notes" binding:"max=2000"`
}

// UpdateTemplateRequest represents the request payload for updating a recurring template.
type UpdateTemplateRequest struct {
	Name        string            `json:"name" binding:"omitempty,min=1,max=100"`
	Amount      *int64            `json:"amount" binding:"omitempty,gt=0"`
	Frequency   *models.Frequency `json:"frequency" binding:"omitempty,frequency"`
	EndDate     *time.Time        `json:"end_date"`
	Description *string           `json:"description" binding:"omitempty,max=500"`
	Notes       *string           `json:"notes" binding:"omitempty,max=2000"`
	IsActive    *bool             `json:"is_active"`
}

// GenerateRequest represents the request payload for a generation run.
type GenerateRequest struct {
	FromDate time.Time `json:"from_date" binding:"required"`
	ToDate   time.Time `json:"to_date" binding:"required"`
}

// CreateTemplate handles the creation of a new recurring template.
// @Summary     Create a recurring template
// @Description Create a template that materializes transactions on a schedule
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       entityID path string true "Entity ID"
// @Param       request body CreateTemplateRequest true "Template details"
// @Success     201 {object} models.RecurringTemplate "Template created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entity or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities/{entityID}/recurring [post]
func (h *RecurringHandler) CreateTemplate(c *gin.Context) {
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

	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	template, err := h.recurringService.CreateTemplate(
		entityID, req.CategoryID, req.Name, req.Amount, req.Type, req.Frequency,
		req.StartDate, req.EndDate, req.Description, req.Notes,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, entityID, "CREATE_RECURRING_TEMPLATE", "recurring_template", template.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "frequency": req.Frequency, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"template": template})
}

// GetTemplates handles listing the entity's recurring templates.
// @Summary     Get recurring templates
// @Description Get a paginated list of the entity's recurring templates
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       entityID path string true "Entity ID"
// @Param       include_inactive query bool false "Include deactivated templates"
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.RecurringTemplate] "Paginated templates"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entity not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities/{entityID}/recurring [get]
func (h *RecurringHandler) GetTemplates(c *gin.Context) {
	entityID, err := getEntityID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	includeInactive, err := parseBoolQuery(c, "include_inactive")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.recurringService.GetEntityTemplates(entityID, includeInactive != nil && *includeInactive, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTemplateByID handles the retrieval of a specific template.
// @Summary     Get recurring template by ID
// @Description Get a specific recurring template
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       entityID path string true "Entity ID"
// @Param       id path string true "Template ID"
// @Success     200 {object} models.RecurringTemplate "Template details"
// @Failure     400 {object} ErrorResponse "Invalid template ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities/{entityID}/recurring/{id} [get]
func (h *RecurringHandler) GetTemplateByID(c *gin.Context) {
	entityID, err := getEntityID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	templateID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	template, err := h.recurringService.GetTemplateByID(entityID, templateID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"template": template})
}

// UpdateTemplate handles updating a recurring template.
// @Summary     Update recurring template
// @Description Update a template; transactions it already generated are untouched
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       entityID path string true "Entity ID"
// @Param       id path string true "Template ID"
// @Param       request body UpdateTemplateRequest true "Updated template details"
// @Success     200 {object} models.RecurringTemplate "Updated template"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities/{entityID}/recurring/{id} [put]
func (h *RecurringHandler) UpdateTemplate(c *gin.Context) {
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
	templateID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	template, err := h.recurringService.UpdateTemplate(
		entityID, templateID, req.Name, req.Amount, req.Frequency, req.EndDate,
		req.Description, req.Notes, req.IsActive,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, entityID, "UPDATE_RECURRING_TEMPLATE", "recurring_template", templateID, c.ClientIP(),
		map[string]interface{}{"name": req.Name})

	c.JSON(http.StatusOK, gin.H{"template": template})
}

// DeactivateTemplate handles deactivating a recurring template.
// @Summary     Deactivate recurring template
// @Description Stop future generation for a template; generated transactions are kept
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       entityID path string true "Entity ID"
// @Param       id path string true "Template ID"
// @Success     200 {object} MessageResponse "Template deactivated"
// @Failure     400 {object} ErrorResponse "Invalid template ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities/{entityID}/recurring/{id} [delete]
func (h *RecurringHandler) DeactivateTemplate(c *gin.Context) {
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
	templateID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.recurringService.DeactivateTemplate(entityID, templateID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, entityID, "DEACTIVATE_RECURRING_TEMPLATE", "recurring_template", templateID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Template deactivated successfully"})
}

// Generate handles a recurring-generation run for the entity.
// @Summary     Generate recurring transactions
// @Description Materialize transactions from active templates over a date range; idempotent
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       entityID path string true "Entity ID"
// @Param       request body GenerateRequest true "Generation window"
// @Success     200 {object} services.GenerationResult "Generation summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Entity not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /entities/{entityID}/recurring/generate [post]
func (h *RecurringHandler) Generate(c *gin.Context) {
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

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.recurringService.Generate(entityID, req.FromDate, req.ToDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, entityID, "GENERATE_RECURRING", "recurring_template", "", c.ClientIP(),
		map[string]interface{}{"created": result.Created, "skipped": result.Skipped, "failures": len(result.Failures)})

	c.JSON(http.StatusOK, gin.H{"result": result})
}
