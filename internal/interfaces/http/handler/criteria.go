package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	provapp "github.com/jrobgood/fineract-poc/internal/application/provisioning"
)

// CriteriaHandler handles provisioning criteria API endpoints
type CriteriaHandler struct {
	BaseHandler
	criteriaService *provapp.CriteriaService
	templateService *provapp.TemplateService
}

// NewCriteriaHandler creates a new CriteriaHandler
func NewCriteriaHandler(criteriaService *provapp.CriteriaService, templateService *provapp.TemplateService) *CriteriaHandler {
	return &CriteriaHandler{
		criteriaService: criteriaService,
		templateService: templateService,
	}
}

// Create handles POST /provisioning/criteria. The whole aggregate is
// validated and written in one transaction; on success only the generated
// id is returned.
func (h *CriteriaHandler) Create(c *gin.Context) {
	var req provapp.CreateCriteriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.criteriaService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID handles GET /provisioning/criteria/:id
func (h *CriteriaHandler) GetByID(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid criteria ID format")
		return
	}

	criteria, err := h.criteriaService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, criteria)
}

// List handles GET /provisioning/criteria
func (h *CriteriaHandler) List(c *gin.Context) {
	var filter provapp.CriteriaListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	// Set default pagination
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	criteria, total, err := h.criteriaService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, criteria, total, filter.Page, filter.PageSize)
}

// Template handles GET /provisioning/criteria/template. It returns the
// reference data needed to build a criteria: categories, eligible GL
// accounts and the loan products not yet claimed by another criteria. An
// optional exclude_criteria_id keeps a criteria's own products selectable
// while editing it.
func (h *CriteriaHandler) Template(c *gin.Context) {
	var excludeID int64
	if raw := c.Query("exclude_criteria_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			h.BadRequest(c, "Invalid exclude_criteria_id format")
			return
		}
		excludeID = parsed
	}

	template, err := h.templateService.Template(c.Request.Context(), excludeID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, template)
}

// Update handles PUT /provisioning/criteria/:id. The response reports
// which fields actually changed; an unchanged payload yields an empty
// change map and no write.
func (h *CriteriaHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid criteria ID format")
		return
	}

	var req provapp.UpdateCriteriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.criteriaService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Delete handles DELETE /provisioning/criteria/:id. Deletion is refused
// while provisioning entries reference the criteria.
func (h *CriteriaHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid criteria ID format")
		return
	}

	if _, err := h.criteriaService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
