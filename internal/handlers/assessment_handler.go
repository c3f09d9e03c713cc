package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pathlight-edu/assessment-service/internal/services"
	"github.com/pathlight-edu/assessment-service/internal/utils"
)

// AssessmentHandler serves the curriculum assessment template endpoints.
type AssessmentHandler struct {
	BaseHandler
	catalog services.CatalogService
}

func NewAssessmentHandler(catalog services.CatalogService, logger utils.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		BaseHandler: NewBaseHandler(logger),
		catalog:     catalog,
	}
}

// GetAssessment retrieves a curriculum assessment template. The query
// parameters questions=all and questions=correct control how much of the
// question tree the response carries.
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	principalID, ok := h.principalID(c)
	if !ok {
		return
	}

	includeAll := false
	includeCorrect := false
	switch c.Query("questions") {
	case "all":
		includeAll = true
	case "correct":
		includeAll = true
		includeCorrect = true
	case "":
		// bare template only
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid questions parameter",
			Details: "must be one of: all, correct",
		})
		return
	}

	assessment, err := h.catalog.GetForPrincipal(c.Request.Context(), id, principalID, includeAll, includeCorrect)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// CreateAssessment creates a new curriculum assessment template
func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	var req services.CreateCurriculumAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	principalID, ok := h.principalID(c)
	if !ok {
		return
	}

	assessment, err := h.catalog.Create(c.Request.Context(), &req, principalID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assessment)
}

// UpdateAssessment updates a template and reconciles its question tree
func (h *AssessmentHandler) UpdateAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateCurriculumAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	principalID, ok := h.principalID(c)
	if !ok {
		return
	}

	assessment, err := h.catalog.Update(c.Request.Context(), id, &req, principalID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// DeleteAssessment removes a template that has no submissions yet
func (h *AssessmentHandler) DeleteAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	principalID, ok := h.principalID(c)
	if !ok {
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), id, principalID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Curriculum assessment deleted"})
}
