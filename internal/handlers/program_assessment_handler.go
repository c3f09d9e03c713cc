package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pathlight-edu/assessment-service/internal/services"
	"github.com/pathlight-edu/assessment-service/internal/utils"
)

// ProgramAssessmentHandler serves the endpoints that bind templates into
// programs and the facilitator export.
type ProgramAssessmentHandler struct {
	BaseHandler
	programAssessments services.ProgramAssessmentService
	export             services.ExportService
}

func NewProgramAssessmentHandler(
	programAssessments services.ProgramAssessmentService,
	export services.ExportService,
	logger utils.Logger,
) *ProgramAssessmentHandler {
	return &ProgramAssessmentHandler{
		BaseHandler:        NewBaseHandler(logger),
		programAssessments: programAssessments,
		export:             export,
	}
}

// ListForProgram lists the assessments scheduled in a program
func (h *ProgramAssessmentHandler) ListForProgram(c *gin.Context) {
	programID := h.parseIDParam(c, "program_id")
	if programID == 0 {
		return
	}
	principalID, ok := h.principalID(c)
	if !ok {
		return
	}

	assessments, err := h.programAssessments.ListForProgram(c.Request.Context(), programID, principalID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessments)
}

// GetProgramAssessment returns one binding with its availability window
func (h *ProgramAssessmentHandler) GetProgramAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	principalID, ok := h.principalID(c)
	if !ok {
		return
	}

	pa, err := h.programAssessments.FindForPrincipal(c.Request.Context(), id, principalID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pa)
}

// CreateProgramAssessment schedules a template in a program
func (h *ProgramAssessmentHandler) CreateProgramAssessment(c *gin.Context) {
	var req services.CreateProgramAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	principalID, ok := h.principalID(c)
	if !ok {
		return
	}

	pa, err := h.programAssessments.Create(c.Request.Context(), &req, principalID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pa)
}

// UpdateProgramAssessment adjusts the availability window
func (h *ProgramAssessmentHandler) UpdateProgramAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateProgramAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	principalID, ok := h.principalID(c)
	if !ok {
		return
	}

	pa, err := h.programAssessments.Update(c.Request.Context(), id, &req, principalID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pa)
}

// DeleteProgramAssessment removes a binding that has no submissions yet
func (h *ProgramAssessmentHandler) DeleteProgramAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	principalID, ok := h.principalID(c)
	if !ok {
		return
	}

	if err := h.programAssessments.Delete(c.Request.Context(), id, principalID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Program assessment deleted"})
}

// ExportSubmissions streams an xlsx overview of the binding's submissions
func (h *ProgramAssessmentHandler) ExportSubmissions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	principalID, ok := h.principalID(c)
	if !ok {
		return
	}

	data, err := h.export.ExportSubmissions(c.Request.Context(), id, principalID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("submissions-%d.xlsx", id)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
