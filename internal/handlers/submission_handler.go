package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pathlight-edu/assessment-service/internal/models"
	"github.com/pathlight-edu/assessment-service/internal/services"
	"github.com/pathlight-edu/assessment-service/internal/utils"
)

// SubmissionHandler serves the submission lifecycle and listing endpoints.
type SubmissionHandler struct {
	BaseHandler
	submissions services.SubmissionService
	summaries   services.SummaryService
}

func NewSubmissionHandler(
	submissions services.SubmissionService,
	summaries services.SummaryService,
	logger utils.Logger,
) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler: NewBaseHandler(logger),
		submissions: submissions,
		summaries:   summaries,
	}
}

// StartSubmission opens a new submission or resumes the active one
func (h *SubmissionHandler) StartSubmission(c *gin.Context) {
	programAssessmentID := h.parseIDParam(c, "id")
	if programAssessmentID == 0 {
		return
	}
	principalID, ok := h.principalID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting submission", "program_assessment_id", programAssessmentID)

	saved, err := h.submissions.StartOrResume(c.Request.Context(), programAssessmentID, principalID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if saved.Submission.State != models.SubmissionOpened || len(saved.Submission.Responses) > 0 {
		status = http.StatusOK
	}
	c.JSON(status, saved)
}

// GetSubmission returns a submission bundled with its template and binding
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	principalID, ok := h.principalID(c)
	if !ok {
		return
	}

	saved, err := h.submissions.Fetch(c.Request.Context(), id, principalID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, saved)
}

// SaveResponses upserts the participant's answers on an active submission
func (h *SubmissionHandler) SaveResponses(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.SaveResponsesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	principalID, ok := h.principalID(c)
	if !ok {
		return
	}

	submission, err := h.submissions.SaveResponses(c.Request.Context(), id, principalID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// SubmitSubmission finalizes an active submission
func (h *SubmissionHandler) SubmitSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	principalID, ok := h.principalID(c)
	if !ok {
		return
	}

	submission, err := h.submissions.Submit(c.Request.Context(), id, principalID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// GradeSubmission records per-response and overall scores
func (h *SubmissionHandler) GradeSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.GradeSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	principalID, ok := h.principalID(c)
	if !ok {
		return
	}

	submission, err := h.submissions.Grade(c.Request.Context(), id, principalID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// ListMyAssessments returns every scheduled assessment across the
// principal's programs with role-shaped summaries
func (h *SubmissionHandler) ListMyAssessments(c *gin.Context) {
	principalID, ok := h.principalID(c)
	if !ok {
		return
	}

	rows, err := h.summaries.ListAssessmentsForPrincipal(c.Request.Context(), principalID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}
