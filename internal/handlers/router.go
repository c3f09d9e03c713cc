package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pathlight-edu/assessment-service/internal/services"
	"github.com/pathlight-edu/assessment-service/internal/utils"
)

type HandlerManager struct {
	assessmentHandler        *AssessmentHandler
	programAssessmentHandler *ProgramAssessmentHandler
	submissionHandler        *SubmissionHandler
	logger                   utils.Logger
}

func NewHandlerManager(
	catalog services.CatalogService,
	programAssessments services.ProgramAssessmentService,
	submissions services.SubmissionService,
	summaries services.SummaryService,
	export services.ExportService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		assessmentHandler:        NewAssessmentHandler(catalog, logger),
		programAssessmentHandler: NewProgramAssessmentHandler(programAssessments, export, logger),
		submissionHandler:        NewSubmissionHandler(submissions, summaries, logger),
		logger:                   logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(hm.logger))
	{
		// Curriculum assessment template routes
		assessments := v1.Group("/curriculum-assessments")
		{
			assessments.POST("", hm.assessmentHandler.CreateAssessment)
			assessments.GET("/:id", hm.assessmentHandler.GetAssessment)
			assessments.PUT("/:id", hm.assessmentHandler.UpdateAssessment)
			assessments.DELETE("/:id", hm.assessmentHandler.DeleteAssessment)
		}

		// Program assessment scheduling routes
		programAssessments := v1.Group("/program-assessments")
		{
			programAssessments.POST("", hm.programAssessmentHandler.CreateProgramAssessment)
			programAssessments.GET("/:id", hm.programAssessmentHandler.GetProgramAssessment)
			programAssessments.PUT("/:id", hm.programAssessmentHandler.UpdateProgramAssessment)
			programAssessments.DELETE("/:id", hm.programAssessmentHandler.DeleteProgramAssessment)
			programAssessments.GET("/:id/export", hm.programAssessmentHandler.ExportSubmissions)
			programAssessments.POST("/:id/submissions", hm.submissionHandler.StartSubmission)
		}

		v1.GET("/programs/:program_id/assessments", hm.programAssessmentHandler.ListForProgram)

		// Submission lifecycle routes
		submissions := v1.Group("/submissions")
		{
			submissions.GET("/:id", hm.submissionHandler.GetSubmission)
			submissions.PUT("/:id/responses", hm.submissionHandler.SaveResponses)
			submissions.POST("/:id/submit", hm.submissionHandler.SubmitSubmission)
			submissions.POST("/:id/grade", hm.submissionHandler.GradeSubmission)
		}

		// Cross-program listing with role-shaped summaries
		v1.GET("/assessments", hm.submissionHandler.ListMyAssessments)
	}
}

// HealthCheck reports service liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "assessment-service",
	})
}
