package repositories

import (
	"context"

	"github.com/pathlight-edu/assessment-service/internal/models"
)

// SubmissionRepository owns assessment submission rows. Submission state is
// never cached anywhere; every read goes to the store because grading and
// expiry can change state out of band.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (*models.AssessmentSubmission, error)
	GetByIDWithResponses(ctx context.Context, id uint) (*models.AssessmentSubmission, error)
	Create(ctx context.Context, submission *models.AssessmentSubmission) error
	Update(ctx context.Context, submission *models.AssessmentSubmission) error
	UpdateState(ctx context.Context, id uint, state models.SubmissionState) error

	// GetActive returns the participant's submission in Opened or In Progress
	// for the given program assessment, or nil when there is none.
	GetActive(ctx context.Context, programAssessmentID uint, principalID string) (*models.AssessmentSubmission, error)
	ListForParticipant(ctx context.Context, programAssessmentID uint, principalID string) ([]*models.AssessmentSubmission, error)
	ListForProgramAssessment(ctx context.Context, programAssessmentID uint, filters SubmissionFilters) ([]*models.AssessmentSubmission, error)
	CountForParticipant(ctx context.Context, programAssessmentID uint, principalID string) (int, error)

	// Facilitator summary aggregates. Zero rows yield zero, not an error.
	CountDistinctParticipants(ctx context.Context, programAssessmentID uint) (int, error)
	CountUngraded(ctx context.Context, programAssessmentID uint) (int, error)

	CreateEvent(ctx context.Context, event *models.SubmissionEvent) error
}

// ResponseRepository owns the per-question answer records of a submission.
type ResponseRepository interface {
	GetBySubmission(ctx context.Context, submissionID uint) ([]*models.AssessmentResponse, error)
	GetBySubmissionAndQuestion(ctx context.Context, submissionID, questionID uint) (*models.AssessmentResponse, error)
	Create(ctx context.Context, response *models.AssessmentResponse) error
	Update(ctx context.Context, response *models.AssessmentResponse) error
	UpdateGrade(ctx context.Context, id uint, score *int, graderResponse *string) error

	// HasResponsesForAssessment reports whether any response references a
	// question of the given curriculum assessment.
	HasResponsesForAssessment(ctx context.Context, curriculumAssessmentID uint) (bool, error)
}
