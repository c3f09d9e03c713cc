package repositories

import (
	"context"

	"github.com/pathlight-edu/assessment-service/internal/models"
)

// CurriculumAssessmentRepository owns the assessment template rows and their
// nested question/answer tree.
type CurriculumAssessmentRepository interface {
	// GetByID returns the bare template row, without questions.
	GetByID(ctx context.Context, id uint) (*models.CurriculumAssessment, error)
	// GetByIDWithQuestions returns the template with its full question/answer
	// tree at full fidelity, questions and answers ordered by sort_order.
	// Visibility filtering is the caller's job.
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.CurriculumAssessment, error)
	Create(ctx context.Context, assessment *models.CurriculumAssessment) error
	Update(ctx context.Context, assessment *models.CurriculumAssessment) error
	Delete(ctx context.Context, id uint) error

	// Nested tree reconciliation primitives.
	CreateQuestion(ctx context.Context, question *models.Question) error
	UpdateQuestion(ctx context.Context, question *models.Question) error
	DeleteQuestion(ctx context.Context, id uint) error
	CreateAnswer(ctx context.Context, answer *models.Answer) error
	UpdateAnswer(ctx context.Context, answer *models.Answer) error
	DeleteAnswer(ctx context.Context, id uint) error
}

// ProgramAssessmentRepository owns the binding of templates to program runs.
type ProgramAssessmentRepository interface {
	GetByID(ctx context.Context, id uint) (*models.ProgramAssessment, error)
	ListForProgram(ctx context.Context, programID uint) ([]*models.ProgramAssessment, error)
	Create(ctx context.Context, binding *models.ProgramAssessment) error
	Update(ctx context.Context, binding *models.ProgramAssessment) error
	Delete(ctx context.Context, id uint) error

	// HasSubmissions reports whether any submission exists for this binding.
	HasSubmissions(ctx context.Context, programAssessmentID uint) (bool, error)
}

// ProgramRepository is the membership side: programs, enrollment, and the
// role lookup every authorization decision starts from.
type ProgramRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Program, error)
	// GetProgramRole returns the principal's role in the program, or nil when
	// the principal has no relationship with it. Absence is not an error.
	GetProgramRole(ctx context.Context, principalID string, programID uint) (*models.ProgramRole, error)
	ListEnrolledProgramIDs(ctx context.Context, principalID string) ([]uint, error)
	CountParticipants(ctx context.Context, programID uint) (int, error)
	// FacilitatesAssessment reports whether the principal facilitates any
	// program whose run uses the given curriculum assessment.
	FacilitatesAssessment(ctx context.Context, principalID string, curriculumAssessmentID uint) (bool, error)
}
