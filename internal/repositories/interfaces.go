package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates the per-entity repositories behind one handle.
// WithTransaction runs fn against a repository bound to a single database
// transaction; the transaction commits when fn returns nil and rolls back
// otherwise.
type Repository interface {
	CurriculumAssessment() CurriculumAssessmentRepository
	ProgramAssessment() ProgramAssessmentRepository
	Submission() SubmissionRepository
	Response() ResponseRepository
	Program() ProgramRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// IsNotFoundError reports whether err is the backing store's "no rows" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is a unique-constraint violation, such
// as the active-submission index rejecting a second concurrent open attempt.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// SubmissionFilters narrows submission listings.
type SubmissionFilters struct {
	PrincipalID *string `json:"principal_id"`
	State       *string `json:"state"`
	Limit       int     `json:"limit"`
	Offset      int     `json:"offset"`
}
