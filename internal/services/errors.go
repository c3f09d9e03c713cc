package services

import (
	"errors"
	"fmt"

	apperrors "github.com/pathlight-edu/assessment-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Catalog errors
	ErrAssessmentNotFound     = errors.New("curriculum assessment not found")
	ErrAssessmentNotDeletable = errors.New("curriculum assessment cannot be deleted - has existing submissions")

	// Program assessment errors
	ErrProgramAssessmentNotFound     = errors.New("program assessment not found")
	ErrProgramAssessmentNotDeletable = errors.New("program assessment cannot be deleted - has existing submissions")
	ErrInvalidAvailabilityWindow     = errors.New("available_after must be before due_date")

	// Distinct window violations: these look identical ("forbidden") but
	// require different corrective action from the caller.
	ErrAssessmentNotYetAvailable = errors.New("could not create a new submission of an assessment that's not yet available")
	ErrAssessmentPastDueDate     = errors.New("could not create a new submission of an assessment that passed the due date")

	// Submission lifecycle errors
	ErrSubmissionNotFound         = errors.New("submission not found")
	ErrSubmissionQuotaExceeded    = errors.New("maximum number of submissions reached for this assessment")
	ErrFacilitatorCannotSubmit    = errors.New("facilitators may not submit their own program's assessments")
	ErrSubmissionNotActive        = errors.New("submission is no longer open for changes")
	ErrSubmissionExpired          = errors.New("submission has expired and can no longer be updated")
	ErrSubmissionAlreadySubmitted = errors.New("submission has already been submitted")
	ErrSubmissionNotSubmitted     = errors.New("submission must be submitted before it can be graded")
	ErrSubmissionAlreadyGraded    = errors.New("submission has already been graded")

	// Program/role errors
	ErrProgramNotFound = errors.New("program not found")
	ErrNoProgramRole   = errors.New("no role in the program that owns this resource")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	PrincipalID string `json:"principal_id"`
	ResourceID  uint   `json:"resource_id"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Reason      string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: principal %s cannot %s %s %d - %s",
		pe.PrincipalID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

func NewPermissionError(principalID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		PrincipalID: principalID,
		ResourceID:  resourceID,
		Resource:    resource,
		Action:      action,
		Reason:      reason,
	}
}

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// ===== ERROR CLASSIFIERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAssessmentNotFound) ||
		errors.Is(err, ErrProgramAssessmentNotFound) ||
		errors.Is(err, ErrSubmissionNotFound) ||
		errors.Is(err, ErrProgramNotFound)
}

// IsUnauthorized checks if error represents a "no relationship or wrong
// owner" condition
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNoProgramRole) {
		return true
	}
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsForbidden checks if error represents a "role known, action policy
// blocked" condition
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrAssessmentNotYetAvailable) ||
		errors.Is(err, ErrAssessmentPastDueDate) ||
		errors.Is(err, ErrFacilitatorCannotSubmit) ||
		errors.Is(err, ErrSubmissionExpired)
}

// IsConflict checks if error represents a state or dependency conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAssessmentNotDeletable) ||
		errors.Is(err, ErrProgramAssessmentNotDeletable) ||
		errors.Is(err, ErrSubmissionQuotaExceeded) ||
		errors.Is(err, ErrSubmissionNotActive) ||
		errors.Is(err, ErrSubmissionAlreadySubmitted) ||
		errors.Is(err, ErrSubmissionNotSubmitted) ||
		errors.Is(err, ErrSubmissionAlreadyGraded)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrInvalidAvailabilityWindow) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}
