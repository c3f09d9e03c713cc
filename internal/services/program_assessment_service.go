package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pathlight-edu/assessment-service/internal/models"
	"github.com/pathlight-edu/assessment-service/internal/repositories"
	"github.com/pathlight-edu/assessment-service/internal/utils"
	"github.com/pathlight-edu/assessment-service/internal/validator"
)

// ProgramAssessmentService manages the binding of curriculum templates into
// programs with an availability window.
type ProgramAssessmentService interface {
	Find(ctx context.Context, id uint) (*models.ProgramAssessment, error)

	// FindForPrincipal is the read behind the HTTP API: the binding is only
	// visible to members of its program.
	FindForPrincipal(ctx context.Context, id uint, principalID string) (*models.ProgramAssessment, error)
	ListForProgram(ctx context.Context, programID uint, principalID string) ([]*models.ProgramAssessment, error)
	Create(ctx context.Context, req *CreateProgramAssessmentRequest, principalID string) (*models.ProgramAssessment, error)
	Update(ctx context.Context, id uint, req *UpdateProgramAssessmentRequest, principalID string) (*models.ProgramAssessment, error)
	Delete(ctx context.Context, id uint, principalID string) error
}

type programAssessmentService struct {
	repo      repositories.Repository
	validator *validator.Validator
	roles     RoleResolver
	logger    utils.Logger
}

func NewProgramAssessmentService(repo repositories.Repository, v *validator.Validator, roles RoleResolver, logger utils.Logger) ProgramAssessmentService {
	return &programAssessmentService{
		repo:      repo,
		validator: v,
		roles:     roles,
		logger:    logger,
	}
}

type CreateProgramAssessmentRequest struct {
	ProgramID      uint      `json:"program_id" validate:"required"`
	AssessmentID   uint      `json:"assessment_id" validate:"required"`
	AvailableAfter time.Time `json:"available_after" validate:"required"`
	DueDate        time.Time `json:"due_date" validate:"required"`
}

type UpdateProgramAssessmentRequest struct {
	AvailableAfter *time.Time `json:"available_after,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
}

func (s *programAssessmentService) Find(ctx context.Context, id uint) (*models.ProgramAssessment, error) {
	pa, err := s.repo.ProgramAssessment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProgramAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load program assessment: %w", err)
	}
	return pa, nil
}

func (s *programAssessmentService) FindForPrincipal(ctx context.Context, id uint, principalID string) (*models.ProgramAssessment, error) {
	pa, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	role, err := s.roles.RoleOf(ctx, principalID, pa.ProgramID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrNoProgramRole
	}
	return pa, nil
}

func (s *programAssessmentService) ListForProgram(ctx context.Context, programID uint, principalID string) ([]*models.ProgramAssessment, error) {
	role, err := s.roles.RoleOf(ctx, principalID, programID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrNoProgramRole
	}
	return s.repo.ProgramAssessment().ListForProgram(ctx, programID)
}

func (s *programAssessmentService) Create(ctx context.Context, req *CreateProgramAssessmentRequest, principalID string) (*models.ProgramAssessment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if !req.AvailableAfter.Before(req.DueDate) {
		return nil, ErrInvalidAvailabilityWindow
	}

	role, err := s.roles.RoleOf(ctx, principalID, req.ProgramID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrNoProgramRole
	}
	if *role != models.ProgramRoleFacilitator {
		return nil, fmt.Errorf("%w: only facilitators can schedule assessments", ErrForbidden)
	}

	if _, err := s.repo.CurriculumAssessment().GetByID(ctx, req.AssessmentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to verify curriculum assessment: %w", err)
	}

	pa := &models.ProgramAssessment{
		ProgramID:      req.ProgramID,
		AssessmentID:   req.AssessmentID,
		AvailableAfter: req.AvailableAfter,
		DueDate:        req.DueDate,
	}
	if err := s.repo.ProgramAssessment().Create(ctx, pa); err != nil {
		s.logger.Error("Failed to create program assessment", "program_id", req.ProgramID, "error", err)
		return nil, fmt.Errorf("failed to create program assessment: %w", err)
	}

	s.logger.Info("Program assessment created",
		"program_assessment_id", pa.ID, "program_id", pa.ProgramID, "assessment_id", pa.AssessmentID)
	return pa, nil
}

func (s *programAssessmentService) Update(ctx context.Context, id uint, req *UpdateProgramAssessmentRequest, principalID string) (*models.ProgramAssessment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	pa, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireFacilitator(ctx, principalID, pa.ProgramID, id, "update"); err != nil {
		return nil, err
	}

	after := pa.AvailableAfter
	due := pa.DueDate
	if req.AvailableAfter != nil {
		after = *req.AvailableAfter
	}
	if req.DueDate != nil {
		due = *req.DueDate
	}
	if !after.Before(due) {
		return nil, ErrInvalidAvailabilityWindow
	}

	pa.AvailableAfter = after
	pa.DueDate = due
	if err := s.repo.ProgramAssessment().Update(ctx, pa); err != nil {
		s.logger.Error("Failed to update program assessment", "program_assessment_id", id, "error", err)
		return nil, fmt.Errorf("failed to update program assessment: %w", err)
	}
	s.logger.Info("Program assessment updated", "program_assessment_id", id, "principal_id", principalID)
	return pa, nil
}

func (s *programAssessmentService) Delete(ctx context.Context, id uint, principalID string) error {
	pa, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireFacilitator(ctx, principalID, pa.ProgramID, id, "delete"); err != nil {
		return err
	}

	hasSubmissions, err := s.repo.ProgramAssessment().HasSubmissions(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check submissions: %w", err)
	}
	if hasSubmissions {
		return ErrProgramAssessmentNotDeletable
	}

	if err := s.repo.ProgramAssessment().Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete program assessment", "program_assessment_id", id, "error", err)
		return fmt.Errorf("failed to delete program assessment: %w", err)
	}

	s.logger.Info("Program assessment deleted", "program_assessment_id", id, "principal_id", principalID)
	return nil
}

func (s *programAssessmentService) requireFacilitator(ctx context.Context, principalID string, programID, resourceID uint, action string) error {
	role, err := s.roles.RoleOf(ctx, principalID, programID)
	if err != nil {
		return err
	}
	if role == nil {
		return ErrNoProgramRole
	}
	if *role != models.ProgramRoleFacilitator {
		return fmt.Errorf("%w: only facilitators can %s assessment schedules", ErrForbidden, action)
	}
	return nil
}
