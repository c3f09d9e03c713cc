package services

import (
	"context"
	"fmt"

	"github.com/pathlight-edu/assessment-service/internal/models"
	"github.com/pathlight-edu/assessment-service/internal/repositories"
	"github.com/pathlight-edu/assessment-service/internal/utils"
)

// RoleResolver answers "what is this principal to this program" for every
// authorization decision in the service layer. A nil role with a nil error
// means the principal has no relationship with the program at all.
type RoleResolver interface {
	RoleOf(ctx context.Context, principalID string, programID uint) (*models.ProgramRole, error)
}

type roleResolver struct {
	repo   repositories.Repository
	logger utils.Logger
}

func NewRoleResolver(repo repositories.Repository, logger utils.Logger) RoleResolver {
	return &roleResolver{repo: repo, logger: logger}
}

func (r *roleResolver) RoleOf(ctx context.Context, principalID string, programID uint) (*models.ProgramRole, error) {
	role, err := r.repo.Program().GetProgramRole(ctx, principalID, programID)
	if err != nil {
		r.logger.Error("Failed to resolve program role",
			"principal_id", principalID, "program_id", programID, "error", err)
		return nil, fmt.Errorf("failed to resolve program role: %w", err)
	}
	return role, nil
}
