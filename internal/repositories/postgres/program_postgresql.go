package postgres

import (
	"context"
	"errors"

	"github.com/pathlight-edu/assessment-service/internal/models"
	"github.com/pathlight-edu/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type ProgramPostgreSQL struct {
	db *gorm.DB
}

func NewProgramPostgreSQL(db *gorm.DB) repositories.ProgramRepository {
	return &ProgramPostgreSQL{db: db}
}

func (r ProgramPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Program, error) {
	var program models.Program
	if err := r.db.WithContext(ctx).First(&program, id).Error; err != nil {
		return nil, err
	}
	return &program, nil
}

func (r ProgramPostgreSQL) GetProgramRole(ctx context.Context, principalID string, programID uint) (*models.ProgramRole, error) {
	var participant models.ProgramParticipant
	err := r.db.WithContext(ctx).
		Where("principal_id = ? AND program_id = ?", principalID, programID).
		First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &participant.Role, nil
}

func (r ProgramPostgreSQL) ListEnrolledProgramIDs(ctx context.Context, principalID string) ([]uint, error) {
	var programIDs []uint
	if err := r.db.WithContext(ctx).
		Model(&models.ProgramParticipant{}).
		Where("principal_id = ?", principalID).
		Order("program_id ASC").
		Pluck("program_id", &programIDs).Error; err != nil {
		return nil, err
	}
	return programIDs, nil
}

func (r ProgramPostgreSQL) CountParticipants(ctx context.Context, programID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProgramParticipant{}).
		Where("program_id = ? AND role = ?", programID, models.ProgramRoleParticipant).
		Count(&count).Error
	return int(count), err
}

func (r ProgramPostgreSQL) FacilitatesAssessment(ctx context.Context, principalID string, curriculumAssessmentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProgramParticipant{}).
		Joins("JOIN program_assessments ON program_assessments.program_id = program_participants.program_id").
		Where("program_participants.principal_id = ? AND program_participants.role = ? AND program_assessments.assessment_id = ?",
			principalID, models.ProgramRoleFacilitator, curriculumAssessmentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
