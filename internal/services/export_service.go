package services

import (
	"context"
	"fmt"

	"github.com/pathlight-edu/assessment-service/internal/models"
	"github.com/pathlight-edu/assessment-service/internal/repositories"
	"github.com/pathlight-edu/assessment-service/internal/utils"
	"github.com/xuri/excelize/v2"
)

// ExportService produces facilitator-facing spreadsheet exports of
// submission results.
type ExportService interface {
	// ExportSubmissions returns an xlsx workbook with one row per submission
	// for the program assessment. Facilitators of the owning program only.
	ExportSubmissions(ctx context.Context, programAssessmentID uint, principalID string) ([]byte, error)
}

type exportService struct {
	repo   repositories.Repository
	roles  RoleResolver
	logger utils.Logger
}

func NewExportService(repo repositories.Repository, roles RoleResolver, logger utils.Logger) ExportService {
	return &exportService{repo: repo, roles: roles, logger: logger}
}

func (s *exportService) ExportSubmissions(ctx context.Context, programAssessmentID uint, principalID string) ([]byte, error) {
	pa, err := s.repo.ProgramAssessment().GetByID(ctx, programAssessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProgramAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load program assessment: %w", err)
	}

	role, err := s.roles.RoleOf(ctx, principalID, pa.ProgramID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrNoProgramRole
	}
	if *role != models.ProgramRoleFacilitator {
		return nil, fmt.Errorf("%w: only facilitators can export results", ErrForbidden)
	}

	submissions, err := s.repo.Submission().ListForProgramAssessment(ctx, programAssessmentID, repositories.SubmissionFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Submissions"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Submission ID", "Participant", "State", "Score", "Opened At", "Submitted At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, sub := range submissions {
		row := []interface{}{
			sub.ID,
			sub.PrincipalID,
			string(sub.State),
			"",
			sub.OpenedAt.Format("2006-01-02 15:04:05"),
			"",
		}
		if sub.Score != nil {
			row[3] = *sub.Score
		}
		if sub.SubmittedAt != nil {
			row[5] = sub.SubmittedAt.Format("2006-01-02 15:04:05")
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Submissions exported",
		"program_assessment_id", programAssessmentID, "principal_id", principalID, "rows", len(submissions))
	return buf.Bytes(), nil
}
