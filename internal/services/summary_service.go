package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pathlight-edu/assessment-service/internal/models"
	"github.com/pathlight-edu/assessment-service/internal/repositories"
	"github.com/pathlight-edu/assessment-service/internal/utils"
)

// SummaryService builds the roll-up views behind the "my assessments"
// listing. Summaries are computed on demand from submission rows; they are
// never cached because grading and expiry change them out of band.
type SummaryService interface {
	ParticipantSummary(ctx context.Context, programAssessmentID uint, principalID string) (*models.ParticipantAssessmentSummary, error)
	FacilitatorSummary(ctx context.Context, programAssessmentID uint) (*models.FacilitatorAssessmentSummary, error)

	// ListAssessmentsForPrincipal returns one row per program assessment in
	// every program the principal belongs to, each carrying the summary
	// shaped for the principal's role in that program.
	ListAssessmentsForPrincipal(ctx context.Context, principalID string) ([]*models.AssessmentWithSummary, error)
}

type summaryService struct {
	repo   repositories.Repository
	logger utils.Logger
}

func NewSummaryService(repo repositories.Repository, logger utils.Logger) SummaryService {
	return &summaryService{repo: repo, logger: logger}
}

func (s *summaryService) ParticipantSummary(ctx context.Context, programAssessmentID uint, principalID string) (*models.ParticipantAssessmentSummary, error) {
	pa, err := s.repo.ProgramAssessment().GetByID(ctx, programAssessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProgramAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load program assessment: %w", err)
	}

	submissions, err := s.repo.Submission().ListForParticipant(ctx, programAssessmentID, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	summary := &models.ParticipantAssessmentSummary{
		PrincipalID:         principalID,
		ProgramAssessmentID: programAssessmentID,
		TotalNumSubmissions: len(submissions),
	}
	if len(submissions) == 0 {
		return summary, nil
	}

	now := time.Now()
	best := models.SubmissionState("")
	for _, sub := range submissions {
		state := models.EffectiveState(sub.State, now, pa.DueDate)
		if best == "" || state.Rank() > best.Rank() {
			best = state
		}
		if sub.SubmittedAt != nil &&
			(summary.MostRecentSubmitted == nil || sub.SubmittedAt.After(*summary.MostRecentSubmitted)) {
			summary.MostRecentSubmitted = sub.SubmittedAt
		}
		if state == models.SubmissionGraded && sub.Score != nil &&
			(summary.HighestScore == nil || *sub.Score > *summary.HighestScore) {
			summary.HighestScore = sub.Score
		}
	}
	summary.HighestState = best
	return summary, nil
}

func (s *summaryService) FacilitatorSummary(ctx context.Context, programAssessmentID uint) (*models.FacilitatorAssessmentSummary, error) {
	pa, err := s.repo.ProgramAssessment().GetByID(ctx, programAssessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProgramAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load program assessment: %w", err)
	}

	withSubmissions, err := s.repo.Submission().CountDistinctParticipants(ctx, programAssessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants with submissions: %w", err)
	}
	enrolled, err := s.repo.Program().CountParticipants(ctx, pa.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("failed to count program participants: %w", err)
	}
	ungraded, err := s.repo.Submission().CountUngraded(ctx, programAssessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count ungraded submissions: %w", err)
	}

	return &models.FacilitatorAssessmentSummary{
		ProgramAssessmentID:            programAssessmentID,
		NumParticipantsWithSubmissions: withSubmissions,
		NumProgramParticipants:         enrolled,
		NumUngradedSubmissions:         ungraded,
	}, nil
}

func (s *summaryService) ListAssessmentsForPrincipal(ctx context.Context, principalID string) ([]*models.AssessmentWithSummary, error) {
	programIDs, err := s.repo.Program().ListEnrolledProgramIDs(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}

	rows := make([]*models.AssessmentWithSummary, 0)
	for _, programID := range programIDs {
		role, err := s.repo.Program().GetProgramRole(ctx, principalID, programID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve program role: %w", err)
		}
		if role == nil {
			continue
		}

		bindings, err := s.repo.ProgramAssessment().ListForProgram(ctx, programID)
		if err != nil {
			return nil, fmt.Errorf("failed to list program assessments: %w", err)
		}

		for _, pa := range bindings {
			row := &models.AssessmentWithSummary{
				ProgramAssessment:    pa,
				PrincipalProgramRole: *role,
			}

			// The listing never carries questions; the bare template row is
			// enough to render a title and score ceiling.
			template, err := s.repo.CurriculumAssessment().GetByID(ctx, pa.AssessmentID)
			if err != nil {
				if repositories.IsNotFoundError(err) {
					s.logger.Warn("Program assessment references missing template",
						"program_assessment_id", pa.ID, "assessment_id", pa.AssessmentID)
					continue
				}
				return nil, fmt.Errorf("failed to load curriculum assessment: %w", err)
			}
			row.CurriculumAssessment = template

			switch *role {
			case models.ProgramRoleFacilitator:
				summary, err := s.FacilitatorSummary(ctx, pa.ID)
				if err != nil {
					return nil, err
				}
				row.FacilitatorSummary = summary
			default:
				summary, err := s.ParticipantSummary(ctx, pa.ID, principalID)
				if err != nil {
					return nil, err
				}
				row.ParticipantSummary = summary
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}
