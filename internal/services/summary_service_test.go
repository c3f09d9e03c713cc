package services

import (
	"context"
	"testing"
	"time"

	"github.com/pathlight-edu/assessment-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newSummaryFixture() (SummaryService, *MockRepository) {
	repo := newMockRepository()
	service := NewSummaryService(repo, testLogger())
	return service, repo
}

func TestSummaryService_ParticipantSummary_RanksAcrossAttempts(t *testing.T) {
	service, repo := newSummaryFixture()
	binding := openBinding()

	first := time.Now().Add(-2 * time.Hour)
	second := time.Now().Add(-time.Hour)
	submissions := []*models.AssessmentSubmission{
		{ID: 1, State: models.SubmissionGraded, Score: intPtr(6), SubmittedAt: &first},
		{ID: 2, State: models.SubmissionGraded, Score: intPtr(9), SubmittedAt: &second},
		{ID: 3, State: models.SubmissionInProgress},
	}

	repo.programAssessmentRepo.On("GetByID", mock.Anything, testProgramAssessmentID).Return(binding, nil)
	repo.submissionRepo.On("ListForParticipant", mock.Anything, testProgramAssessmentID, testParticipant).Return(submissions, nil)

	summary, err := service.ParticipantSummary(context.Background(), testProgramAssessmentID, testParticipant)
	assert.NoError(t, err)
	assert.Equal(t, models.SubmissionGraded, summary.HighestState)
	assert.Equal(t, 3, summary.TotalNumSubmissions)
	assert.Equal(t, 9, *summary.HighestScore)
	assert.Equal(t, second.Unix(), summary.MostRecentSubmitted.Unix())
}

func TestSummaryService_ParticipantSummary_ExpiryAffectsRanking(t *testing.T) {
	service, repo := newSummaryFixture()
	binding := testBinding(time.Now().Add(-3*time.Hour), time.Now().Add(-time.Hour))

	// The only attempt is stored In Progress but the due date has passed, so
	// it ranks as Expired.
	submissions := []*models.AssessmentSubmission{
		{ID: 1, State: models.SubmissionInProgress},
	}

	repo.programAssessmentRepo.On("GetByID", mock.Anything, testProgramAssessmentID).Return(binding, nil)
	repo.submissionRepo.On("ListForParticipant", mock.Anything, testProgramAssessmentID, testParticipant).Return(submissions, nil)

	summary, err := service.ParticipantSummary(context.Background(), testProgramAssessmentID, testParticipant)
	assert.NoError(t, err)
	assert.Equal(t, models.SubmissionExpired, summary.HighestState)
}

func TestSummaryService_ParticipantSummary_NoSubmissions(t *testing.T) {
	service, repo := newSummaryFixture()

	repo.programAssessmentRepo.On("GetByID", mock.Anything, testProgramAssessmentID).Return(openBinding(), nil)
	repo.submissionRepo.On("ListForParticipant", mock.Anything, testProgramAssessmentID, testParticipant).
		Return([]*models.AssessmentSubmission{}, nil)

	summary, err := service.ParticipantSummary(context.Background(), testProgramAssessmentID, testParticipant)
	assert.NoError(t, err)
	assert.Equal(t, 0, summary.TotalNumSubmissions)
	assert.Nil(t, summary.HighestScore)
	assert.Nil(t, summary.MostRecentSubmitted)
}

func TestSummaryService_FacilitatorSummary_PresentZeros(t *testing.T) {
	service, repo := newSummaryFixture()

	repo.programAssessmentRepo.On("GetByID", mock.Anything, testProgramAssessmentID).Return(openBinding(), nil)
	repo.submissionRepo.On("CountDistinctParticipants", mock.Anything, testProgramAssessmentID).Return(0, nil)
	repo.submissionRepo.On("CountUngraded", mock.Anything, testProgramAssessmentID).Return(0, nil)
	repo.programRepo.On("CountParticipants", mock.Anything, testProgramID).Return(12, nil)

	summary, err := service.FacilitatorSummary(context.Background(), testProgramAssessmentID)
	assert.NoError(t, err)
	assert.Equal(t, 0, summary.NumParticipantsWithSubmissions)
	assert.Equal(t, 0, summary.NumUngradedSubmissions)
	assert.Equal(t, 12, summary.NumProgramParticipants)
}

func TestSummaryService_ListAssessmentsForPrincipal_RoleShapesSummary(t *testing.T) {
	service, repo := newSummaryFixture()

	participantProgram := uint(1)
	facilitatorProgram := uint(2)
	participantBinding := openBinding()
	facilitatorBinding := testBinding(time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	facilitatorBinding.ID = 20
	facilitatorBinding.ProgramID = facilitatorProgram

	repo.programRepo.On("ListEnrolledProgramIDs", mock.Anything, testParticipant).
		Return([]uint{participantProgram, facilitatorProgram}, nil)
	repo.programRepo.On("GetProgramRole", mock.Anything, testParticipant, participantProgram).
		Return(roleValue(models.ProgramRoleParticipant), nil)
	repo.programRepo.On("GetProgramRole", mock.Anything, testParticipant, facilitatorProgram).
		Return(roleValue(models.ProgramRoleFacilitator), nil)
	repo.programAssessmentRepo.On("ListForProgram", mock.Anything, participantProgram).
		Return([]*models.ProgramAssessment{participantBinding}, nil)
	repo.programAssessmentRepo.On("ListForProgram", mock.Anything, facilitatorProgram).
		Return([]*models.ProgramAssessment{facilitatorBinding}, nil)
	repo.curriculumRepo.On("GetByID", mock.Anything, testTemplateID).Return(testTemplate(), nil)

	// Participant side.
	repo.programAssessmentRepo.On("GetByID", mock.Anything, participantBinding.ID).Return(participantBinding, nil)
	repo.submissionRepo.On("ListForParticipant", mock.Anything, participantBinding.ID, testParticipant).
		Return([]*models.AssessmentSubmission{{ID: 1, State: models.SubmissionSubmitted}}, nil)

	// Facilitator side.
	repo.programAssessmentRepo.On("GetByID", mock.Anything, facilitatorBinding.ID).Return(facilitatorBinding, nil)
	repo.submissionRepo.On("CountDistinctParticipants", mock.Anything, facilitatorBinding.ID).Return(4, nil)
	repo.submissionRepo.On("CountUngraded", mock.Anything, facilitatorBinding.ID).Return(2, nil)
	repo.programRepo.On("CountParticipants", mock.Anything, facilitatorProgram).Return(10, nil)

	rows, err := service.ListAssessmentsForPrincipal(context.Background(), testParticipant)
	assert.NoError(t, err)
	assert.Len(t, rows, 2)

	assert.Equal(t, models.ProgramRoleParticipant, rows[0].PrincipalProgramRole)
	assert.NotNil(t, rows[0].ParticipantSummary)
	assert.Nil(t, rows[0].FacilitatorSummary)
	assert.Equal(t, models.SubmissionSubmitted, rows[0].ParticipantSummary.HighestState)

	assert.Equal(t, models.ProgramRoleFacilitator, rows[1].PrincipalProgramRole)
	assert.NotNil(t, rows[1].FacilitatorSummary)
	assert.Nil(t, rows[1].ParticipantSummary)
	assert.Equal(t, 4, rows[1].FacilitatorSummary.NumParticipantsWithSubmissions)
}
