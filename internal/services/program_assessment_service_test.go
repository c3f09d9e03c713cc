package services

import (
	"context"
	"testing"
	"time"

	"github.com/pathlight-edu/assessment-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newProgramAssessmentFixture() (ProgramAssessmentService, *MockRepository) {
	repo := newMockRepository()
	logger := testLogger()
	roles := NewRoleResolver(repo, logger)
	service := NewProgramAssessmentService(repo, testValidator(), roles, logger)
	return service, repo
}

func TestProgramAssessmentService_Create_RejectsInvertedWindow(t *testing.T) {
	service, _ := newProgramAssessmentFixture()

	req := &CreateProgramAssessmentRequest{
		ProgramID:      testProgramID,
		AssessmentID:   testTemplateID,
		AvailableAfter: time.Now().Add(2 * time.Hour),
		DueDate:        time.Now().Add(time.Hour),
	}

	_, err := service.Create(context.Background(), req, testFacilitator)
	assert.ErrorIs(t, err, ErrInvalidAvailabilityWindow)
}

func TestProgramAssessmentService_Create_RequiresFacilitator(t *testing.T) {
	service, repo := newProgramAssessmentFixture()

	repo.programRepo.On("GetProgramRole", mock.Anything, testParticipant, testProgramID).
		Return(roleValue(models.ProgramRoleParticipant), nil)

	req := &CreateProgramAssessmentRequest{
		ProgramID:      testProgramID,
		AssessmentID:   testTemplateID,
		AvailableAfter: time.Now().Add(time.Hour),
		DueDate:        time.Now().Add(2 * time.Hour),
	}

	_, err := service.Create(context.Background(), req, testParticipant)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestProgramAssessmentService_Create_Success(t *testing.T) {
	service, repo := newProgramAssessmentFixture()

	repo.programRepo.On("GetProgramRole", mock.Anything, testFacilitator, testProgramID).
		Return(roleValue(models.ProgramRoleFacilitator), nil)
	repo.curriculumRepo.On("GetByID", mock.Anything, testTemplateID).Return(testTemplate(), nil)
	repo.programAssessmentRepo.On("Create", mock.Anything, mock.MatchedBy(func(pa *models.ProgramAssessment) bool {
		return pa.ProgramID == testProgramID && pa.AssessmentID == testTemplateID
	})).Return(nil)

	req := &CreateProgramAssessmentRequest{
		ProgramID:      testProgramID,
		AssessmentID:   testTemplateID,
		AvailableAfter: time.Now().Add(time.Hour),
		DueDate:        time.Now().Add(2 * time.Hour),
	}

	pa, err := service.Create(context.Background(), req, testFacilitator)
	assert.NoError(t, err)
	assert.Equal(t, testProgramID, pa.ProgramID)
}

func TestProgramAssessmentService_Update_KeepsWindowConsistent(t *testing.T) {
	service, repo := newProgramAssessmentFixture()
	binding := openBinding()

	repo.programAssessmentRepo.On("GetByID", mock.Anything, testProgramAssessmentID).Return(binding, nil)
	repo.programRepo.On("GetProgramRole", mock.Anything, testFacilitator, testProgramID).
		Return(roleValue(models.ProgramRoleFacilitator), nil)

	// Moving the due date before the existing available_after must fail.
	newDue := binding.AvailableAfter.Add(-time.Hour)
	_, err := service.Update(context.Background(), testProgramAssessmentID, &UpdateProgramAssessmentRequest{
		DueDate: &newDue,
	}, testFacilitator)
	assert.ErrorIs(t, err, ErrInvalidAvailabilityWindow)
}

func TestProgramAssessmentService_Delete_BlockedBySubmissions(t *testing.T) {
	service, repo := newProgramAssessmentFixture()
	binding := openBinding()

	repo.programAssessmentRepo.On("GetByID", mock.Anything, testProgramAssessmentID).Return(binding, nil)
	repo.programRepo.On("GetProgramRole", mock.Anything, testFacilitator, testProgramID).
		Return(roleValue(models.ProgramRoleFacilitator), nil)
	repo.programAssessmentRepo.On("HasSubmissions", mock.Anything, testProgramAssessmentID).Return(true, nil)

	err := service.Delete(context.Background(), testProgramAssessmentID, testFacilitator)
	assert.ErrorIs(t, err, ErrProgramAssessmentNotDeletable)
	repo.programAssessmentRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestProgramAssessmentService_ListForProgram_RequiresMembership(t *testing.T) {
	service, repo := newProgramAssessmentFixture()

	repo.programRepo.On("GetProgramRole", mock.Anything, "stranger", testProgramID).Return(nil, nil)

	_, err := service.ListForProgram(context.Background(), testProgramID, "stranger")
	assert.ErrorIs(t, err, ErrNoProgramRole)
}

func TestProgramAssessmentService_FindForPrincipal_RequiresMembership(t *testing.T) {
	service, repo := newProgramAssessmentFixture()

	repo.programAssessmentRepo.On("GetByID", mock.Anything, testProgramAssessmentID).Return(openBinding(), nil)
	repo.programRepo.On("GetProgramRole", mock.Anything, "stranger", testProgramID).Return(nil, nil)

	_, err := service.FindForPrincipal(context.Background(), testProgramAssessmentID, "stranger")
	assert.ErrorIs(t, err, ErrNoProgramRole)
}

func TestProgramAssessmentService_FindForPrincipal_MemberSeesBinding(t *testing.T) {
	service, repo := newProgramAssessmentFixture()

	repo.programAssessmentRepo.On("GetByID", mock.Anything, testProgramAssessmentID).Return(openBinding(), nil)
	repo.programRepo.On("GetProgramRole", mock.Anything, testParticipant, testProgramID).
		Return(roleValue(models.ProgramRoleParticipant), nil)

	pa, err := service.FindForPrincipal(context.Background(), testProgramAssessmentID, testParticipant)
	assert.NoError(t, err)
	assert.Equal(t, testProgramAssessmentID, pa.ID)
}
