package services

import (
	"context"
	"testing"

	"github.com/pathlight-edu/assessment-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCatalogFixture() (CatalogService, *MockRepository, *fakeCache) {
	repo := newMockRepository()
	cacheService := newFakeCache()
	service := NewCatalogService(repo, testValidator(), cacheService, testLogger())
	return service, repo, cacheService
}

func TestCatalogService_Get_VisibilityShaping(t *testing.T) {
	tests := []struct {
		name           string
		includeAll     bool
		includeCorrect bool
		check          func(t *testing.T, a *models.CurriculumAssessment)
	}{
		{
			name: "no questions at all",
			check: func(t *testing.T, a *models.CurriculumAssessment) {
				assert.Nil(t, a.Questions)
			},
		},
		{
			name:           "correctness flag alone discloses nothing",
			includeCorrect: true,
			check: func(t *testing.T, a *models.CurriculumAssessment) {
				assert.Nil(t, a.Questions)
			},
		},
		{
			name:       "all answers without correctness",
			includeAll: true,
			check: func(t *testing.T, a *models.CurriculumAssessment) {
				assert.Len(t, a.Questions, 2)

				single := a.Questions[0]
				assert.Nil(t, single.CorrectAnswerID)
				assert.Len(t, single.Answers, 2)
				for _, ans := range single.Answers {
					assert.Nil(t, ans.CorrectAnswer)
				}

				// Free response model answers are grading data.
				free := a.Questions[1]
				assert.Empty(t, free.Answers)
			},
		},
		{
			name:           "correct answers disclosed",
			includeAll:     true,
			includeCorrect: true,
			check: func(t *testing.T, a *models.CurriculumAssessment) {
				single := a.Questions[0]
				assert.NotNil(t, single.CorrectAnswerID)
				assert.Equal(t, uint(301), *single.CorrectAnswerID)
				assert.NotNil(t, single.Answers[0].CorrectAnswer)
				assert.True(t, *single.Answers[0].CorrectAnswer)

				free := a.Questions[1]
				assert.Len(t, free.Answers, 1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, _ := newCatalogFixture()
			repo.curriculumRepo.On("GetByIDWithQuestions", mock.Anything, testTemplateID).Return(testTemplate(), nil)

			assessment, err := service.Get(context.Background(), testTemplateID, tt.includeAll, tt.includeCorrect)
			assert.NoError(t, err)
			tt.check(t, assessment)
		})
	}
}

func TestCatalogService_Get_CacheKeepsFullFidelity(t *testing.T) {
	service, repo, _ := newCatalogFixture()
	repo.curriculumRepo.On("GetByIDWithQuestions", mock.Anything, testTemplateID).Return(testTemplate(), nil).Once()

	// First read is redacted and fills the cache.
	redacted, err := service.Get(context.Background(), testTemplateID, true, false)
	assert.NoError(t, err)
	assert.Nil(t, redacted.Questions[0].CorrectAnswerID)

	// Second read comes from the cache and still carries the answer key for
	// a disclosed request.
	disclosed, err := service.Get(context.Background(), testTemplateID, true, true)
	assert.NoError(t, err)
	assert.NotNil(t, disclosed.Questions[0].CorrectAnswerID)

	repo.curriculumRepo.AssertNumberOfCalls(t, "GetByIDWithQuestions", 1)
}

func TestCatalogService_GetForPrincipal_CorrectAnswersNeedFacilitator(t *testing.T) {
	service, repo, _ := newCatalogFixture()
	repo.programRepo.On("FacilitatesAssessment", mock.Anything, testParticipant, testTemplateID).Return(false, nil)
	repo.curriculumRepo.On("GetByID", mock.Anything, testTemplateID).Return(testTemplate(), nil)

	_, err := service.GetForPrincipal(context.Background(), testTemplateID, testParticipant, true, true)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCatalogService_GetForPrincipal_OwnerSeesAnswerKey(t *testing.T) {
	service, repo, _ := newCatalogFixture()
	repo.programRepo.On("FacilitatesAssessment", mock.Anything, testFacilitator, testTemplateID).Return(false, nil)
	repo.curriculumRepo.On("GetByID", mock.Anything, testTemplateID).Return(testTemplate(), nil)
	repo.curriculumRepo.On("GetByIDWithQuestions", mock.Anything, testTemplateID).Return(testTemplate(), nil)

	assessment, err := service.GetForPrincipal(context.Background(), testTemplateID, testFacilitator, true, true)
	assert.NoError(t, err)
	assert.NotNil(t, assessment.Questions[0].CorrectAnswerID)
}

func TestCatalogService_Delete_BlockedByResponses(t *testing.T) {
	service, repo, _ := newCatalogFixture()
	repo.curriculumRepo.On("GetByID", mock.Anything, testTemplateID).Return(testTemplate(), nil)
	repo.responseRepo.On("HasResponsesForAssessment", mock.Anything, testTemplateID).Return(true, nil)

	err := service.Delete(context.Background(), testTemplateID, testFacilitator)
	assert.ErrorIs(t, err, ErrAssessmentNotDeletable)
	repo.curriculumRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCatalogService_Delete_OnlyOwner(t *testing.T) {
	service, repo, _ := newCatalogFixture()
	repo.curriculumRepo.On("GetByID", mock.Anything, testTemplateID).Return(testTemplate(), nil)

	err := service.Delete(context.Background(), testTemplateID, testOtherParticipant)
	var pe *PermissionError
	assert.ErrorAs(t, err, &pe)
}

func TestCatalogService_Create_SingleChoiceNeedsOneCorrectAnswer(t *testing.T) {
	service, _, _ := newCatalogFixture()

	req := &CreateCurriculumAssessmentRequest{
		Title:             "Checkpoint",
		MaxScore:          10,
		MaxNumSubmissions: 1,
		CurriculumID:      1,
		ActivityID:        1,
		Questions: []CreateQuestionRequest{
			{
				Title:        "Pick one",
				QuestionType: models.QuestionTypeSingleChoice,
				MaxScore:     5,
				Answers: []CreateAnswerRequest{
					{Title: "A", CorrectAnswer: true},
					{Title: "B", CorrectAnswer: true},
				},
			},
		},
	}

	_, err := service.Create(context.Background(), req, testFacilitator)
	assert.True(t, IsValidation(err))
}
