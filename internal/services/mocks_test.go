package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pathlight-edu/assessment-service/internal/cache"
	"github.com/pathlight-edu/assessment-service/internal/models"
	"github.com/pathlight-edu/assessment-service/internal/repositories"
	"github.com/pathlight-edu/assessment-service/internal/utils"
	"github.com/pathlight-edu/assessment-service/internal/validator"
	"github.com/stretchr/testify/mock"
)

// MockCurriculumAssessmentRepository is a mock implementation of CurriculumAssessmentRepository
type MockCurriculumAssessmentRepository struct {
	mock.Mock
}

func (m *MockCurriculumAssessmentRepository) GetByID(ctx context.Context, id uint) (*models.CurriculumAssessment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CurriculumAssessment), args.Error(1)
}

func (m *MockCurriculumAssessmentRepository) GetByIDWithQuestions(ctx context.Context, id uint) (*models.CurriculumAssessment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CurriculumAssessment), args.Error(1)
}

func (m *MockCurriculumAssessmentRepository) Create(ctx context.Context, assessment *models.CurriculumAssessment) error {
	args := m.Called(ctx, assessment)
	return args.Error(0)
}

func (m *MockCurriculumAssessmentRepository) Update(ctx context.Context, assessment *models.CurriculumAssessment) error {
	args := m.Called(ctx, assessment)
	return args.Error(0)
}

func (m *MockCurriculumAssessmentRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCurriculumAssessmentRepository) CreateQuestion(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockCurriculumAssessmentRepository) UpdateQuestion(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockCurriculumAssessmentRepository) DeleteQuestion(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCurriculumAssessmentRepository) CreateAnswer(ctx context.Context, answer *models.Answer) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}

func (m *MockCurriculumAssessmentRepository) UpdateAnswer(ctx context.Context, answer *models.Answer) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}

func (m *MockCurriculumAssessmentRepository) DeleteAnswer(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProgramAssessmentRepository is a mock implementation of ProgramAssessmentRepository
type MockProgramAssessmentRepository struct {
	mock.Mock
}

func (m *MockProgramAssessmentRepository) GetByID(ctx context.Context, id uint) (*models.ProgramAssessment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProgramAssessment), args.Error(1)
}

func (m *MockProgramAssessmentRepository) ListForProgram(ctx context.Context, programID uint) ([]*models.ProgramAssessment, error) {
	args := m.Called(ctx, programID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ProgramAssessment), args.Error(1)
}

func (m *MockProgramAssessmentRepository) Create(ctx context.Context, binding *models.ProgramAssessment) error {
	args := m.Called(ctx, binding)
	return args.Error(0)
}

func (m *MockProgramAssessmentRepository) Update(ctx context.Context, binding *models.ProgramAssessment) error {
	args := m.Called(ctx, binding)
	return args.Error(0)
}

func (m *MockProgramAssessmentRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProgramAssessmentRepository) HasSubmissions(ctx context.Context, programAssessmentID uint) (bool, error) {
	args := m.Called(ctx, programAssessmentID)
	return args.Bool(0), args.Error(1)
}

// MockSubmissionRepository is a mock implementation of SubmissionRepository
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) GetByID(ctx context.Context, id uint) (*models.AssessmentSubmission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssessmentSubmission), args.Error(1)
}

func (m *MockSubmissionRepository) GetByIDWithResponses(ctx context.Context, id uint) (*models.AssessmentSubmission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssessmentSubmission), args.Error(1)
}

func (m *MockSubmissionRepository) Create(ctx context.Context, submission *models.AssessmentSubmission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) Update(ctx context.Context, submission *models.AssessmentSubmission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) UpdateState(ctx context.Context, id uint, state models.SubmissionState) error {
	args := m.Called(ctx, id, state)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetActive(ctx context.Context, programAssessmentID uint, principalID string) (*models.AssessmentSubmission, error) {
	args := m.Called(ctx, programAssessmentID, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssessmentSubmission), args.Error(1)
}

func (m *MockSubmissionRepository) ListForParticipant(ctx context.Context, programAssessmentID uint, principalID string) ([]*models.AssessmentSubmission, error) {
	args := m.Called(ctx, programAssessmentID, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AssessmentSubmission), args.Error(1)
}

func (m *MockSubmissionRepository) ListForProgramAssessment(ctx context.Context, programAssessmentID uint, filters repositories.SubmissionFilters) ([]*models.AssessmentSubmission, error) {
	args := m.Called(ctx, programAssessmentID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AssessmentSubmission), args.Error(1)
}

func (m *MockSubmissionRepository) CountForParticipant(ctx context.Context, programAssessmentID uint, principalID string) (int, error) {
	args := m.Called(ctx, programAssessmentID, principalID)
	return args.Int(0), args.Error(1)
}

func (m *MockSubmissionRepository) CountDistinctParticipants(ctx context.Context, programAssessmentID uint) (int, error) {
	args := m.Called(ctx, programAssessmentID)
	return args.Int(0), args.Error(1)
}

func (m *MockSubmissionRepository) CountUngraded(ctx context.Context, programAssessmentID uint) (int, error) {
	args := m.Called(ctx, programAssessmentID)
	return args.Int(0), args.Error(1)
}

func (m *MockSubmissionRepository) CreateEvent(ctx context.Context, event *models.SubmissionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockResponseRepository is a mock implementation of ResponseRepository
type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) GetBySubmission(ctx context.Context, submissionID uint) ([]*models.AssessmentResponse, error) {
	args := m.Called(ctx, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AssessmentResponse), args.Error(1)
}

func (m *MockResponseRepository) GetBySubmissionAndQuestion(ctx context.Context, submissionID, questionID uint) (*models.AssessmentResponse, error) {
	args := m.Called(ctx, submissionID, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssessmentResponse), args.Error(1)
}

func (m *MockResponseRepository) Create(ctx context.Context, response *models.AssessmentResponse) error {
	args := m.Called(ctx, response)
	return args.Error(0)
}

func (m *MockResponseRepository) Update(ctx context.Context, response *models.AssessmentResponse) error {
	args := m.Called(ctx, response)
	return args.Error(0)
}

func (m *MockResponseRepository) UpdateGrade(ctx context.Context, id uint, score *int, graderResponse *string) error {
	args := m.Called(ctx, id, score, graderResponse)
	return args.Error(0)
}

func (m *MockResponseRepository) HasResponsesForAssessment(ctx context.Context, curriculumAssessmentID uint) (bool, error) {
	args := m.Called(ctx, curriculumAssessmentID)
	return args.Bool(0), args.Error(1)
}

// MockProgramRepository is a mock implementation of ProgramRepository
type MockProgramRepository struct {
	mock.Mock
}

func (m *MockProgramRepository) GetByID(ctx context.Context, id uint) (*models.Program, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Program), args.Error(1)
}

func (m *MockProgramRepository) GetProgramRole(ctx context.Context, principalID string, programID uint) (*models.ProgramRole, error) {
	args := m.Called(ctx, principalID, programID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProgramRole), args.Error(1)
}

func (m *MockProgramRepository) ListEnrolledProgramIDs(ctx context.Context, principalID string) ([]uint, error) {
	args := m.Called(ctx, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockProgramRepository) CountParticipants(ctx context.Context, programID uint) (int, error) {
	args := m.Called(ctx, programID)
	return args.Int(0), args.Error(1)
}

func (m *MockProgramRepository) FacilitatesAssessment(ctx context.Context, principalID string, curriculumAssessmentID uint) (bool, error) {
	args := m.Called(ctx, principalID, curriculumAssessmentID)
	return args.Bool(0), args.Error(1)
}

// MockRepository aggregates the per-entity mocks. WithTransaction simply
// invokes fn against the same mocks, so transactional paths are exercised
// without a database.
type MockRepository struct {
	curriculumRepo        *MockCurriculumAssessmentRepository
	programAssessmentRepo *MockProgramAssessmentRepository
	submissionRepo        *MockSubmissionRepository
	responseRepo          *MockResponseRepository
	programRepo           *MockProgramRepository

	txErr error
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		curriculumRepo:        &MockCurriculumAssessmentRepository{},
		programAssessmentRepo: &MockProgramAssessmentRepository{},
		submissionRepo:        &MockSubmissionRepository{},
		responseRepo:          &MockResponseRepository{},
		programRepo:           &MockProgramRepository{},
	}
}

func (m *MockRepository) CurriculumAssessment() repositories.CurriculumAssessmentRepository {
	return m.curriculumRepo
}

func (m *MockRepository) ProgramAssessment() repositories.ProgramAssessmentRepository {
	return m.programAssessmentRepo
}

func (m *MockRepository) Submission() repositories.SubmissionRepository {
	return m.submissionRepo
}

func (m *MockRepository) Response() repositories.ResponseRepository {
	return m.responseRepo
}

func (m *MockRepository) Program() repositories.ProgramRepository {
	return m.programRepo
}

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return fn(m)
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }

func (m *MockRepository) Close() error { return nil }

func (m *MockRepository) assertExpectations(t mock.TestingT) {
	m.curriculumRepo.AssertExpectations(t)
	m.programAssessmentRepo.AssertExpectations(t)
	m.submissionRepo.AssertExpectations(t)
	m.responseRepo.AssertExpectations(t)
	m.programRepo.AssertExpectations(t)
}

// fakeCache is an in-memory CacheService for tests.
type fakeCache struct {
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = data
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := f.entries[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	delete(f.entries, key)
	return nil
}

func (f *fakeCache) DeletePattern(ctx context.Context, pattern string) error {
	f.entries = make(map[string][]byte)
	return nil
}

// ===== SHARED TEST FIXTURES =====

func testLogger() utils.Logger {
	return utils.NewDevelopmentLogger()
}

func testValidator() *validator.Validator {
	return validator.New()
}

func roleValue(r models.ProgramRole) *models.ProgramRole {
	return &r
}

func stringPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func uintPtr(u uint) *uint { return &u }

func timePtr(t time.Time) *time.Time { return &t }
