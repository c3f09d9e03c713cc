package postgres

import (
	"context"
	"errors"

	"github.com/pathlight-edu/assessment-service/internal/models"
	"github.com/pathlight-edu/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

var activeStates = []models.SubmissionState{models.SubmissionOpened, models.SubmissionInProgress}

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

func (r SubmissionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.AssessmentSubmission, error) {
	var submission models.AssessmentSubmission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r SubmissionPostgreSQL) GetByIDWithResponses(ctx context.Context, id uint) (*models.AssessmentSubmission, error) {
	var submission models.AssessmentSubmission
	if err := r.db.WithContext(ctx).
		Preload("Responses", func(db *gorm.DB) *gorm.DB {
			return db.Order("assessment_responses.question_id ASC")
		}).
		First(&submission, id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r SubmissionPostgreSQL) Create(ctx context.Context, submission *models.AssessmentSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r SubmissionPostgreSQL) Update(ctx context.Context, submission *models.AssessmentSubmission) error {
	result := r.db.WithContext(ctx).
		Model(&models.AssessmentSubmission{}).
		Where("id = ?", submission.ID).
		Updates(map[string]interface{}{
			"state":        submission.State,
			"score":        submission.Score,
			"submitted_at": submission.SubmittedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r SubmissionPostgreSQL) UpdateState(ctx context.Context, id uint, state models.SubmissionState) error {
	return r.db.WithContext(ctx).
		Model(&models.AssessmentSubmission{}).
		Where("id = ?", id).
		Update("state", state).Error
}

func (r SubmissionPostgreSQL) GetActive(ctx context.Context, programAssessmentID uint, principalID string) (*models.AssessmentSubmission, error) {
	var submission models.AssessmentSubmission
	err := r.db.WithContext(ctx).
		Where("assessment_id = ? AND principal_id = ? AND state IN ?", programAssessmentID, principalID, activeStates).
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &submission, nil
}

func (r SubmissionPostgreSQL) ListForParticipant(ctx context.Context, programAssessmentID uint, principalID string) ([]*models.AssessmentSubmission, error) {
	var submissions []*models.AssessmentSubmission
	if err := r.db.WithContext(ctx).
		Where("assessment_id = ? AND principal_id = ?", programAssessmentID, principalID).
		Order("opened_at ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r SubmissionPostgreSQL) ListForProgramAssessment(ctx context.Context, programAssessmentID uint, filters repositories.SubmissionFilters) ([]*models.AssessmentSubmission, error) {
	query := r.db.WithContext(ctx).
		Where("assessment_id = ?", programAssessmentID)

	if filters.PrincipalID != nil {
		query = query.Where("principal_id = ?", *filters.PrincipalID)
	}
	if filters.State != nil {
		query = query.Where("state = ?", *filters.State)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var submissions []*models.AssessmentSubmission
	if err := query.Order("opened_at ASC").Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r SubmissionPostgreSQL) CountForParticipant(ctx context.Context, programAssessmentID uint, principalID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AssessmentSubmission{}).
		Where("assessment_id = ? AND principal_id = ?", programAssessmentID, principalID).
		Count(&count).Error
	return int(count), err
}

func (r SubmissionPostgreSQL) CountDistinctParticipants(ctx context.Context, programAssessmentID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AssessmentSubmission{}).
		Where("assessment_id = ?", programAssessmentID).
		Distinct("principal_id").
		Count(&count).Error
	return int(count), err
}

func (r SubmissionPostgreSQL) CountUngraded(ctx context.Context, programAssessmentID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AssessmentSubmission{}).
		Where("assessment_id = ? AND state = ?", programAssessmentID, models.SubmissionSubmitted).
		Count(&count).Error
	return int(count), err
}

func (r SubmissionPostgreSQL) CreateEvent(ctx context.Context, event *models.SubmissionEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

type ResponsePostgreSQL struct {
	db *gorm.DB
}

func NewResponsePostgreSQL(db *gorm.DB) repositories.ResponseRepository {
	return &ResponsePostgreSQL{db: db}
}

func (r ResponsePostgreSQL) GetBySubmission(ctx context.Context, submissionID uint) ([]*models.AssessmentResponse, error) {
	var responses []*models.AssessmentResponse
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("question_id ASC").
		Find(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

func (r ResponsePostgreSQL) GetBySubmissionAndQuestion(ctx context.Context, submissionID, questionID uint) (*models.AssessmentResponse, error) {
	var response models.AssessmentResponse
	if err := r.db.WithContext(ctx).
		Where("submission_id = ? AND question_id = ?", submissionID, questionID).
		First(&response).Error; err != nil {
		return nil, err
	}
	return &response, nil
}

func (r ResponsePostgreSQL) Create(ctx context.Context, response *models.AssessmentResponse) error {
	return r.db.WithContext(ctx).Create(response).Error
}

func (r ResponsePostgreSQL) Update(ctx context.Context, response *models.AssessmentResponse) error {
	return r.db.WithContext(ctx).
		Model(&models.AssessmentResponse{}).
		Where("id = ?", response.ID).
		Updates(map[string]interface{}{
			"answer_id": response.AnswerID,
			"response":  response.ResponseText,
		}).Error
}

func (r ResponsePostgreSQL) UpdateGrade(ctx context.Context, id uint, score *int, graderResponse *string) error {
	result := r.db.WithContext(ctx).
		Model(&models.AssessmentResponse{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"score":           score,
			"grader_response": graderResponse,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r ResponsePostgreSQL) HasResponsesForAssessment(ctx context.Context, curriculumAssessmentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AssessmentResponse{}).
		Joins("JOIN assessment_questions ON assessment_questions.id = assessment_responses.question_id").
		Where("assessment_questions.assessment_id = ?", curriculumAssessmentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
