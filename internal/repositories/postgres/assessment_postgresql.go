package postgres

import (
	"context"

	"github.com/pathlight-edu/assessment-service/internal/models"
	"github.com/pathlight-edu/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type CurriculumAssessmentPostgreSQL struct {
	db *gorm.DB
}

func NewCurriculumAssessmentPostgreSQL(db *gorm.DB) repositories.CurriculumAssessmentRepository {
	return &CurriculumAssessmentPostgreSQL{db: db}
}

func (r CurriculumAssessmentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.CurriculumAssessment, error) {
	var assessment models.CurriculumAssessment
	if err := r.db.WithContext(ctx).First(&assessment, id).Error; err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (r CurriculumAssessmentPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.CurriculumAssessment, error) {
	var assessment models.CurriculumAssessment
	if err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("assessment_questions.sort_order ASC")
		}).
		Preload("Questions.Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("assessment_answers.sort_order ASC")
		}).
		First(&assessment, id).Error; err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (r CurriculumAssessmentPostgreSQL) Create(ctx context.Context, assessment *models.CurriculumAssessment) error {
	return r.db.WithContext(ctx).Create(assessment).Error
}

func (r CurriculumAssessmentPostgreSQL) Update(ctx context.Context, assessment *models.CurriculumAssessment) error {
	result := r.db.WithContext(ctx).
		Model(&models.CurriculumAssessment{}).
		Where("id = ?", assessment.ID).
		Updates(map[string]interface{}{
			"title":               assessment.Title,
			"description":         assessment.Description,
			"max_score":           assessment.MaxScore,
			"max_num_submissions": assessment.MaxNumSubmissions,
			"time_limit":          assessment.TimeLimit,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r CurriculumAssessmentPostgreSQL) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("question_id IN (?)", tx.Model(&models.Question{}).Select("id").Where("assessment_id = ?", id)).
			Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("assessment_id = ?", id).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("assessment_id = ?", id).Delete(&models.ProgramAssessment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.CurriculumAssessment{}, id).Error
	})
}

func (r CurriculumAssessmentPostgreSQL) CreateQuestion(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r CurriculumAssessmentPostgreSQL) UpdateQuestion(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", question.ID).
		Updates(map[string]interface{}{
			"title":             question.Title,
			"description":       question.Description,
			"question_type":     question.QuestionType,
			"sort_order":        question.SortOrder,
			"max_score":         question.MaxScore,
			"correct_answer_id": question.CorrectAnswerID,
		}).Error
}

func (r CurriculumAssessmentPostgreSQL) DeleteQuestion(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Question{}, id).Error
	})
}

func (r CurriculumAssessmentPostgreSQL) CreateAnswer(ctx context.Context, answer *models.Answer) error {
	return r.db.WithContext(ctx).Create(answer).Error
}

func (r CurriculumAssessmentPostgreSQL) UpdateAnswer(ctx context.Context, answer *models.Answer) error {
	return r.db.WithContext(ctx).
		Model(&models.Answer{}).
		Where("id = ?", answer.ID).
		Updates(map[string]interface{}{
			"title":          answer.Title,
			"description":    answer.Description,
			"sort_order":     answer.SortOrder,
			"correct_answer": answer.CorrectAnswer,
		}).Error
}

func (r CurriculumAssessmentPostgreSQL) DeleteAnswer(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Answer{}, id).Error
}

type ProgramAssessmentPostgreSQL struct {
	db *gorm.DB
}

func NewProgramAssessmentPostgreSQL(db *gorm.DB) repositories.ProgramAssessmentRepository {
	return &ProgramAssessmentPostgreSQL{db: db}
}

func (r ProgramAssessmentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ProgramAssessment, error) {
	var binding models.ProgramAssessment
	if err := r.db.WithContext(ctx).First(&binding, id).Error; err != nil {
		return nil, err
	}
	return &binding, nil
}

func (r ProgramAssessmentPostgreSQL) ListForProgram(ctx context.Context, programID uint) ([]*models.ProgramAssessment, error) {
	var bindings []*models.ProgramAssessment
	if err := r.db.WithContext(ctx).
		Where("program_id = ?", programID).
		Order("available_after ASC").
		Find(&bindings).Error; err != nil {
		return nil, err
	}
	return bindings, nil
}

func (r ProgramAssessmentPostgreSQL) Create(ctx context.Context, binding *models.ProgramAssessment) error {
	return r.db.WithContext(ctx).Create(binding).Error
}

func (r ProgramAssessmentPostgreSQL) Update(ctx context.Context, binding *models.ProgramAssessment) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProgramAssessment{}).
		Where("id = ?", binding.ID).
		Updates(map[string]interface{}{
			"available_after": binding.AvailableAfter,
			"due_date":        binding.DueDate,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r ProgramAssessmentPostgreSQL) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.ProgramAssessment{}, id).Error
}

func (r ProgramAssessmentPostgreSQL) HasSubmissions(ctx context.Context, programAssessmentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AssessmentSubmission{}).
		Where("assessment_id = ?", programAssessmentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
