package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pathlight-edu/assessment-service/internal/cache"
	"github.com/pathlight-edu/assessment-service/internal/models"
	"github.com/pathlight-edu/assessment-service/internal/repositories"
	"github.com/pathlight-edu/assessment-service/internal/utils"
	"github.com/pathlight-edu/assessment-service/internal/validator"
)

// CatalogService manages curriculum assessment templates and controls how
// much of the answer key each read exposes.
//
// Every read takes two visibility flags:
//   - includeQuestionsAndAllAnswers: include the question list with answer
//     options (correctness markers stripped)
//   - includeQuestionsAndCorrectAnswers: additionally include correctness
//     markers and, for free response questions, the model answers
type CatalogService interface {
	Get(ctx context.Context, id uint, includeQuestionsAndAllAnswers, includeQuestionsAndCorrectAnswers bool) (*models.CurriculumAssessment, error)

	// GetForPrincipal is the authorization-aware read behind the HTTP API.
	// Requesting correct answers requires facilitating a program that uses
	// the template.
	GetForPrincipal(ctx context.Context, id uint, principalID string, includeQuestionsAndAllAnswers, includeQuestionsAndCorrectAnswers bool) (*models.CurriculumAssessment, error)
	Create(ctx context.Context, req *CreateCurriculumAssessmentRequest, principalID string) (*models.CurriculumAssessment, error)
	Update(ctx context.Context, id uint, req *UpdateCurriculumAssessmentRequest, principalID string) (*models.CurriculumAssessment, error)
	Delete(ctx context.Context, id uint, principalID string) error
}

type catalogService struct {
	repo      repositories.Repository
	validator *validator.Validator
	cache     cache.CacheService
	logger    utils.Logger
}

func NewCatalogService(repo repositories.Repository, v *validator.Validator, cacheService cache.CacheService, logger utils.Logger) CatalogService {
	return &catalogService{
		repo:      repo,
		validator: v,
		cache:     cacheService,
		logger:    logger,
	}
}

// ===== REQUEST TYPES =====

type CreateAnswerRequest struct {
	ID            uint   `json:"id,omitempty"`
	Title         string `json:"title" validate:"required,max=1000"`
	Description   *string `json:"description,omitempty"`
	SortOrder     int    `json:"sort_order" validate:"min=0"`
	CorrectAnswer bool   `json:"correct_answer"`
}

type CreateQuestionRequest struct {
	ID           uint                  `json:"id,omitempty"`
	Title        string                `json:"title" validate:"required,max=2000"`
	Description  *string               `json:"description,omitempty"`
	QuestionType models.QuestionType   `json:"question_type" validate:"required,question_type"`
	SortOrder    int                   `json:"sort_order" validate:"min=0"`
	MaxScore     int                   `json:"max_score" validate:"min=0"`
	Answers      []CreateAnswerRequest `json:"answers" validate:"dive"`
}

type CreateCurriculumAssessmentRequest struct {
	Title             string                  `json:"title" validate:"required,max=255"`
	Description       *string                 `json:"description,omitempty"`
	MaxScore          int                     `json:"max_score" validate:"min=0"`
	MaxNumSubmissions int                     `json:"max_num_submissions" validate:"min=1"`
	TimeLimit         *int                    `json:"time_limit,omitempty" validate:"omitempty,min=1"`
	CurriculumID      uint                    `json:"curriculum_id" validate:"required"`
	ActivityID        uint                    `json:"activity_id" validate:"required"`
	Questions         []CreateQuestionRequest `json:"questions" validate:"dive"`
}

type UpdateCurriculumAssessmentRequest struct {
	Title             *string                 `json:"title,omitempty" validate:"omitempty,max=255"`
	Description       *string                 `json:"description,omitempty"`
	MaxScore          *int                    `json:"max_score,omitempty" validate:"omitempty,min=0"`
	MaxNumSubmissions *int                    `json:"max_num_submissions,omitempty" validate:"omitempty,min=1"`
	TimeLimit         *int                    `json:"time_limit,omitempty" validate:"omitempty,min=1"`
	Questions         []CreateQuestionRequest `json:"questions,omitempty" validate:"omitempty,dive"`
}

// ===== READ PATH =====

func (s *catalogService) Get(ctx context.Context, id uint, includeQuestionsAndAllAnswers, includeQuestionsAndCorrectAnswers bool) (*models.CurriculumAssessment, error) {
	assessment, err := s.getFullTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	return shapeTemplate(assessment, includeQuestionsAndAllAnswers, includeQuestionsAndCorrectAnswers), nil
}

func (s *catalogService) GetForPrincipal(ctx context.Context, id uint, principalID string, includeQuestionsAndAllAnswers, includeQuestionsAndCorrectAnswers bool) (*models.CurriculumAssessment, error) {
	if includeQuestionsAndCorrectAnswers {
		facilitates, err := s.repo.Program().FacilitatesAssessment(ctx, principalID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check facilitator access: %w", err)
		}
		if !facilitates {
			// The template owner sees their own answer key even before the
			// template is scheduled anywhere.
			assessment, err := s.repo.CurriculumAssessment().GetByID(ctx, id)
			if err != nil {
				if repositories.IsNotFoundError(err) {
					return nil, ErrAssessmentNotFound
				}
				return nil, fmt.Errorf("failed to load curriculum assessment: %w", err)
			}
			if assessment.PrincipalID != principalID {
				return nil, fmt.Errorf("%w: correct answers are only disclosed to facilitators", ErrForbidden)
			}
		}
	}
	return s.Get(ctx, id, includeQuestionsAndAllAnswers, includeQuestionsAndCorrectAnswers)
}

// getFullTemplate loads the full-fidelity template, through the cache when
// possible. The cache always stores the unredacted form; shaping happens on
// the copy handed back to the caller.
func (s *catalogService) getFullTemplate(ctx context.Context, id uint) (*models.CurriculumAssessment, error) {
	cacheKey := curriculumCacheKey(id)

	var cached models.CurriculumAssessment
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	assessment, err := s.repo.CurriculumAssessment().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		s.logger.Error("Failed to load curriculum assessment", "assessment_id", id, "error", err)
		return nil, fmt.Errorf("failed to load curriculum assessment: %w", err)
	}

	if err := s.cache.Set(ctx, cacheKey, assessment, 10*time.Minute); err != nil {
		s.logger.Warn("Failed to cache curriculum assessment", "assessment_id", id, "error", err)
	}
	return assessment, nil
}

// shapeTemplate returns a copy shaped for the requested visibility level.
// The input is never mutated so cached templates stay full fidelity.
func shapeTemplate(a *models.CurriculumAssessment, includeAllAnswers, includeCorrectAnswers bool) *models.CurriculumAssessment {
	out := *a
	if !includeAllAnswers {
		out.Questions = nil
		return &out
	}

	questions := make([]models.Question, 0, len(a.Questions))
	for _, q := range a.Questions {
		qc := q
		if !includeCorrectAnswers {
			qc.CorrectAnswerID = nil
		}

		// Free response model answers are grading data: they only travel
		// when correct answers are disclosed.
		if q.QuestionType == models.QuestionTypeFreeResponse && !includeCorrectAnswers {
			qc.Answers = nil
			questions = append(questions, qc)
			continue
		}

		answers := make([]models.Answer, 0, len(q.Answers))
		for _, ans := range q.Answers {
			ac := ans
			if !includeCorrectAnswers {
				ac.CorrectAnswer = nil
			}
			answers = append(answers, ac)
		}
		qc.Answers = answers
		questions = append(questions, qc)
	}
	out.Questions = questions
	return &out
}

func curriculumCacheKey(id uint) string {
	return fmt.Sprintf("curriculum_assessment:%d", id)
}

// ===== WRITE PATH =====

func (s *catalogService) Create(ctx context.Context, req *CreateCurriculumAssessmentRequest, principalID string) (*models.CurriculumAssessment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := validateQuestionShapes(req.Questions); err != nil {
		return nil, err
	}

	assessment := &models.CurriculumAssessment{
		Title:             req.Title,
		Description:       req.Description,
		MaxScore:          req.MaxScore,
		MaxNumSubmissions: req.MaxNumSubmissions,
		TimeLimit:         req.TimeLimit,
		CurriculumID:      req.CurriculumID,
		ActivityID:        req.ActivityID,
		PrincipalID:       principalID,
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.CurriculumAssessment().Create(ctx, assessment); err != nil {
			return fmt.Errorf("failed to create curriculum assessment: %w", err)
		}
		for i := range req.Questions {
			if err := s.createQuestionTree(ctx, txRepo, assessment.ID, &req.Questions[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create curriculum assessment", "principal_id", principalID, "error", err)
		return nil, err
	}

	s.logger.Info("Curriculum assessment created", "assessment_id", assessment.ID, "principal_id", principalID)
	return s.repo.CurriculumAssessment().GetByIDWithQuestions(ctx, assessment.ID)
}

func (s *catalogService) createQuestionTree(ctx context.Context, txRepo repositories.Repository, assessmentID uint, qr *CreateQuestionRequest) error {
	question := &models.Question{
		AssessmentID: assessmentID,
		Title:        qr.Title,
		Description:  qr.Description,
		QuestionType: qr.QuestionType,
		SortOrder:    qr.SortOrder,
		MaxScore:     qr.MaxScore,
	}
	if err := txRepo.CurriculumAssessment().CreateQuestion(ctx, question); err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	var correctAnswerID *uint
	for _, ar := range qr.Answers {
		correct := ar.CorrectAnswer
		answer := &models.Answer{
			QuestionID:    question.ID,
			Title:         ar.Title,
			Description:   ar.Description,
			SortOrder:     ar.SortOrder,
			CorrectAnswer: &correct,
		}
		if err := txRepo.CurriculumAssessment().CreateAnswer(ctx, answer); err != nil {
			return fmt.Errorf("failed to create answer: %w", err)
		}
		if correct && correctAnswerID == nil {
			id := answer.ID
			correctAnswerID = &id
		}
	}

	if correctAnswerID != nil {
		question.CorrectAnswerID = correctAnswerID
		if err := txRepo.CurriculumAssessment().UpdateQuestion(ctx, question); err != nil {
			return fmt.Errorf("failed to link correct answer: %w", err)
		}
	}
	return nil
}

func (s *catalogService) Update(ctx context.Context, id uint, req *UpdateCurriculumAssessmentRequest, principalID string) (*models.CurriculumAssessment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Questions != nil {
		if err := validateQuestionShapes(req.Questions); err != nil {
			return nil, err
		}
	}

	existing, err := s.repo.CurriculumAssessment().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load curriculum assessment: %w", err)
	}

	if existing.PrincipalID != principalID {
		return nil, NewPermissionError(principalID, id, "curriculum_assessment", "update", "only the owning facilitator can modify a template")
	}

	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.Description != nil {
		existing.Description = req.Description
	}
	if req.MaxScore != nil {
		existing.MaxScore = *req.MaxScore
	}
	if req.MaxNumSubmissions != nil {
		existing.MaxNumSubmissions = *req.MaxNumSubmissions
	}
	if req.TimeLimit != nil {
		existing.TimeLimit = req.TimeLimit
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.CurriculumAssessment().Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to update curriculum assessment: %w", err)
		}
		if req.Questions != nil {
			if err := s.reconcileQuestions(ctx, txRepo, existing, req.Questions); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update curriculum assessment", "assessment_id", id, "error", err)
		return nil, err
	}

	if err := s.cache.Delete(ctx, curriculumCacheKey(id)); err != nil {
		s.logger.Warn("Failed to invalidate curriculum cache", "assessment_id", id, "error", err)
	}

	s.logger.Info("Curriculum assessment updated", "assessment_id", id, "principal_id", principalID)
	return s.repo.CurriculumAssessment().GetByIDWithQuestions(ctx, id)
}

// reconcileQuestions diffs the stored question tree against the request by
// stable ID: requests carrying an ID update the matching row, requests
// without one insert, and stored rows absent from the request are removed.
func (s *catalogService) reconcileQuestions(ctx context.Context, txRepo repositories.Repository, existing *models.CurriculumAssessment, reqs []CreateQuestionRequest) error {
	stored := make(map[uint]*models.Question, len(existing.Questions))
	for i := range existing.Questions {
		stored[existing.Questions[i].ID] = &existing.Questions[i]
	}

	seen := make(map[uint]bool, len(reqs))
	for i := range reqs {
		qr := &reqs[i]
		if qr.ID == 0 {
			if err := s.createQuestionTree(ctx, txRepo, existing.ID, qr); err != nil {
				return err
			}
			continue
		}

		prev, ok := stored[qr.ID]
		if !ok {
			return NewValidationError("questions", fmt.Sprintf("question %d does not belong to this assessment", qr.ID), qr.ID)
		}
		seen[qr.ID] = true

		prev.Title = qr.Title
		prev.Description = qr.Description
		prev.QuestionType = qr.QuestionType
		prev.SortOrder = qr.SortOrder
		prev.MaxScore = qr.MaxScore
		if err := s.reconcileAnswers(ctx, txRepo, prev, qr.Answers); err != nil {
			return err
		}
		if err := txRepo.CurriculumAssessment().UpdateQuestion(ctx, prev); err != nil {
			return fmt.Errorf("failed to update question: %w", err)
		}
	}

	for id := range stored {
		if !seen[id] {
			if err := txRepo.CurriculumAssessment().DeleteQuestion(ctx, id); err != nil {
				return fmt.Errorf("failed to remove question: %w", err)
			}
		}
	}
	return nil
}

func (s *catalogService) reconcileAnswers(ctx context.Context, txRepo repositories.Repository, question *models.Question, reqs []CreateAnswerRequest) error {
	stored := make(map[uint]*models.Answer, len(question.Answers))
	for i := range question.Answers {
		stored[question.Answers[i].ID] = &question.Answers[i]
	}

	var correctAnswerID *uint
	seen := make(map[uint]bool, len(reqs))
	for _, ar := range reqs {
		correct := ar.CorrectAnswer
		if ar.ID == 0 {
			answer := &models.Answer{
				QuestionID:    question.ID,
				Title:         ar.Title,
				Description:   ar.Description,
				SortOrder:     ar.SortOrder,
				CorrectAnswer: &correct,
			}
			if err := txRepo.CurriculumAssessment().CreateAnswer(ctx, answer); err != nil {
				return fmt.Errorf("failed to create answer: %w", err)
			}
			if correct && correctAnswerID == nil {
				id := answer.ID
				correctAnswerID = &id
			}
			continue
		}

		prev, ok := stored[ar.ID]
		if !ok {
			return NewValidationError("answers", fmt.Sprintf("answer %d does not belong to question %d", ar.ID, question.ID), ar.ID)
		}
		seen[ar.ID] = true
		prev.Title = ar.Title
		prev.Description = ar.Description
		prev.SortOrder = ar.SortOrder
		prev.CorrectAnswer = &correct
		if err := txRepo.CurriculumAssessment().UpdateAnswer(ctx, prev); err != nil {
			return fmt.Errorf("failed to update answer: %w", err)
		}
		if correct && correctAnswerID == nil {
			id := prev.ID
			correctAnswerID = &id
		}
	}

	for id := range stored {
		if !seen[id] {
			if err := txRepo.CurriculumAssessment().DeleteAnswer(ctx, id); err != nil {
				return fmt.Errorf("failed to remove answer: %w", err)
			}
		}
	}

	question.CorrectAnswerID = correctAnswerID
	return nil
}

func (s *catalogService) Delete(ctx context.Context, id uint, principalID string) error {
	existing, err := s.repo.CurriculumAssessment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to load curriculum assessment: %w", err)
	}

	if existing.PrincipalID != principalID {
		return NewPermissionError(principalID, id, "curriculum_assessment", "delete", "only the owning facilitator can delete a template")
	}

	// A template stays deletable until a submission response references one
	// of its questions.
	referenced, err := s.repo.Response().HasResponsesForAssessment(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check submission responses: %w", err)
	}
	if referenced {
		return ErrAssessmentNotDeletable
	}

	if err := s.repo.CurriculumAssessment().Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete curriculum assessment", "assessment_id", id, "error", err)
		return fmt.Errorf("failed to delete curriculum assessment: %w", err)
	}

	if err := s.cache.Delete(ctx, curriculumCacheKey(id)); err != nil {
		s.logger.Warn("Failed to invalidate curriculum cache", "assessment_id", id, "error", err)
	}

	s.logger.Info("Curriculum assessment deleted", "assessment_id", id, "principal_id", principalID)
	return nil
}

// validateQuestionShapes enforces the structural rules the tag validators
// cannot express: single choice questions need at least one answer option
// with exactly one marked correct, free response answers are optional model
// answers.
func validateQuestionShapes(questions []CreateQuestionRequest) error {
	for i, q := range questions {
		if q.QuestionType != models.QuestionTypeSingleChoice {
			continue
		}
		if len(q.Answers) == 0 {
			return NewValidationError(
				fmt.Sprintf("questions[%d].answers", i),
				"single choice questions require at least one answer option", nil)
		}
		correct := 0
		for _, a := range q.Answers {
			if a.CorrectAnswer {
				correct++
			}
		}
		if correct != 1 {
			return NewValidationError(
				fmt.Sprintf("questions[%d].answers", i),
				"single choice questions require exactly one correct answer", correct)
		}
	}
	return nil
}
