package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pathlight-edu/assessment-service/internal/events"
	"github.com/pathlight-edu/assessment-service/internal/models"
	"github.com/pathlight-edu/assessment-service/internal/repositories"
	"github.com/pathlight-edu/assessment-service/internal/utils"
	"github.com/pathlight-edu/assessment-service/internal/validator"
)

// SubmissionService drives the submission lifecycle:
//
//	Opened -> In Progress -> Submitted -> Graded
//	Opened / In Progress -> Expired (when the due date passes)
//
// Graded and Expired are terminal. Expiry is applied lazily at access time;
// nothing sweeps the table in the background.
type SubmissionService interface {
	// StartOrResume returns the participant's active submission for the
	// program assessment, creating a new Opened one only when no active
	// submission exists and the submission quota has room.
	StartOrResume(ctx context.Context, programAssessmentID uint, principalID string) (*models.SavedAssessment, error)

	// Fetch returns one submission bundled with its template and binding,
	// shaped for the requester's role.
	Fetch(ctx context.Context, submissionID uint, principalID string) (*models.SavedAssessment, error)

	SaveResponses(ctx context.Context, submissionID uint, principalID string, req *SaveResponsesRequest) (*models.AssessmentSubmission, error)
	Submit(ctx context.Context, submissionID uint, principalID string) (*models.AssessmentSubmission, error)
	Grade(ctx context.Context, submissionID uint, graderID string, req *GradeSubmissionRequest) (*models.AssessmentSubmission, error)
}

type submissionService struct {
	repo      repositories.Repository
	catalog   CatalogService
	roles     RoleResolver
	validator *validator.Validator
	publisher events.EventPublisher
	logger    utils.Logger
}

func NewSubmissionService(
	repo repositories.Repository,
	catalog CatalogService,
	roles RoleResolver,
	v *validator.Validator,
	publisher events.EventPublisher,
	logger utils.Logger,
) SubmissionService {
	return &submissionService{
		repo:      repo,
		catalog:   catalog,
		roles:     roles,
		validator: v,
		publisher: publisher,
		logger:    logger,
	}
}

// ===== REQUEST TYPES =====

type SaveResponseRequest struct {
	QuestionID   uint    `json:"question_id" validate:"required"`
	AnswerID     *uint   `json:"answer_id,omitempty"`
	ResponseText *string `json:"response_text,omitempty"`
}

type SaveResponsesRequest struct {
	Responses []SaveResponseRequest `json:"responses" validate:"required,min=1,dive"`
}

type GradeResponseRequest struct {
	ResponseID     uint    `json:"response_id" validate:"required"`
	Score          int     `json:"score" validate:"min=0"`
	GraderResponse *string `json:"grader_response,omitempty"`
}

type GradeSubmissionRequest struct {
	Score     int                    `json:"score" validate:"min=0"`
	Responses []GradeResponseRequest `json:"responses" validate:"dive"`
}

// ===== START / RESUME =====

func (s *submissionService) StartOrResume(ctx context.Context, programAssessmentID uint, principalID string) (*models.SavedAssessment, error) {
	pa, err := s.loadProgramAssessment(ctx, programAssessmentID)
	if err != nil {
		return nil, err
	}

	// The window is checked before the caller's role so a facilitator
	// calling outside the window still gets the window error.
	switch pa.AvailabilityAt(time.Now()) {
	case models.NotYetAvailable:
		return nil, ErrAssessmentNotYetAvailable
	case models.PastDue:
		return nil, ErrAssessmentPastDueDate
	}

	role, err := s.roles.RoleOf(ctx, principalID, pa.ProgramID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrNoProgramRole
	}
	if *role == models.ProgramRoleFacilitator {
		return nil, ErrFacilitatorCannotSubmit
	}

	template, err := s.repo.CurriculumAssessment().GetByID(ctx, pa.AssessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load curriculum assessment: %w", err)
	}

	var submission *models.AssessmentSubmission
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		// Resume wins over the quota: an existing active submission comes
		// back untouched even when the participant is already at the cap.
		active, err := txRepo.Submission().GetActive(ctx, programAssessmentID, principalID)
		if err != nil {
			return fmt.Errorf("failed to look up active submission: %w", err)
		}
		if active != nil {
			submission = active
			return nil
		}

		count, err := txRepo.Submission().CountForParticipant(ctx, programAssessmentID, principalID)
		if err != nil {
			return fmt.Errorf("failed to count submissions: %w", err)
		}
		if count >= template.MaxNumSubmissions {
			return ErrSubmissionQuotaExceeded
		}

		submission = &models.AssessmentSubmission{
			AssessmentID: programAssessmentID,
			PrincipalID:  principalID,
			State:        models.SubmissionOpened,
			OpenedAt:     time.Now(),
		}
		return txRepo.Submission().Create(ctx, submission)
	})
	if err != nil {
		// A concurrent start can win the race to the partial unique index on
		// active submissions. The loser resolves to the winner's row so both
		// callers see the same submission.
		if repositories.IsDuplicateError(err) {
			winner, lookupErr := s.repo.Submission().GetActive(ctx, programAssessmentID, principalID)
			if lookupErr != nil {
				return nil, fmt.Errorf("failed to resolve concurrent submission: %w", lookupErr)
			}
			if winner == nil {
				return nil, ErrConflict
			}
			submission = winner
		} else {
			return nil, err
		}
	}

	s.logger.Info("Submission opened or resumed",
		"submission_id", submission.ID,
		"program_assessment_id", programAssessmentID,
		"principal_id", principalID,
		"state", submission.State)

	return s.bundle(ctx, pa, submission, *role, principalID)
}

// ===== FETCH =====

func (s *submissionService) Fetch(ctx context.Context, submissionID uint, principalID string) (*models.SavedAssessment, error) {
	submission, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	pa, err := s.loadProgramAssessment(ctx, submission.AssessmentID)
	if err != nil {
		return nil, err
	}

	role, err := s.requireAccess(ctx, submission, pa, principalID, "view")
	if err != nil {
		return nil, err
	}

	if err := s.applyLazyExpiry(ctx, submission, pa); err != nil {
		return nil, err
	}

	return s.bundle(ctx, pa, submission, *role, principalID)
}

// ===== SAVE RESPONSES =====

func (s *submissionService) SaveResponses(ctx context.Context, submissionID uint, principalID string, req *SaveResponsesRequest) (*models.AssessmentSubmission, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	submission, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if submission.PrincipalID != principalID {
		return nil, NewPermissionError(principalID, submissionID, "submission", "update", "submissions may only be changed by their owner")
	}

	pa, err := s.loadProgramAssessment(ctx, submission.AssessmentID)
	if err != nil {
		return nil, err
	}

	if err := s.applyLazyExpiry(ctx, submission, pa); err != nil {
		return nil, err
	}
	if submission.State == models.SubmissionExpired {
		return nil, ErrSubmissionExpired
	}
	if !submission.State.Active() {
		return nil, ErrSubmissionNotActive
	}

	template, err := s.catalog.Get(ctx, pa.AssessmentID, true, false)
	if err != nil {
		return nil, err
	}
	questions := make(map[uint]*models.Question, len(template.Questions))
	for i := range template.Questions {
		questions[template.Questions[i].ID] = &template.Questions[i]
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		for _, rr := range req.Responses {
			question, ok := questions[rr.QuestionID]
			if !ok {
				return NewValidationError("question_id",
					fmt.Sprintf("question %d does not belong to this assessment", rr.QuestionID), rr.QuestionID)
			}
			switch question.QuestionType {
			case models.QuestionTypeSingleChoice:
				if rr.AnswerID == nil {
					return NewValidationError("answer_id", "single choice responses require an answer_id", nil)
				}
				if !answerBelongsToQuestion(question, *rr.AnswerID) {
					return NewValidationError("answer_id",
						fmt.Sprintf("answer %d does not belong to question %d", *rr.AnswerID, rr.QuestionID), *rr.AnswerID)
				}
			case models.QuestionTypeFreeResponse:
				if rr.ResponseText == nil {
					return NewValidationError("response_text", "free response answers require response_text", nil)
				}
			}

			existing, err := txRepo.Response().GetBySubmissionAndQuestion(ctx, submissionID, rr.QuestionID)
			if err != nil && !repositories.IsNotFoundError(err) {
				return fmt.Errorf("failed to look up response: %w", err)
			}
			if existing != nil {
				existing.AnswerID = rr.AnswerID
				existing.ResponseText = rr.ResponseText
				if err := txRepo.Response().Update(ctx, existing); err != nil {
					return fmt.Errorf("failed to update response: %w", err)
				}
				continue
			}
			response := &models.AssessmentResponse{
				AssessmentID: pa.AssessmentID,
				SubmissionID: submissionID,
				QuestionID:   rr.QuestionID,
				AnswerID:     rr.AnswerID,
				ResponseText: rr.ResponseText,
			}
			if err := txRepo.Response().Create(ctx, response); err != nil {
				return fmt.Errorf("failed to create response: %w", err)
			}
		}

		if submission.State == models.SubmissionOpened {
			if err := txRepo.Submission().UpdateState(ctx, submissionID, models.SubmissionInProgress); err != nil {
				return fmt.Errorf("failed to advance submission state: %w", err)
			}
			submission.State = models.SubmissionInProgress
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Responses saved",
		"submission_id", submissionID, "principal_id", principalID, "count", len(req.Responses))

	return s.repo.Submission().GetByIDWithResponses(ctx, submissionID)
}

// ===== SUBMIT =====

func (s *submissionService) Submit(ctx context.Context, submissionID uint, principalID string) (*models.AssessmentSubmission, error) {
	submission, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if submission.PrincipalID != principalID {
		return nil, NewPermissionError(principalID, submissionID, "submission", "submit", "submissions may only be submitted by their owner")
	}

	pa, err := s.loadProgramAssessment(ctx, submission.AssessmentID)
	if err != nil {
		return nil, err
	}

	if err := s.applyLazyExpiry(ctx, submission, pa); err != nil {
		return nil, err
	}
	if submission.State == models.SubmissionExpired {
		return nil, ErrSubmissionExpired
	}
	if !submission.State.Active() {
		if submission.State == models.SubmissionSubmitted || submission.State == models.SubmissionGraded {
			return nil, ErrSubmissionAlreadySubmitted
		}
		return nil, ErrSubmissionNotActive
	}

	now := time.Now()
	submission.State = models.SubmissionSubmitted
	submission.SubmittedAt = &now

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Submission().Update(ctx, submission); err != nil {
			return fmt.Errorf("failed to submit: %w", err)
		}
		return s.recordEvent(ctx, txRepo, submission.ID, events.EventSubmissionSubmitted, events.SubmissionSubmittedEvent{
			SubmissionID:        submission.ID,
			ProgramAssessmentID: submission.AssessmentID,
			PrincipalID:         submission.PrincipalID,
			SubmittedAt:         now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewSubmissionEvent(events.EventSubmissionSubmitted, events.SubmissionSubmittedEvent{
		SubmissionID:        submission.ID,
		ProgramAssessmentID: submission.AssessmentID,
		PrincipalID:         submission.PrincipalID,
		SubmittedAt:         now,
	}))

	s.logger.Info("Submission submitted",
		"submission_id", submissionID, "principal_id", principalID)
	return submission, nil
}

// ===== GRADE =====

func (s *submissionService) Grade(ctx context.Context, submissionID uint, graderID string, req *GradeSubmissionRequest) (*models.AssessmentSubmission, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	submission, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	pa, err := s.loadProgramAssessment(ctx, submission.AssessmentID)
	if err != nil {
		return nil, err
	}

	role, err := s.roles.RoleOf(ctx, graderID, pa.ProgramID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrNoProgramRole
	}
	if *role != models.ProgramRoleFacilitator {
		return nil, fmt.Errorf("%w: only facilitators can grade submissions", ErrForbidden)
	}

	switch submission.State {
	case models.SubmissionGraded:
		return nil, ErrSubmissionAlreadyGraded
	case models.SubmissionSubmitted:
		// gradable
	default:
		return nil, ErrSubmissionNotSubmitted
	}

	responses, err := s.repo.Response().GetBySubmission(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission responses: %w", err)
	}
	owned := make(map[uint]bool, len(responses))
	for _, r := range responses {
		owned[r.ID] = true
	}
	for _, gr := range req.Responses {
		if !owned[gr.ResponseID] {
			return nil, NewValidationError("response_id",
				fmt.Sprintf("response %d does not belong to submission %d", gr.ResponseID, submissionID), gr.ResponseID)
		}
	}

	score := req.Score
	submission.State = models.SubmissionGraded
	submission.Score = &score

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		for _, gr := range req.Responses {
			rs := gr.Score
			if err := txRepo.Response().UpdateGrade(ctx, gr.ResponseID, &rs, gr.GraderResponse); err != nil {
				return fmt.Errorf("failed to grade response: %w", err)
			}
		}
		if err := txRepo.Submission().Update(ctx, submission); err != nil {
			return fmt.Errorf("failed to record grade: %w", err)
		}
		return s.recordEvent(ctx, txRepo, submission.ID, events.EventSubmissionGraded, events.SubmissionGradedEvent{
			SubmissionID:        submission.ID,
			ProgramAssessmentID: submission.AssessmentID,
			PrincipalID:         submission.PrincipalID,
			GraderID:            graderID,
			Score:               submission.Score,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewSubmissionEvent(events.EventSubmissionGraded, events.SubmissionGradedEvent{
		SubmissionID:        submission.ID,
		ProgramAssessmentID: submission.AssessmentID,
		PrincipalID:         submission.PrincipalID,
		GraderID:            graderID,
		Score:               submission.Score,
	}))

	s.logger.Info("Submission graded",
		"submission_id", submissionID, "grader_id", graderID, "score", score)
	return submission, nil
}

// ===== HELPERS =====

func (s *submissionService) loadSubmission(ctx context.Context, id uint) (*models.AssessmentSubmission, error) {
	submission, err := s.repo.Submission().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	return submission, nil
}

func answerBelongsToQuestion(q *models.Question, answerID uint) bool {
	for _, a := range q.Answers {
		if a.ID == answerID {
			return true
		}
	}
	return false
}

func (s *submissionService) loadProgramAssessment(ctx context.Context, id uint) (*models.ProgramAssessment, error) {
	pa, err := s.repo.ProgramAssessment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProgramAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load program assessment: %w", err)
	}
	return pa, nil
}

// requireAccess resolves the requester's role and enforces read access:
// facilitators of the program see every submission, participants only their
// own. The resolved role is returned for disclosure decisions.
func (s *submissionService) requireAccess(ctx context.Context, submission *models.AssessmentSubmission, pa *models.ProgramAssessment, principalID, action string) (*models.ProgramRole, error) {
	role, err := s.roles.RoleOf(ctx, principalID, pa.ProgramID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrNoProgramRole
	}
	if *role == models.ProgramRoleParticipant && submission.PrincipalID != principalID {
		return nil, NewPermissionError(principalID, submission.ID, "submission", action, "participants may only access their own submissions")
	}
	return role, nil
}

// applyLazyExpiry persists the Expired state when an active submission is
// read past its due date, so the stored row catches up with the effective
// state.
func (s *submissionService) applyLazyExpiry(ctx context.Context, submission *models.AssessmentSubmission, pa *models.ProgramAssessment) error {
	effective := models.EffectiveState(submission.State, time.Now(), pa.DueDate)
	if effective == submission.State {
		return nil
	}
	if err := s.repo.Submission().UpdateState(ctx, submission.ID, effective); err != nil {
		return fmt.Errorf("failed to expire submission: %w", err)
	}
	submission.State = effective
	s.logger.Info("Submission expired",
		"submission_id", submission.ID, "due_date", pa.DueDate)
	return nil
}

// bundle builds the response envelope with role-appropriate disclosure.
// Correct answers and grading commentary travel only to facilitators, or to
// the owning participant once the submission is Graded. Expired submissions
// never disclose to participants.
func (s *submissionService) bundle(ctx context.Context, pa *models.ProgramAssessment, submission *models.AssessmentSubmission, role models.ProgramRole, principalID string) (*models.SavedAssessment, error) {
	full, err := s.repo.Submission().GetByIDWithResponses(ctx, submission.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission responses: %w", err)
	}
	full.State = submission.State

	disclose := role == models.ProgramRoleFacilitator ||
		(role == models.ProgramRoleParticipant && full.State == models.SubmissionGraded)

	template, err := s.catalog.Get(ctx, pa.AssessmentID, true, disclose)
	if err != nil {
		return nil, err
	}

	if !disclose {
		for i := range full.Responses {
			full.Responses[i].Score = nil
			full.Responses[i].GraderResponse = nil
		}
		if full.State != models.SubmissionGraded {
			full.Score = nil
		}
	}

	return &models.SavedAssessment{
		CurriculumAssessment: template,
		ProgramAssessment:    pa,
		PrincipalProgramRole: role,
		Submission:           full,
	}, nil
}

func (s *submissionService) recordEvent(ctx context.Context, txRepo repositories.Repository, submissionID uint, eventType events.EventType, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return txRepo.Submission().CreateEvent(ctx, &models.SubmissionEvent{
		SubmissionID: submissionID,
		EventType:    string(eventType),
		Payload:      raw,
	})
}

// publish is best effort: the outbox row is the durable record, a transport
// failure here only delays delivery.
func (s *submissionService) publish(ctx context.Context, event *events.SubmissionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSubmissionEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish submission event",
			"event_type", event.Type, "error", err)
	}
}
