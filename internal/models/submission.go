package models

import (
	"time"

	"gorm.io/datatypes"
)

type SubmissionState string

const (
	SubmissionOpened     SubmissionState = "Opened"
	SubmissionInProgress SubmissionState = "In Progress"
	SubmissionSubmitted  SubmissionState = "Submitted"
	SubmissionGraded     SubmissionState = "Graded"
	SubmissionExpired    SubmissionState = "Expired"
)

// Active reports whether the participant may still mutate the submission.
func (s SubmissionState) Active() bool {
	return s == SubmissionOpened || s == SubmissionInProgress
}

// Terminal states accept no further transitions.
func (s SubmissionState) Terminal() bool {
	return s == SubmissionGraded || s == SubmissionExpired
}

// Rank orders states by progress reached, for "best state across attempts"
// roll-ups: Graded > Submitted > In Progress > Opened > Expired.
func (s SubmissionState) Rank() int {
	switch s {
	case SubmissionGraded:
		return 4
	case SubmissionSubmitted:
		return 3
	case SubmissionInProgress:
		return 2
	case SubmissionOpened:
		return 1
	default:
		return 0
	}
}

// EffectiveState resolves lazy expiry: an active submission whose program
// assessment due date has passed is Expired, whatever the stored state says.
// Submitted and graded submissions are unaffected by the due date.
func EffectiveState(stored SubmissionState, now, dueDate time.Time) SubmissionState {
	if stored.Active() && !now.Before(dueDate) {
		return SubmissionExpired
	}
	return stored
}

// AssessmentSubmission is one participant's attempt at a program assessment.
// Score is only meaningful once State is Graded.
type AssessmentSubmission struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	AssessmentID uint            `json:"assessment_id" gorm:"not null;index"` // → program_assessments
	PrincipalID  string          `json:"principal_id" gorm:"not null;size:255;index"`
	State        SubmissionState `json:"assessment_submission_state" gorm:"column:state;not null;size:32;index" validate:"omitempty,submission_state"`
	Score        *int            `json:"score,omitempty"`
	OpenedAt     time.Time       `json:"opened_at" gorm:"not null"`
	SubmittedAt  *time.Time      `json:"submitted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Responses []AssessmentResponse `json:"responses,omitempty" gorm:"foreignKey:SubmissionID"`
}

// AssessmentResponse records one answer within a submission: an answer option
// for single-choice questions or response text for free-response questions.
// Score and GraderResponse are grading data, disclosed under the same rule as
// correct answers.
type AssessmentResponse struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	AssessmentID uint    `json:"assessment_id" gorm:"not null;index"`
	SubmissionID uint    `json:"submission_id" gorm:"not null;index"`
	QuestionID   uint    `json:"question_id" gorm:"not null;index"`
	AnswerID     *uint   `json:"answer_id,omitempty"`
	ResponseText *string `json:"response_text,omitempty" gorm:"column:response;type:text"`

	Score          *int    `json:"score,omitempty"`
	GraderResponse *string `json:"grader_response,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmissionEvent is the outbox row written in the same transaction as a
// Submitted or Graded transition, then relayed to the event publisher.
type SubmissionEvent struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	SubmissionID uint           `json:"submission_id" gorm:"not null;index"`
	EventType    string         `json:"event_type" gorm:"not null;size:64"`
	Payload      datatypes.JSON `json:"payload" gorm:"type:jsonb"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (AssessmentSubmission) TableName() string {
	return "assessment_submissions"
}

func (AssessmentResponse) TableName() string {
	return "assessment_responses"
}

func (SubmissionEvent) TableName() string {
	return "assessment_submission_events"
}
