package models

import (
	"time"
)

type QuestionType string

const (
	QuestionTypeSingleChoice QuestionType = "single choice"
	QuestionTypeFreeResponse QuestionType = "free response"
)

// CurriculumAssessment is the reusable assessment template authored against a
// curriculum activity. Its question/answer tree is immutable in identity once
// submissions reference it.
type CurriculumAssessment struct {
	ID                uint    `json:"id" gorm:"primaryKey"`
	Title             string  `json:"title" gorm:"not null;size:255;index" validate:"required,min=1,max=255"`
	Description       *string `json:"description,omitempty" gorm:"type:text" validate:"omitempty,max=2000"`
	MaxScore          int     `json:"max_score" gorm:"not null" validate:"required,min=0"`
	MaxNumSubmissions int     `json:"max_num_submissions" gorm:"not null;default:1" validate:"required,min=1"`
	TimeLimit         *int    `json:"time_limit,omitempty" validate:"omitempty,min=1"` // minutes
	CurriculumID      uint    `json:"curriculum_id" gorm:"not null;index"`
	ActivityID        uint    `json:"activity_id" gorm:"not null;index"`
	PrincipalID       string  `json:"principal_id" gorm:"not null;size:255;index"` // authoring principal

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Omitted entirely unless the caller asked for questions; sorted by
	// sort_order when loaded.
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:AssessmentID"`
}

// Question belongs to one curriculum assessment. CorrectAnswerID is
// correct-answer metadata and is stripped from any read that is not
// authorized for disclosure.
type Question struct {
	ID              uint         `json:"id" gorm:"primaryKey"`
	AssessmentID    uint         `json:"assessment_id" gorm:"not null;index"`
	Title           string       `json:"title" gorm:"not null;type:text" validate:"required,min=1"`
	Description     *string      `json:"description,omitempty" gorm:"type:text"`
	QuestionType    QuestionType `json:"question_type" gorm:"not null;size:32" validate:"required,question_type"`
	SortOrder       int          `json:"sort_order" gorm:"not null"`
	MaxScore        int          `json:"max_score" gorm:"not null" validate:"min=0"`
	CorrectAnswerID *uint        `json:"correct_answer_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:QuestionID"`
}

// Answer is one option of a single-choice question, or a model answer for a
// free-response question. The CorrectAnswer flag is disclosed under the same
// rule as Question.CorrectAnswerID.
type Answer struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	QuestionID    uint    `json:"question_id" gorm:"not null;index"`
	Title         string  `json:"title" gorm:"not null;type:text" validate:"required,min=1"`
	Description   *string `json:"description,omitempty" gorm:"type:text"`
	SortOrder     int     `json:"sort_order" gorm:"not null"`
	CorrectAnswer *bool   `json:"correct_answer,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProgramAssessment binds one curriculum assessment to one program run with
// an availability window. Invariant: AvailableAfter < DueDate.
type ProgramAssessment struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ProgramID      uint      `json:"program_id" gorm:"not null;index" validate:"required"`
	AssessmentID   uint      `json:"assessment_id" gorm:"not null;index" validate:"required"`
	AvailableAfter time.Time `json:"available_after" gorm:"not null" validate:"required"`
	DueDate        time.Time `json:"due_date" gorm:"not null" validate:"required"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Program Program `json:"-" gorm:"foreignKey:ProgramID"`
}

// Availability is the relation of a point in time to the window
// [AvailableAfter, DueDate).
type Availability int

const (
	NotYetAvailable Availability = iota
	Available
	PastDue
)

// AvailabilityAt reports where now falls relative to the submission window.
func (pa *ProgramAssessment) AvailabilityAt(now time.Time) Availability {
	if now.Before(pa.AvailableAfter) {
		return NotYetAvailable
	}
	if !now.Before(pa.DueDate) {
		return PastDue
	}
	return Available
}

func (CurriculumAssessment) TableName() string {
	return "curriculum_assessments"
}

func (Question) TableName() string {
	return "assessment_questions"
}

func (Answer) TableName() string {
	return "assessment_answers"
}

func (ProgramAssessment) TableName() string {
	return "program_assessments"
}
