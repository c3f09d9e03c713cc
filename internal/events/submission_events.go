package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// EventType represents different types of submission lifecycle events
type EventType string

const (
	EventSubmissionSubmitted EventType = "submission.submitted"
	EventSubmissionGraded    EventType = "submission.graded"
)

// SubmissionEvent is the envelope for all submission lifecycle events
type SubmissionEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Data      interface{} `json:"data"`
}

// SubmissionSubmittedEvent fires when a participant submits an attempt
type SubmissionSubmittedEvent struct {
	SubmissionID        uint      `json:"submission_id"`
	ProgramAssessmentID uint      `json:"program_assessment_id"`
	PrincipalID         string    `json:"principal_id"`
	SubmittedAt         time.Time `json:"submitted_at"`
}

// SubmissionGradedEvent fires when a facilitator finishes grading an attempt
type SubmissionGradedEvent struct {
	SubmissionID        uint   `json:"submission_id"`
	ProgramAssessmentID uint   `json:"program_assessment_id"`
	PrincipalID         string `json:"principal_id"`
	GraderID            string `json:"grader_id"`
	Score               *int   `json:"score,omitempty"`
}

// NewSubmissionEvent wraps a payload in the standard envelope
func NewSubmissionEvent(eventType EventType, data interface{}) *SubmissionEvent {
	return &SubmissionEvent{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "assessment-service",
		Data:      data,
	}
}
