package models

import "time"

// ParticipantAssessmentSummary is the participant-facing roll-up across all of
// their submissions for one program assessment. No full submission detail is
// exposed.
type ParticipantAssessmentSummary struct {
	PrincipalID          string          `json:"principal_id"`
	ProgramAssessmentID  uint            `json:"program_assessment_id"`
	HighestState         SubmissionState `json:"highest_state"`
	MostRecentSubmitted  *time.Time      `json:"most_recent_submitted_at,omitempty"`
	TotalNumSubmissions  int             `json:"total_num_submissions"`
	HighestScore         *int            `json:"highest_score,omitempty"` // highest among graded attempts
}

// FacilitatorAssessmentSummary is the facilitator-facing roll-up for one
// program assessment. Counts are always present; "no rows" is a zero, never
// an absent value.
type FacilitatorAssessmentSummary struct {
	ProgramAssessmentID            uint `json:"program_assessment_id"`
	NumParticipantsWithSubmissions int  `json:"num_participants_with_submissions"`
	NumProgramParticipants         int  `json:"num_program_participants"`
	NumUngradedSubmissions         int  `json:"num_ungraded_submissions"`
}

// AssessmentWithSummary is one row of the "my assessments" listing: the
// binding plus the summary shaped for the requester's role. Exactly one of
// the two summaries is set.
type AssessmentWithSummary struct {
	CurriculumAssessment *CurriculumAssessment         `json:"curriculum_assessment"`
	ProgramAssessment    *ProgramAssessment            `json:"program_assessment"`
	PrincipalProgramRole ProgramRole                   `json:"principal_program_role"`
	ParticipantSummary   *ParticipantAssessmentSummary `json:"participant_submissions_summary,omitempty"`
	FacilitatorSummary   *FacilitatorAssessmentSummary `json:"facilitator_submissions_summary,omitempty"`
}

// SavedAssessment bundles everything a client needs to render one submission:
// the visibility-filtered template, the binding, the requester's role, and
// the submission itself.
type SavedAssessment struct {
	CurriculumAssessment *CurriculumAssessment `json:"curriculum_assessment"`
	ProgramAssessment    *ProgramAssessment    `json:"program_assessment"`
	PrincipalProgramRole ProgramRole           `json:"principal_program_role"`
	Submission           *AssessmentSubmission `json:"submission"`
}
