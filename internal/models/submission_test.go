package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveState(t *testing.T) {
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	beforeDue := due.Add(-time.Hour)
	atDue := due
	afterDue := due.Add(time.Hour)

	tests := []struct {
		name     string
		stored   SubmissionState
		now      time.Time
		expected SubmissionState
	}{
		{"opened before due date stays opened", SubmissionOpened, beforeDue, SubmissionOpened},
		{"in progress before due date stays in progress", SubmissionInProgress, beforeDue, SubmissionInProgress},
		{"opened at due date expires", SubmissionOpened, atDue, SubmissionExpired},
		{"opened after due date expires", SubmissionOpened, afterDue, SubmissionExpired},
		{"in progress after due date expires", SubmissionInProgress, afterDue, SubmissionExpired},
		{"submitted is immune to due date", SubmissionSubmitted, afterDue, SubmissionSubmitted},
		{"graded is immune to due date", SubmissionGraded, afterDue, SubmissionGraded},
		{"expired stays expired", SubmissionExpired, afterDue, SubmissionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EffectiveState(tt.stored, tt.now, due))
		})
	}
}

func TestSubmissionState_Rank(t *testing.T) {
	assert.Greater(t, SubmissionGraded.Rank(), SubmissionSubmitted.Rank())
	assert.Greater(t, SubmissionSubmitted.Rank(), SubmissionInProgress.Rank())
	assert.Greater(t, SubmissionInProgress.Rank(), SubmissionOpened.Rank())
	assert.Greater(t, SubmissionOpened.Rank(), SubmissionExpired.Rank())
}

func TestSubmissionState_ActiveAndTerminal(t *testing.T) {
	assert.True(t, SubmissionOpened.Active())
	assert.True(t, SubmissionInProgress.Active())
	assert.False(t, SubmissionSubmitted.Active())
	assert.False(t, SubmissionGraded.Active())
	assert.False(t, SubmissionExpired.Active())

	assert.True(t, SubmissionGraded.Terminal())
	assert.True(t, SubmissionExpired.Terminal())
	assert.False(t, SubmissionSubmitted.Terminal())
	assert.False(t, SubmissionOpened.Terminal())
}

func TestProgramAssessment_AvailabilityAt(t *testing.T) {
	pa := &ProgramAssessment{
		AvailableAfter: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, NotYetAvailable, pa.AvailabilityAt(pa.AvailableAfter.Add(-time.Minute)))
	assert.Equal(t, Available, pa.AvailabilityAt(pa.AvailableAfter))
	assert.Equal(t, Available, pa.AvailabilityAt(pa.DueDate.Add(-time.Minute)))
	assert.Equal(t, PastDue, pa.AvailabilityAt(pa.DueDate))
	assert.Equal(t, PastDue, pa.AvailabilityAt(pa.DueDate.Add(time.Hour)))
}
