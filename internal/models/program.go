package models

import (
	"time"
)

type ProgramRole string

const (
	ProgramRoleFacilitator ProgramRole = "Facilitator"
	ProgramRoleParticipant ProgramRole = "Participant"
)

// Program is one scheduled run of a curriculum.
type Program struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Title        string    `json:"title" gorm:"not null;size:255" validate:"required,max=255"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	TimeZone     string    `json:"time_zone" gorm:"not null;size:64;default:UTC"`
	CurriculumID uint      `json:"curriculum_id" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProgramParticipant enrolls a principal in a program with a role.
// A principal holds at most one role per program.
type ProgramParticipant struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	ProgramID   uint        `json:"program_id" gorm:"not null;uniqueIndex:idx_program_principal"`
	PrincipalID string      `json:"principal_id" gorm:"not null;size:255;uniqueIndex:idx_program_principal"`
	Role        ProgramRole `json:"role" gorm:"not null;size:32" validate:"required,program_role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Program Program `json:"-" gorm:"foreignKey:ProgramID"`
}

func (Program) TableName() string {
	return "programs"
}

func (ProgramParticipant) TableName() string {
	return "program_participants"
}
