package postgres

import (
	"context"

	"github.com/pathlight-edu/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB

	curriculumAssessment repositories.CurriculumAssessmentRepository
	programAssessment    repositories.ProgramAssessmentRepository
	submission           repositories.SubmissionRepository
	response             repositories.ResponseRepository
	program              repositories.ProgramRepository
}

// NewRepository wires the PostgreSQL implementations behind the aggregate
// Repository interface.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:                   db,
		curriculumAssessment: NewCurriculumAssessmentPostgreSQL(db),
		programAssessment:    NewProgramAssessmentPostgreSQL(db),
		submission:           NewSubmissionPostgreSQL(db),
		response:             NewResponsePostgreSQL(db),
		program:              NewProgramPostgreSQL(db),
	}
}

func (r *repository) CurriculumAssessment() repositories.CurriculumAssessmentRepository {
	return r.curriculumAssessment
}

func (r *repository) ProgramAssessment() repositories.ProgramAssessmentRepository {
	return r.programAssessment
}

func (r *repository) Submission() repositories.SubmissionRepository {
	return r.submission
}

func (r *repository) Response() repositories.ResponseRepository {
	return r.response
}

func (r *repository) Program() repositories.ProgramRepository {
	return r.program
}

func (r *repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
