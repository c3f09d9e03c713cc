package pkg

import (
	"fmt"

	"github.com/pathlight-edu/assessment-service/internal/config"
	"github.com/pathlight-edu/assessment-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Unique violations must surface as gorm.ErrDuplicatedKey so the
		// submission service can resolve concurrent starts.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Program{},
		&models.ProgramParticipant{},
		&models.CurriculumAssessment{},
		&models.Question{},
		&models.Answer{},
		&models.ProgramAssessment{},
		&models.AssessmentSubmission{},
		&models.AssessmentResponse{},
		&models.SubmissionEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// At most one Opened or In Progress submission per participant per
	// program assessment. AutoMigrate cannot express a partial index.
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_active_submission
		ON assessment_submissions (assessment_id, principal_id)
		WHERE state IN ('Opened', 'In Progress')`).Error
	if err != nil {
		return fmt.Errorf("failed to create active submission index: %w", err)
	}
	return nil
}
