package validator

import (
	"reflect"
	"strings"

	apperrors "github.com/pathlight-edu/assessment-service/internal/errors"
	"github.com/pathlight-edu/assessment-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps the struct validator with the domain's custom rules.
type Validator struct {
	structValidator *validator.Validate
}

// New creates the shared validator instance with all custom rules registered.
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)
	return &Validator{structValidator: structValidator}
}

// Validate validates struct tags and returns the shared ValidationErrors type
// so handlers can render per-field messages.
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if converted := apperrors.ToValidationErrors(err); len(converted) > 0 {
			return converted
		}
		return err
	}
	return nil
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("program_role", validateProgramRole)
	validate.RegisterValidation("submission_state", validateSubmissionState)

	// Report field names from the json tag for better error messages.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.QuestionTypeSingleChoice,
		models.QuestionTypeFreeResponse,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateProgramRole(fl validator.FieldLevel) bool {
	validRoles := []models.ProgramRole{
		models.ProgramRoleFacilitator,
		models.ProgramRoleParticipant,
	}

	value := fl.Field().String()
	for _, validRole := range validRoles {
		if string(validRole) == value {
			return true
		}
	}
	return false
}

func validateSubmissionState(fl validator.FieldLevel) bool {
	validStates := []models.SubmissionState{
		models.SubmissionOpened,
		models.SubmissionInProgress,
		models.SubmissionSubmitted,
		models.SubmissionGraded,
		models.SubmissionExpired,
	}

	value := fl.Field().String()
	for _, validState := range validStates {
		if string(validState) == value {
			return true
		}
	}
	return false
}
