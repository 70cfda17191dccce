package validator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/user-service/internal/models"
)

// Validator wraps go-playground/validator with the account-service rules.
type Validator struct {
	validate *validator.Validate
}

// ValidationError represents a single field failure.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// New creates a validator with custom rules registered.
func New() *Validator {
	v := &Validator{validate: validator.New()}
	v.registerBusinessRules()
	return v
}

// Validate validates a struct; returns nil when all rules pass.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func (v *Validator) registerBusinessRules() {
	// Passwords: 8-72 bytes (bcrypt input limit), at least one letter and
	// one digit. The plaintext value is never echoed back in the error.
	_ = v.validate.RegisterValidation("user_password", func(fl validator.FieldLevel) bool {
		password := fl.Field().String()
		if len(password) < 8 || len(password) > 72 {
			return false
		}
		var hasLetter, hasDigit bool
		for _, r := range password {
			switch {
			case unicode.IsLetter(r):
				hasLetter = true
			case unicode.IsDigit(r):
				hasDigit = true
			}
		}
		return hasLetter && hasDigit
	})

	_ = v.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})
}

func toValidationErrors(err error) ValidationErrors {
	var result ValidationErrors

	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrors {
			ve := ValidationError{
				Field:   strings.ToLower(fe.Field()),
				Message: messageForTag(fe),
				Rule:    fe.Tag(),
			}
			// Never echo credential material back to the caller.
			if fe.Tag() != "user_password" && fe.Field() != "Password" && fe.Field() != "NewPassword" && fe.Field() != "OldPassword" {
				ve.Value = fmt.Sprintf("%v", fe.Value())
			}
			result = append(result, ve)
		}
		return result
	}

	return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "struct"}}
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "user_password":
		return "must be 8-72 characters and contain at least one letter and one digit"
	case "user_role":
		return "must be one of: student, instructor, admin"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
