package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator provides input validation using go-playground/validator.
// It implements echo.Validator so handlers can call c.Validate() and
// get declarative struct-tag validation with readable error messages.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance.
//
// Usage in main.go:
//
//	e.Validator = validation.NewValidator()
func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(),
	}
}

// Validate validates a struct using its validation tags.
// Called automatically by Echo when c.Validate() is used.
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			formatted := FormatValidationErrors(validationErrors)

			var messages []string
			for field, message := range formatted {
				messages = append(messages, fmt.Sprintf("%s: %s", field, message))
			}
			return errors.New(strings.Join(messages, "; "))
		}
		return err
	}
	return nil
}

// FormatValidationErrors converts validator errors to user-friendly
// messages, keyed by lower-cased field name.
func FormatValidationErrors(err error) map[string]string {
	result := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		result["_error"] = err.Error()
		return result
	}

	for _, fieldErr := range validationErrors {
		fieldName := strings.ToLower(fieldErr.Field())

		switch fieldErr.Tag() {
		case "required":
			result[fieldName] = "is required"
		case "email":
			result[fieldName] = "must be a valid email address"
		case "min":
			result[fieldName] = fmt.Sprintf("must be at least %s characters", fieldErr.Param())
		case "max":
			result[fieldName] = fmt.Sprintf("must be no more than %s characters", fieldErr.Param())
		case "oneof":
			result[fieldName] = fmt.Sprintf("must be one of: %s", fieldErr.Param())
		default:
			result[fieldName] = fmt.Sprintf("failed %s validation", fieldErr.Tag())
		}
	}

	return result
}
