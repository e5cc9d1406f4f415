package types

import (
	"fmt"
	"strings"

	"atscore/internal/errors"

	"github.com/go-playground/validator/v10"
)

// validator.Validate caches struct metadata and is safe for concurrent use
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags on a request and returns a validation AppError
// naming every failing field.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid request", err)
	}

	messages := make([]string, 0, len(validationErrors))
	fields := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, fe.Field())
		messages = append(messages, describeFieldError(fe))
	}

	return errors.NewValidationError(errors.ErrCodeInvalidRequest, strings.Join(messages, "; "), nil).
		WithContext("fields", fields)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
