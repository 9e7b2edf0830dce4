package errors

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FromValidator converts a validator failure into a Validation AppError.
func FromValidator(err error) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return Validation("Invalid input", ValidatorFields(ve))
	}
	return Validation(err.Error(), nil)
}

// ValidatorFields converts validator errors into a per-field reason map.
func ValidatorFields(validationErr validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(validationErr))
	for _, err := range validationErr {
		field := lowerFirst(err.Field())
		param := err.Param()

		var message string
		switch err.Tag() {
		case "required":
			message = field + " is required"
		case "min":
			message = field + " must be at least " + param
		case "max":
			message = field + " must be at most " + param
		case "oneof":
			message = field + " must be one of: " + param
		case "email":
			message = field + " must be a valid email address"
		case "mac":
			message = field + " must be a valid MAC address"
		case "dive", "unique":
			message = field + " contains invalid or duplicate entries"
		default:
			message = field + " is invalid"
		}
		fields[field] = message
	}
	return fields
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
