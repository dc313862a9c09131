package apperr

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FromBindError turns a gin binding error into a validation error with
// per-field messages keyed by lower-cased struct field name.
func FromBindError(err error) *AppError {
	fields := map[string]string{}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[lowerFirst(fe.Field())] = messageForTag(fe.Tag(), fe.Param())
		}
	} else {
		fields["_"] = "Malformed request body"
	}
	return ValidationErr("Please check the highlighted fields.", fields)
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "oneof":
		return "Must be one of: " + param
	case "min":
		return "Must be at least " + param
	case "max":
		return "Must be at most " + param
	case "len":
		return "Must be exactly " + param + " characters"
	case "numeric":
		return "Must contain digits only"
	default:
		return "Invalid value"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
