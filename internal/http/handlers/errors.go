package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/tbourn/go-book-service/internal/apperr"
)

// bindError converts a ShouldBindJSON failure into a taxonomy error: field
// rule violations become a validation error naming the first failing field,
// anything else (syntax errors, wrong types, empty body) a malformed payload.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Validation(fieldMessage(verrs[0]))
	}
	return apperr.HTTP(http.StatusBadRequest, apperr.KindMalformedPayload, "request body must be a JSON object with string fields title and author")
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
