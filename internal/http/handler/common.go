package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/northpeak/logistics-api/internal/domain"
)

var validate = newValidator()

// newValidator builds a validator that reports json tag names instead
// of Go field names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// detailedErrors controls whether 500 responses carry the underlying
// error string. Enabled outside production.
var detailedErrors bool

// EnableDetailedErrors switches on error details in responses
func EnableDetailedErrors(on bool) {
	detailedErrors = on
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError sends a standardized JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, domain.ErrorResponse{Error: message})
}

// respondInternalError sends a 500 with the underlying cause attached
// outside production
func respondInternalError(w http.ResponseWriter, message string, err error) {
	resp := domain.ErrorResponse{Error: message}
	if detailedErrors && err != nil {
		resp.Details = err.Error()
	}
	respondJSON(w, http.StatusInternalServerError, resp)
}

// respondValidationError sends a 400 with per-field messages folded
// into the details string
func respondValidationError(w http.ResponseWriter, err error) {
	resp := domain.ErrorResponse{Error: "Validation failed"}

	if ve, ok := err.(validator.ValidationErrors); ok {
		parts := make([]string, 0, len(ve))
		for _, fe := range ve {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), formatValidationError(fe)))
		}
		resp.Details = strings.Join(parts, "; ")
	}

	respondJSON(w, http.StatusBadRequest, resp)
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}
