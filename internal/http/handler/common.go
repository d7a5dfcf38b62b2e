package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/marketpaper/quote-api/internal/domain"
)

var validate = validator.New()

// respondJSON sends a success envelope
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.Envelope{OK: true, Data: data})
}

// respondWithError sends a standardized JSON error envelope
func respondWithError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.Envelope{OK: false, Error: domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	}})
}

// respondValidationError sends a validation error envelope with per-field messages
func respondValidationError(w http.ResponseWriter, err error) {
	errors := make(map[string]string)
	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ve {
			fieldName := toJSONFieldName(fe.Field())
			errors[fieldName] = formatValidationError(fe)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(domain.Envelope{OK: false, Error: domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: errors,
	}})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "lt":
		return fmt.Sprintf("Must be less than %s", fe.Param())
	case "uuid":
		return "Must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	case "url":
		return "Must be a valid URL"
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName converts a Go struct field name to its JSON equivalent (camelCase)
func toJSONFieldName(field string) string {
	if len(field) == 0 {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// decodeBody parses and validates a JSON request body. It writes the
// error response itself and reports whether decoding succeeded.
func decodeBody(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(target); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return domain.ErrorTypeUpstream
	default:
		return domain.ErrorTypeInternal
	}
}
