package tool

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCategory classifies capability failures for the hosting agent.
// Errors cross the tool boundary as values inside the response envelope,
// never as faults.
type ErrorCategory string

const (
	// CategoryInputError indicates the request payload was malformed.
	CategoryInputError ErrorCategory = "INPUT_ERROR"

	// CategoryNotFound indicates the requested resource doesn't exist
	// (but might exist with corrected parameters).
	CategoryNotFound ErrorCategory = "NOT_FOUND"

	// CategoryRateLimit indicates the upstream provider quota was exceeded.
	CategoryRateLimit ErrorCategory = "RATE_LIMIT"

	// CategoryAuthError indicates an upstream credential failure.
	// Typically not retryable; requires a configuration fix.
	CategoryAuthError ErrorCategory = "AUTH_ERROR"

	// CategoryServiceError indicates an upstream provider failure.
	CategoryServiceError ErrorCategory = "SERVICE_ERROR"
)

// Error is a structured capability failure, serialized as the "error" field
// of the response envelope.
type Error struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Category  ErrorCategory     `json:"category"`
	Retryable bool              `json:"retryable"`
	Details   map[string]string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Response is the envelope returned by every capability. On success Data is
// populated; on failure the "error" field is present instead.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// HTTPStatusForCategory maps an error category to a consistent HTTP status.
func HTTPStatusForCategory(category ErrorCategory) int {
	switch category {
	case CategoryInputError:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryAuthError:
		return http.StatusUnauthorized
	case CategoryRateLimit:
		return http.StatusTooManyRequests
	case CategoryServiceError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteSuccess writes a success envelope.
func WriteSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

// WriteError writes a failure envelope with the status implied by the category.
func WriteError(w http.ResponseWriter, toolErr *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatusForCategory(toolErr.Category))
	_ = json.NewEncoder(w).Encode(Response{Success: false, Error: toolErr})
}
