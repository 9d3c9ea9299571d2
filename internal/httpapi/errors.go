// Package httpapi holds the error taxonomy and response helpers shared by
// the gateway's HTTP handlers.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error is an API error with an associated HTTP status code.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// InvalidRequest reports client input that failed validation (400).
func InvalidRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// Unauthorized reports a missing or invalid credential (401).
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

// NotFound reports a resource the caller cannot see (404).
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

// Upstream reports a failure of the inference service (502).
func Upstream(message string) *Error {
	return &Error{Status: http.StatusBadGateway, Message: message}
}

// FromStatus reports an upstream failure with a propagated status code.
// A zero or non-error code falls back to 502.
func FromStatus(status int, message string) *Error {
	if status < 400 {
		status = http.StatusBadGateway
	}
	return &Error{Status: status, Message: message}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes err as a JSON error body. *Error values keep their
// status; anything else becomes a 500.
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = &Error{Status: http.StatusInternalServerError, Message: "internal server error"}
	}
	WriteJSON(w, apiErr.Status, map[string]string{"error": apiErr.Message})
}
