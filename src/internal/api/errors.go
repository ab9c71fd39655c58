package api

import (
	"encoding/json"
	"net/http"

	"github.com/maksimkurb/openwrt-monitor/src/internal/errors"
)

// ErrorCode represents standard API error codes.
type ErrorCode string

const (
	// ErrCodeInvalidRequest indicates malformed or invalid request data.
	ErrCodeInvalidRequest ErrorCode = "invalid_request"

	// ErrCodeNotFound indicates the requested router or action does not exist.
	ErrCodeNotFound ErrorCode = "not_found"

	// ErrCodeForbidden indicates the client address is not allowed.
	ErrCodeForbidden ErrorCode = "forbidden"

	// ErrCodeInternalError indicates an internal server error.
	ErrCodeInternalError ErrorCode = "internal_error"

	// ErrCodeUnavailable indicates the router has not produced data yet or is unreachable.
	ErrCodeUnavailable ErrorCode = "unavailable"

	// ErrCodeRouterRejected indicates the router rejected the credentials or session.
	ErrCodeRouterRejected ErrorCode = "router_rejected"
)

// APIError represents a structured API error response.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Reason carries the internal error code when the failure came from a router.
	Reason string `json:"reason,omitempty"`
}

// ErrorResponse wraps an APIError for JSON responses.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WriteError writes an error response to the HTTP response writer.
func WriteError(w http.ResponseWriter, statusCode int, err APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: err})
}

// WriteInvalidRequest writes a 400 Bad Request error.
func WriteInvalidRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, APIError{Code: ErrCodeInvalidRequest, Message: message})
}

// WriteNotFound writes a 404 Not Found error.
func WriteNotFound(w http.ResponseWriter, resource string) {
	WriteError(w, http.StatusNotFound, APIError{Code: ErrCodeNotFound, Message: resource + " not found"})
}

// WriteForbidden writes a 403 Forbidden error.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, APIError{Code: ErrCodeForbidden, Message: message})
}

// WriteInternalError writes a 500 Internal Server Error.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, APIError{Code: ErrCodeInternalError, Message: message})
}

// WriteUnavailable writes a 503 Service Unavailable error.
func WriteUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusServiceUnavailable, APIError{Code: ErrCodeUnavailable, Message: message})
}

// WriteRouterError maps a coded error from a router operation to a response.
func WriteRouterError(w http.ResponseWriter, err error) {
	reason := ""
	if code, ok := errors.CodeOf(err); ok {
		reason = string(code)
	}

	switch {
	case errors.IsAuth(err), errors.HasCode(err, errors.ErrCodeReconfigure):
		WriteError(w, http.StatusBadGateway, APIError{Code: ErrCodeRouterRejected, Message: err.Error(), Reason: reason})
	case errors.HasCode(err, errors.ErrCodeValidation), errors.HasCode(err, errors.ErrCodeConfig):
		WriteError(w, http.StatusBadRequest, APIError{Code: ErrCodeInvalidRequest, Message: err.Error(), Reason: reason})
	case errors.IsConnection(err), errors.HasCode(err, errors.ErrCodeUpdateFailed), errors.HasCode(err, errors.ErrCodeParse):
		WriteError(w, http.StatusServiceUnavailable, APIError{Code: ErrCodeUnavailable, Message: err.Error(), Reason: reason})
	default:
		WriteError(w, http.StatusInternalServerError, APIError{Code: ErrCodeInternalError, Message: err.Error(), Reason: reason})
	}
}
