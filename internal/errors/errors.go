// Package errors defines the service error taxonomy surfaced over HTTP.
// Three classes exist: validation failures caught before any store
// call, not-found outcomes (a normal result, not a fault), and
// transport/store failures. Causes stay distinguishable instead of
// collapsing into a single absent signal.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error class in API responses.
type Code string

const (
	CodeValidation   Code = "validation_failed"
	CodeUnauthorized Code = "unauthorized"
	CodeInvalidToken Code = "invalid_token"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeRateLimited  Code = "rate_limit_exceeded"
	CodeInternal     Code = "internal_error"
)

// ServiceError is an error with an HTTP mapping and optional details.
type ServiceError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	cause      error
}

func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.cause }

// WithDetails attaches a detail key/value and returns the error.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code Code, status int, message string, cause error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, cause: cause}
}

// Validation marks input rejected before any store call was attempted.
func Validation(message string) *ServiceError {
	return newError(CodeValidation, http.StatusBadRequest, message, nil)
}

// Unauthorized marks a missing or unacceptable identity.
func Unauthorized(message string) *ServiceError {
	return newError(CodeUnauthorized, http.StatusUnauthorized, message, nil)
}

// InvalidToken marks a token that failed verification.
func InvalidToken(cause error) *ServiceError {
	return newError(CodeInvalidToken, http.StatusUnauthorized, "invalid token", cause)
}

// NotFound marks a zero-row single query, a normal non-exceptional
// outcome.
func NotFound(message string) *ServiceError {
	return newError(CodeNotFound, http.StatusNotFound, message, nil)
}

// Conflict marks a request that clashes with current state, e.g.
// starting a session while one is already open.
func Conflict(message string) *ServiceError {
	return newError(CodeConflict, http.StatusConflict, message, nil)
}

// RateLimitExceeded marks a rate-limited request.
func RateLimitExceeded(limit int, per string) *ServiceError {
	e := newError(CodeRateLimited, http.StatusTooManyRequests, "rate limit exceeded", nil)
	return e.WithDetails("limit", limit).WithDetails("per", per)
}

// Internal marks a transport or store failure.
func Internal(message string, cause error) *ServiceError {
	return newError(CodeInternal, http.StatusInternalServerError, message, cause)
}

// GetServiceError extracts a ServiceError from an error chain, or nil.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return nil
}
