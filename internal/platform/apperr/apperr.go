// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error taxonomy for the Shopie agent.

Two directions meet here: failures coming back from the remote REST backend
(transport, authentication, validation, missing resources, server faults) and
failures the agent reports to the UI shell over its own JSON API.

Architecture:

  - AppError: A struct containing a machine-readable Code and a user-facing message.
  - Kinds: NETWORK_ERROR, AUTH_ERROR, VALIDATION_ERROR, NOT_FOUND, SERVER_ERROR,
    plus the agent-local NOT_AUTHENTICATED, CONFLICT, DUPLICATE_EMAIL and FORBIDDEN.
  - Mapping: Every kind carries the HTTP status the agent API answers with.

Every error that leaves a service should be an [AppError] so the UI always
receives a typed, human-readable failure reason.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Error Codes

const (
	CodeNetwork          = "NETWORK_ERROR"
	CodeAuth             = "AUTH_ERROR"
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeDuplicateEmail   = "DUPLICATE_EMAIL"
	CodeForbidden        = "FORBIDDEN"
	CodeServer           = "SERVER_ERROR"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL_ERROR"
)

// AppError is the canonical error type of the agent.
//
// # Security
//
// The Cause field is for logging only and is never sent to the UI shell.
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NETWORK_ERROR").
	Code string `json:"code"`
	// Message is a human-readable description safe to show to the user.
	Message string `json:"error"`
	// HTTPStatus is the status the agent API answers with.
	HTTPStatus int `json:"-"`
	// UpstreamStatus is the backend status that produced the error, 0 if none.
	UpstreamStatus int `json:"-"`
	// Cause is the underlying error, used for logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the user-facing message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// WithUpstream records the backend status that produced the error.
func (e *AppError) WithUpstream(status int) *AppError {
	e.UpstreamStatus = status
	return e
}

// # Backend Failures

// Network creates an error for a failed exchange with no usable HTTP response
// (timeout, refused connection, malformed payload).
func Network(cause error) *AppError {
	return &AppError{
		Code:       CodeNetwork,
		Message:    "Unable to reach the server. Check your connection and try again.",
		HTTPStatus: http.StatusBadGateway,
		Cause:      cause,
	}
}

// Auth creates an error for a credential the backend rejected (401/403).
func Auth(msg string) *AppError {
	return &AppError{
		Code:       CodeAuth,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NotAuthenticated is returned when an authenticated call is attempted with no session.
func NotAuthenticated() *AppError {
	return &AppError{
		Code:       CodeNotAuthenticated,
		Message:    "Authentication required",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
//
// Messages sourced from the backend are passed through verbatim.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Cart line") // Returns "Cart line not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Conflict creates a 409 [AppError].
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// DuplicateEmail is returned by registration when the email is already taken.
func DuplicateEmail(msg string) *AppError {
	if msg == "" {
		msg = "Email is already registered"
	}
	return &AppError{
		Code:       CodeDuplicateEmail,
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// Forbidden creates a 403 [AppError] for operations refused locally.
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// Server creates an error for a 5xx answer from the backend.
func Server(cause error) *AppError {
	return &AppError{
		Code:       CodeServer,
		Message:    "The server is temporarily unavailable. Please try again later.",
		HTTPStatus: http.StatusBadGateway,
		Cause:      cause,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// Internal creates a 500 [AppError] wrapping an unexpected agent-side error.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries an [*AppError] with the given code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}

// IsAuth reports whether err means the backend rejected the credential.
func IsAuth(err error) bool { return HasCode(err, CodeAuth) }

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool { return HasCode(err, CodeNetwork) }

// Reason returns the human-readable failure reason for err.
//
// AppErrors yield their message; anything else yields the generic network
// failure reason, since only transport faults escape without classification.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	if ae := As(err); ae != nil {
		return ae.Message
	}
	return Network(err).Message
}
