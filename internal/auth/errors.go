// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package auth

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Validation error kinds. A *ValidationError unwraps to exactly one of these.
var (
	ErrMissingField = errors.New("missing field")
	ErrWrongType    = errors.New("wrong field type")
	ErrNotTrimmed   = errors.New("field not trimmed")
	ErrOutOfRange   = errors.New("field length out of range")
)

// Authentication and storage errors surfaced to callers.
var (
	ErrDuplicateUsername     = errors.New("username already exists")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
)

// Error codes attached with oops.
const (
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeDuplicateUsername  = "AUTH_DUPLICATE_USERNAME"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeInvalidToken       = "AUTH_INVALID_TOKEN"
	CodeRegisterFailed     = "AUTH_REGISTER_FAILED"
	CodeLoginFailed        = "AUTH_LOGIN_FAILED"
	CodeTokenIssueFailed   = "AUTH_TOKEN_ISSUE_FAILED"

	CodeHashSlotUnavailable = "AUTH_HASH_SLOT_UNAVAILABLE"
)

// ValidationError describes the first registration field that failed a check.
// Message is safe to show to the client verbatim.
type ValidationError struct {
	Kind    error
	Field   string
	Message string
	// Bound is the violated length limit for ErrOutOfRange, zero otherwise.
	Bound   int
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Kind }

func missingField(field string) *ValidationError {
	return &ValidationError{
		Kind:    ErrMissingField,
		Field:   field,
		Message: fmt.Sprintf("Missing '%s' in request body", field),
	}
}

func wrongType(field string) *ValidationError {
	return &ValidationError{
		Kind:    ErrWrongType,
		Field:   field,
		Message: "Incorrect field type: expected string",
	}
}

func notTrimmed(field string) *ValidationError {
	return &ValidationError{
		Kind:    ErrNotTrimmed,
		Field:   field,
		Message: "Cannot start or end with whitespace",
	}
}

func tooShort(field string, min int) *ValidationError {
	return &ValidationError{
		Kind:    ErrOutOfRange,
		Field:   field,
		Message: fmt.Sprintf("Must be at least %d characters long", min),
		Bound:   min,
	}
}

func tooLong(field string, max int) *ValidationError {
	return &ValidationError{
		Kind:    ErrOutOfRange,
		Field:   field,
		Message: fmt.Sprintf("Must be at most %d characters long", max),
		Bound:   max,
	}
}
