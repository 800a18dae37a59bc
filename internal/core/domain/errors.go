package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error a service returns to the transport layer unwraps
// to exactly one of these.
var (
	ErrValidation          = errors.New("validation failed")
	ErrConflict            = errors.New("conflict")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrNotConfigured       = errors.New("not configured")
	ErrUpstream            = errors.New("upstream failure")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrTooManyAttempts     = errors.New("too many attempts")
)

// Error pairs an error kind with a message that is safe to show to callers.
type Error struct {
	Kind    error
	Message string
	// Missing lists required document types that were absent.
	Missing []DocumentType
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// NewError builds an *Error of the given kind.
func NewError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation is shorthand for a validation error.
func Validation(format string, args ...any) *Error {
	return NewError(ErrValidation, format, args...)
}

// MissingDocuments reports required document types that were not supplied.
func MissingDocuments(role Role, missing []DocumentType) *Error {
	return &Error{
		Kind:    ErrValidation,
		Message: fmt.Sprintf("missing required documents for %s", role),
		Missing: missing,
	}
}

var (
	ErrInvalidCredentials = &Error{Kind: ErrUnauthorized, Message: "invalid credentials"}
	ErrEmailExists        = &Error{Kind: ErrConflict, Message: "email already exists"}
	ErrUserNotFound       = &Error{Kind: ErrNotFound, Message: "user not found"}
	ErrAdminSignup        = &Error{Kind: ErrForbidden, Message: "creating ADMIN via public signup is not allowed"}
	ErrStorageNotReady    = &Error{Kind: ErrNotConfigured, Message: "object store not configured on server"}
	ErrLoginLocked        = &Error{Kind: ErrTooManyAttempts, Message: "too many failed login attempts, try again later"}
)
