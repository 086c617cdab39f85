// Package apperror defines the application's error taxonomy.
//
// Services return these errors; only the HTTP layer (internal/httpx) turns
// them into status codes. Every constructor returns an *AppError whose Err
// field is one of the sentinels below, so callers match with errors.Is.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Messages shared by every caller. Login failures and token failures each
// use a single fixed message so the response never reveals which check failed.
const (
	invalidCredentialsMessage = "Incorrect email or password"
	unauthorizedMessage       = "Could not validate credentials"
)

type AppError struct {
	Err     error  // sentinel, one of the Err* values above
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s with id %d does not exist", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a duplicate value on a field that must be unique,
// e.g. Conflict("blog", "title").
func Conflict(resource, field string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s %s already exists", resource, field),
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// InvalidCredentials is the single login failure. It is returned both for an
// unknown email and for a wrong password.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: invalidCredentialsMessage,
	}
}

// Unauthorized is returned for a missing, malformed, expired or otherwise
// invalid bearer token. cause is kept for logging and errors.Is checks but
// never changes the message.
func Unauthorized(cause error) *AppError {
	err := ErrUnauthorized
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrUnauthorized, cause)
	}
	return &AppError{
		Err:     err,
		Message: unauthorizedMessage,
	}
}
