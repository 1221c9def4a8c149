// Package apperror defines the application's error taxonomy.
//
// Services return *AppError values wrapping one of the sentinel errors below.
// The HTTP layer maps sentinels to status codes with errors.Is and sends
// AppError.Message to the client unchanged.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("Validation Error")
	ErrConflict          = errors.New("conflict")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrInvalidOTP        = errors.New("invalid otp")
	ErrOTPExpired        = errors.New("otp expired")
	ErrAlreadyVerified   = errors.New("already verified")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrDependency        = errors.New("dependency failure")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying dependency fault, never shown to clients
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundMessage is NotFound with a caller-chosen message, for lookups
// that are not keyed by id (e.g. by email).
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

func InvalidCredential(message string) *AppError {
	return &AppError{Err: ErrInvalidCredential, Message: message}
}

func InvalidOTP(message string) *AppError {
	return &AppError{Err: ErrInvalidOTP, Message: message}
}

func OTPExpired(message string) *AppError {
	return &AppError{Err: ErrOTPExpired, Message: message}
}

func AlreadyVerified(message string) *AppError {
	return &AppError{Err: ErrAlreadyVerified, Message: message}
}

func Unauthenticated(message string) *AppError {
	return &AppError{Err: ErrUnauthenticated, Message: message}
}

// Dependency wraps a store or notifier fault. The message goes to the client;
// cause is kept for logs and errors.Is checks.
func Dependency(message string, cause error) *AppError {
	return &AppError{Err: ErrDependency, Message: message, Cause: cause}
}

// Code returns the machine-readable code for err, e.g. "invalid_otp".
// Unknown errors map to "internal_error".
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, ErrInvalidOTP):
		return "invalid_otp"
	case errors.Is(err, ErrOTPExpired):
		return "otp_expired"
	case errors.Is(err, ErrAlreadyVerified):
		return "already_verified"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrDependency):
		return "dependency_failure"
	}
	return "internal_error"
}
