package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// SignatureErrorMessage describes webhook signature verification failures.
	SignatureErrorMessage = "invalid webhook signature"
	// BackendErrorMessage describes AI backend failures.
	BackendErrorMessage = "ai backend request failed"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
)

// Sentinel errors for the relay's failure taxonomy. Callers classify with
// errors.Is and decide whether to reject the request (signature) or send a
// fallback reply (backend).
var (
	// ErrInvalidSignature indicates the webhook payload failed HMAC
	// verification and must be rejected without further processing.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrBackendUnavailable covers network failures, non-2xx responses and
	// undecodable bodies from the AI backend.
	ErrBackendUnavailable = errors.New("ai backend unavailable")

	// ErrMalformedBackendResponse indicates a 2xx backend response that is
	// missing the fields the relay depends on.
	ErrMalformedBackendResponse = errors.New("malformed ai backend response")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapSignature marks a verification failure as a client error.
func WrapSignature(err error) *AppError {
	if err == nil {
		err = ErrInvalidSignature
	}
	return New(err, http.StatusBadRequest, SignatureErrorMessage)
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
