package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodeNotFound       ErrCode = "NOT_FOUND"
	ErrCodeRateLimited    ErrCode = "RATE_LIMITED"
	ErrCodeRemote         ErrCode = "REMOTE_ERROR"
	ErrCodeNetworkFailure ErrCode = "NETWORK_FAILURE"
	ErrCodeBadRequest     ErrCode = "BAD_REQUEST"
	ErrCodeInternal       ErrCode = "INTERNAL_ERROR"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string

	// Status and StatusText are set for REMOTE_ERROR.
	Status     int
	StatusText string

	// ResetAt is set for RATE_LIMITED when the remote reported a reset instant.
	ResetAt *time.Time

	Err error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewRateLimitedError creates a rate limited error. A nil resetAt means the
// remote did not say when the quota resets.
func NewRateLimitedError(resetAt *time.Time) *AppError {
	msg := "GitHub API rate limit exceeded. Resets soon"
	if resetAt != nil {
		msg = fmt.Sprintf("GitHub API rate limit exceeded. Resets at %s", resetAt.Local().Format("15:04:05"))
	}
	return &AppError{
		Code:    ErrCodeRateLimited,
		Message: msg,
		ResetAt: resetAt,
	}
}

// NewRemoteError creates an error for any other non-success status
func NewRemoteError(status int, statusText string) *AppError {
	return &AppError{
		Code:       ErrCodeRemote,
		Message:    fmt.Sprintf("GitHub API error: %d %s", status, statusText),
		Status:     status,
		StatusText: statusText,
	}
}

// NewNetworkError creates an error for transport-level failures
func NewNetworkError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeNetworkFailure,
		Message: fmt.Sprintf("GitHub API error: network failure (%v)", err),
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeNotFound
}

// IsRateLimited checks if the error is a rate limited error
func IsRateLimited(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeRateLimited
}

// UserMessage returns the human-readable part of err: the AppError message
// when there is one, the raw error text otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
