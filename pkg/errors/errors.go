// Package errors defines the closed error taxonomy shared by every API response.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppErrorType is a closed enumeration of error classes the API envelope can surface.
type AppErrorType string

const (
	ValidationError    AppErrorType = "VALIDATION_ERROR"
	NotFoundError      AppErrorType = "NOT_FOUND_ERROR"
	ConflictError      AppErrorType = "CONFLICT_ERROR"
	UnauthorizedError  AppErrorType = "UNAUTHORIZED_ERROR"
	ForbiddenError     AppErrorType = "FORBIDDEN_ERROR"
	InternalError      AppErrorType = "INTERNAL_ERROR"
	RateLimitError     AppErrorType = "RATE_LIMIT_ERROR"

	// The following members are never constructed by this module. They belong to the
	// out-of-core auth collaborator's response vocabulary and exist here only so the
	// envelope's error-code enum stays closed end to end.
	TokenExpiredError  AppErrorType = "TOKEN_EXPIRED_ERROR"
	TokenInvalidError  AppErrorType = "TOKEN_INVALID_ERROR"
	TokenConsumedError AppErrorType = "TOKEN_CONSUMED_ERROR"
	EmailSendFailed    AppErrorType = "EMAIL_SEND_FAILED_ERROR"
)

// AppError is the concrete error type carried through service boundaries and rendered
// into the API envelope.
type AppError struct {
	Err        error        `json:"-"`
	Type       AppErrorType `json:"type"`
	Message    string       `json:"message"`
	Details    string       `json:"details,omitempty"`
	StatusCode int          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError builds an AppError and resolves its HTTP status from the error type.
func NewAppError(errorType AppErrorType, message, details string, err error) *AppError {
	appErr := &AppError{
		Type:    errorType,
		Message: message,
		Details: details,
		Err:     err,
	}

	switch errorType {
	case ValidationError:
		appErr.StatusCode = http.StatusBadRequest
	case NotFoundError:
		appErr.StatusCode = http.StatusNotFound
	case ConflictError:
		appErr.StatusCode = http.StatusConflict
	case UnauthorizedError, TokenExpiredError, TokenInvalidError, TokenConsumedError:
		appErr.StatusCode = http.StatusUnauthorized
	case ForbiddenError:
		appErr.StatusCode = http.StatusForbidden
	case RateLimitError:
		appErr.StatusCode = http.StatusTooManyRequests
	default:
		appErr.StatusCode = http.StatusInternalServerError
	}

	return appErr
}

func NewValidationError(message, details string) *AppError {
	return NewAppError(ValidationError, message, details, nil)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(NotFoundError, resource+" not found", "", nil)
}

func NewConflictError(message string) *AppError {
	return NewAppError(ConflictError, message, "", nil)
}

func NewUnauthorizedError(message string) *AppError {
	return NewAppError(UnauthorizedError, message, "", nil)
}

func NewForbiddenError(message string) *AppError {
	return NewAppError(ForbiddenError, message, "", nil)
}

func NewInternalError(message string, err error) *AppError {
	return NewAppError(InternalError, message, "", err)
}

func NewRateLimitError(message string) *AppError {
	return NewAppError(RateLimitError, message, "", nil)
}

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func GetStatusCode(err error) int {
	if appErr, ok := IsAppError(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

func GetErrorType(err error) AppErrorType {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Type
	}
	return InternalError
}

func IsNotFound(err error) bool {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Type == NotFoundError
	}
	return false
}

func WrapValidationError(err error, message string) *AppError {
	return NewAppError(ValidationError, message, err.Error(), err)
}

func WrapInternalError(err error, message string) *AppError {
	return NewAppError(InternalError, message, "", err)
}
