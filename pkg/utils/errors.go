package utils

import (
	"errors"
	"net/http"
)

const (
	CodeMissingFields      = "MISSING_REQUIRED_FIELDS"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeDuplicateEmail     = "DUPLICATE_EMAIL"
	CodeDuplicateUsername  = "DUPLICATE_USERNAME"
	CodeRegistrationFailed = "REGISTRATION_FAILED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountInactive    = "ACCOUNT_INACTIVE"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeBadRequest         = "BAD_REQUEST"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
)

// AppError is an expected failure carrying its HTTP status and public code.
type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string {
	return e.Code + ": " + e.Message
}

func NewAppError(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

// AsAppError unwraps err into an AppError when it carries one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func ErrMissingFields(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeMissingFields, message)
}

// ErrInvalidToken is shared by every token failure so callers cannot
// tell a missing token from an expired one or an inactive account.
func ErrInvalidToken() *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidToken, "Invalid or expired token")
}

func ErrDuplicateEmail() *AppError {
	return NewAppError(http.StatusConflict, CodeDuplicateEmail, "Email is already registered")
}

func ErrDuplicateUsername() *AppError {
	return NewAppError(http.StatusConflict, CodeDuplicateUsername, "Username is already taken")
}

func ErrRegistrationFailed() *AppError {
	return NewAppError(http.StatusInternalServerError, CodeRegistrationFailed, "Registration failed")
}

func ErrInvalidCredentials() *AppError {
	return NewAppError(http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password")
}

func ErrAccountInactive() *AppError {
	return NewAppError(http.StatusForbidden, CodeAccountInactive, "Account is deactivated")
}

func ErrNotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message)
}

func ErrForbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message)
}

func ErrUnauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message)
}

func ErrBadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message)
}
