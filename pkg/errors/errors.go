package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the application error carried from services up to handlers.
// Status is the HTTP status to respond with, Code a stable machine-readable
// identifier, Fields optional per-field validation details.
type AppError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode satisfies the middleware error-mapping interface.
func (e *AppError) StatusCode() int {
	return e.Status
}

// As extracts an AppError from an error chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NotFound(resource string) *AppError {
	return &AppError{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func Validation(field, message string) *AppError {
	return &AppError{
		Status:  http.StatusBadRequest,
		Code:    "validation_error",
		Message: message,
		Fields:  map[string]string{field: message},
	}
}

func BadRequest(code, message string) *AppError {
	return &AppError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Message: message,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Status:  http.StatusUnauthorized,
		Code:    "unauthorized",
		Message: message,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Status:  http.StatusForbidden,
		Code:    "permission_denied",
		Message: message,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Status:  http.StatusTooManyRequests,
		Code:    "rate_limit_exceeded",
		Message: message,
	}
}

func Timeout(message string) *AppError {
	return &AppError{
		Status:  http.StatusGatewayTimeout,
		Code:    "request_timeout",
		Message: message,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "internal server error",
		Err:     err,
	}
}

// WithField attaches an additional field detail, allocating the map lazily.
func (e *AppError) WithField(field, message string) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
	return e
}
