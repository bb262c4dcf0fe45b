package apperror

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Common errors
var (
	ErrNotFound           = &AppError{Code: http.StatusNotFound, Message: "Resource not found"}
	ErrUnauthorized       = &AppError{Code: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrPermissionDenied   = &AppError{Code: http.StatusForbidden, Message: "Permission denied"}
	ErrBadRequest         = &AppError{Code: http.StatusBadRequest, Message: "Bad request"}
	ErrInternalServer     = &AppError{Code: http.StatusInternalServerError, Message: "Internal server error"}
	ErrConflict           = &AppError{Code: http.StatusConflict, Message: "Resource already exists"}
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, Message: "Invalid email or password"}
	ErrTokenExpired       = &AppError{Code: http.StatusUnauthorized, Message: "Token has expired"}
	ErrInvalidToken       = &AppError{Code: http.StatusUnauthorized, Message: "Invalid token"}
	ErrStoreUnavailable   = &AppError{Code: http.StatusServiceUnavailable, Message: "Record store unavailable"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewFieldError creates a validation error for a single field
func NewFieldError(field, message string) *AppError {
	return NewValidationError([]FieldError{{Field: field, Message: message}})
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Message: resource + " not found",
	}
}

// NewPermissionDeniedError creates a permission denied error naming the action
func NewPermissionDeniedError(action string) *AppError {
	return &AppError{
		Code:    http.StatusForbidden,
		Message: "Permission denied: " + action,
	}
}

// NewStoreUnavailableError reports a remote store I/O failure. The message is
// kept generic; the underlying cause goes to the diagnostic log, not the caller.
func NewStoreUnavailableError() *AppError {
	return &AppError{
		Code:    http.StatusServiceUnavailable,
		Message: "Record store unavailable",
	}
}

// PartialCascadeError reports a debt delete whose two-step cascade did not
// complete: either payments were removed but the parent survived, or the
// parent is gone and payments remain orphaned. Surfaced distinctly so the
// caller can re-attempt cleanup.
type PartialCascadeError struct {
	DebtID            uuid.UUID
	ParentDeleted     bool
	RemainingPayments int
	Cause             error
}

func (e *PartialCascadeError) Error() string {
	if e.ParentDeleted {
		return "debt deleted but payment cleanup incomplete"
	}
	return "debt payments deleted but parent delete failed"
}

func (e *PartialCascadeError) Unwrap() error {
	return e.Cause
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var cascade *PartialCascadeError
	if errors.As(err, &cascade) {
		return &AppError{
			Code:    http.StatusConflict,
			Message: cascade.Error(),
		}
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
	}
}
