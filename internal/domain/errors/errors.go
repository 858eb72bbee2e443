package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes shared by the staging, posting and ledger packages.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeStructuralValidation = "STRUCTURAL_VALIDATION_ERROR"
	CodePosting              = "POSTING_ERROR"
	CodePersistence          = "PERSISTENCE_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeInternal             = "INTERNAL_ERROR"
)

// AppError is a custom error type for application errors
type AppError struct {
	Code       string
	Message    string
	StatusCode int // Same rule as HTTP status codes
	Err        error
	Details    map[string]interface{}
}

// Error returns a string representation of the error
func (e AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is implements the errors.Is interface
func (e AppError) Is(target error) bool {
	if target, ok := target.(AppError); ok {
		return target.Code == e.Code
	}
	return false
}

// Unwrap returns the underlying error
func (e AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a single detail to the error
func (e AppError) WithDetail(key string, value interface{}) AppError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// NewValidationError creates a new validation error
func NewValidationError(message string) AppError {
	return AppError{
		Code:       CodeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewStructuralValidationError reports a staged row that is missing required fields.
// The message is the operator-facing note, e.g. "Missing: document number, amount".
func NewStructuralValidationError(missing []string) AppError {
	return AppError{
		Code:       CodeStructuralValidation,
		Message:    "Missing: " + strings.Join(missing, ", "),
		StatusCode: http.StatusUnprocessableEntity,
		Details:    map[string]interface{}{"missing": missing},
	}
}

// NewPostingError wraps a ledger rejection for one voucher group
func NewPostingError(docNo string, err error) AppError {
	return AppError{
		Code:       CodePosting,
		Message:    fmt.Sprintf("voucher %s was not posted", docNo),
		StatusCode: http.StatusBadGateway,
		Err:        err,
		Details:    map[string]interface{}{"docNo": docNo},
	}
}

// NewPersistenceError wraps a failed staging write
func NewPersistenceError(operation string, err error) AppError {
	return AppError{
		Code:       CodePersistence,
		Message:    "staging " + operation + " failed",
		StatusCode: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) AppError {
	return AppError{
		Code:       CodeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) AppError {
	return AppError{
		Code:       CodeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) AppError {
	return AppError{
		Code:       CodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// Reason returns the human readable part of err, without the code prefix.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var appErr AppError
	if stderrors.As(err, &appErr) {
		if appErr.Err != nil {
			return appErr.Message + ": " + Reason(appErr.Err)
		}
		return appErr.Message
	}
	return err.Error()
}
