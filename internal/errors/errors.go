package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a studio agent error code.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"      // 400
	ErrNotFound            ErrorCode = "NOT_FOUND"            // 404
	ErrFileNotFound        ErrorCode = "FILE_NOT_FOUND"       // 404
	ErrConflict            ErrorCode = "CONFLICT"             // 409
	ErrCancelled           ErrorCode = "CANCELLED"            // 499
	ErrNormalizationFailed ErrorCode = "NORMALIZATION_FAILED" // 422
	ErrStageFailed         ErrorCode = "STAGE_FAILED"         // 500
	ErrInternal            ErrorCode = "INTERNAL"             // 500
)

// StudioError represents a structured error with code, status, and details.
type StudioError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *StudioError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *StudioError {
	return &StudioError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a pipeline run cannot be found.
func NewNotFound(identifier string) *StudioError {
	return &StudioError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("run not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import or source file.
func NewFileNotFound(path string) *StudioError {
	return &StudioError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewConflict creates a 409 error for a run ID that is already stored.
func NewConflict(id string) *StudioError {
	return &StudioError{
		Code:    ErrConflict,
		Status:  409,
		Message: fmt.Sprintf("run already exists: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewCancelled creates an error for an operation interrupted by its context.
func NewCancelled(op string) *StudioError {
	return &StudioError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewNormalization creates a 422 error for a raw record that cannot become an insight.
func NewNormalization(field, reason string) *StudioError {
	return &StudioError{
		Code:    ErrNormalizationFailed,
		Status:  422,
		Message: fmt.Sprintf("cannot normalize record: %s %s", field, reason),
		Details: map[string]any{"field": field},
	}
}

// NewStageFailed creates a 500 error for a pipeline stage that aborted the run.
func NewStageFailed(stage string, err error) *StudioError {
	msg := "stage failed"
	if err != nil {
		msg = err.Error()
	}
	return &StudioError{
		Code:    ErrStageFailed,
		Status:  500,
		Message: fmt.Sprintf("%s stage failed: %s", stage, msg),
		Details: map[string]any{"stage": stage},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *StudioError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &StudioError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error (or anything it wraps) is a StudioError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *StudioError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}
