package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestStudioError_Error(t *testing.T) {
	err := &StudioError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "run not found",
	}

	expected := "NOT_FOUND: run not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("title is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "title is required" {
		t.Errorf("Message = %q, want %q", err.Message, "title is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("01HZZZ")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "01HZZZ" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "01HZZZ")
	}
}

func TestNewConflict(t *testing.T) {
	err := NewConflict("01HZZZ")

	if err.Code != ErrConflict {
		t.Errorf("Code = %q, want %q", err.Code, ErrConflict)
	}
	if err.Status != 409 {
		t.Errorf("Status = %d, want 409", err.Status)
	}
	if err.Message != "run already exists: 01HZZZ" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewCancelled(t *testing.T) {
	err := NewCancelled("export")
	if err.Code != ErrCancelled || err.Message != "export cancelled" {
		t.Errorf("got %q %q", err.Code, err.Message)
	}
}

func TestNewNormalization(t *testing.T) {
	err := NewNormalization("content", "is empty")

	if err.Code != ErrNormalizationFailed {
		t.Errorf("Code = %q, want %q", err.Code, ErrNormalizationFailed)
	}
	if err.Status != 422 {
		t.Errorf("Status = %d, want 422", err.Status)
	}
	if err.Details["field"] != "content" {
		t.Errorf("Details[field] = %v, want %q", err.Details["field"], "content")
	}
}

func TestNewStageFailed(t *testing.T) {
	err := NewStageFailed("generate", fmt.Errorf("classifier offline"))

	if err.Code != ErrStageFailed {
		t.Errorf("Code = %q, want %q", err.Code, ErrStageFailed)
	}
	if err.Message != "generate stage failed: classifier offline" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Details["stage"] != "generate" {
		t.Errorf("Details[stage] = %v, want %q", err.Details["stage"], "generate")
	}
}

func TestNewInternal(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"with error", fmt.Errorf("disk full"), "disk full"},
		{"nil error", nil, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewInternal(tt.err)
			if err.Code != ErrInternal {
				t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
			}
			if err.Status != 500 {
				t.Errorf("Status = %d, want 500", err.Status)
			}
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
		})
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"matching code", NewNotFound("x"), ErrNotFound, true},
		{"different code", NewNotFound("x"), ErrInternal, false},
		{"wrapped", fmt.Errorf("fetch: %w", NewInvalidRequest("bad")), ErrInvalidRequest, true},
		{"plain error", stderrors.New("boom"), ErrInternal, false},
		{"nil", nil, ErrInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}
