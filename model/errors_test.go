package model

import "testing"

func TestErrorEnvelope_Error(t *testing.T) {
	e := &ErrorEnvelope{Code: ErrNotFound, Message: "case 12 not found"}
	want := "NOT_FOUND: case 12 not found"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorEnvelope_implements_error(t *testing.T) {
	var _ error = (*ErrorEnvelope)(nil)
}

func TestNewNotFoundError(t *testing.T) {
	e := NewNotFoundError("resource missing")
	if e.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", e.Code, ErrNotFound)
	}
	if e.Message != "resource missing" {
		t.Errorf("Message = %q, want %q", e.Message, "resource missing")
	}
}

func TestNewInvalidDateError(t *testing.T) {
	e := NewInvalidDateError("start_date")
	if e.Code != ErrInvalidDate {
		t.Errorf("Code = %q, want %q", e.Code, ErrInvalidDate)
	}
	if e.Message != "Invalid date format. Use YYYY-MM-DD." {
		t.Errorf("Message = %q", e.Message)
	}
	if len(e.Details) != 1 || e.Details[0].Field != "start_date" {
		t.Errorf("Details = %+v, want one entry for start_date", e.Details)
	}
}

func TestNewInternalError(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"connection refused", "connection refused"},
		{"", "An unexpected error occurred"},
	}
	for _, tt := range tests {
		e := NewInternalError(tt.in)
		if e.Code != ErrInternalError {
			t.Errorf("Code = %q, want %q", e.Code, ErrInternalError)
		}
		if e.Message != tt.want {
			t.Errorf("NewInternalError(%q).Message = %q, want %q", tt.in, e.Message, tt.want)
		}
	}
}

func TestNewValidationError(t *testing.T) {
	details := []FieldError{
		{Field: "page", Code: "INVALID", Message: "page must be a positive integer"},
	}
	e := NewValidationError(details)
	if e.Code != ErrValidationError {
		t.Errorf("Code = %q, want %q", e.Code, ErrValidationError)
	}
	if len(e.Details) != 1 {
		t.Fatalf("len(Details) = %d, want 1", len(e.Details))
	}
}

func TestWorkflowType_Valid(t *testing.T) {
	for _, wt := range WorkflowTypes {
		if !wt.Valid() {
			t.Errorf("%q.Valid() = false, want true", wt)
		}
	}
	if WorkflowType("Cancellation").Valid() {
		t.Error("Cancellation.Valid() = true, want false")
	}
}
