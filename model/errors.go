package model

import "fmt"

// Standard error codes.
const (
	ErrBadRequest      = "BAD_REQUEST"
	ErrNotFound        = "NOT_FOUND"
	ErrConflict        = "CONFLICT"
	ErrValidationError = "VALIDATION_ERROR"
	ErrInternalError   = "INTERNAL_ERROR"
	ErrUnavailable     = "SERVICE_UNAVAILABLE"
)

// ErrInvalidDate is the code of a malformed date query parameter.
const ErrInvalidDate = "INVALID_DATE"

// InvalidDateMessage is returned for any date query parameter that is not
// formatted as YYYY-MM-DD.
const InvalidDateMessage = "Invalid date format. Use YYYY-MM-DD."

// ErrorEnvelope is the standard error response envelope. It implements the
// error interface.
type ErrorEnvelope struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
	TraceID string       `json:"trace_id"`
}

// Error implements the error interface.
func (e *ErrorEnvelope) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a field-level validation error.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewBadRequestError returns a BAD_REQUEST error.
func NewBadRequestError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrBadRequest, Message: msg}
}

// NewInvalidDateError returns the error reported for a malformed date
// parameter.
func NewInvalidDateError(field string) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrInvalidDate,
		Message: InvalidDateMessage,
		Details: []FieldError{{Field: field, Code: ErrInvalidDate, Message: InvalidDateMessage}},
	}
}

// NewNotFoundError returns a NOT_FOUND error.
func NewNotFoundError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrNotFound, Message: msg}
}

// NewConflictError returns a CONFLICT error.
func NewConflictError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrConflict, Message: msg}
}

// NewValidationError returns a VALIDATION_ERROR with field-level details.
func NewValidationError(details []FieldError) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrValidationError,
		Message: "One or more fields are invalid",
		Details: details,
	}
}

// NewInternalError returns an INTERNAL_ERROR carrying the underlying message.
// Read endpoints pass fault messages through to the caller.
func NewInternalError(msg string) *ErrorEnvelope {
	if msg == "" {
		msg = "An unexpected error occurred"
	}
	return &ErrorEnvelope{Code: ErrInternalError, Message: msg}
}

// NewUnavailableError returns a SERVICE_UNAVAILABLE error.
func NewUnavailableError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrUnavailable, Message: msg}
}
