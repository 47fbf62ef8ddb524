package schema

import (
	"errors"
	"fmt"
)

// Error codes for structured error reporting.
const (
	ErrCodeStructural = "STRUCTURAL_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeConflict   = "CONFLICT"
	ErrCodeExpression = "EXPRESSION_ERROR"
	ErrCodeDecode     = "DECODE_ERROR"
)

// Sentinels for errors.Is checks against an *Error code.
var (
	ErrStructural = errors.New(ErrCodeStructural)
	ErrNotFound   = errors.New(ErrCodeNotFound)
	ErrValidation = errors.New(ErrCodeValidation)
	ErrConflict   = errors.New(ErrCodeConflict)
	ErrExpression = errors.New(ErrCodeExpression)
	ErrDecode     = errors.New(ErrCodeDecode)
)

var sentinels = map[string]error{
	ErrCodeStructural: ErrStructural,
	ErrCodeNotFound:   ErrNotFound,
	ErrCodeValidation: ErrValidation,
	ErrCodeConflict:   ErrConflict,
	ErrCodeExpression: ErrExpression,
	ErrCodeDecode:     ErrDecode,
}

// Error is the structured error type shared by every package of the module.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	StepID  string         `json:"step_id,omitempty"`
	Cause   error          `json:"-"`
}

func (e *Error) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("[%s] step %s: %s", e.Code, e.StepID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's code.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// NewError creates a new Error.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates a new Error with a formatted message.
func NewErrorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithStep attaches a step ID to the error.
func (e *Error) WithStep(stepID string) *Error {
	e.StepID = stepID
	return e
}

// WithCause attaches an underlying cause.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// IsCode reports whether err is (or wraps) an *Error with the given code.
func IsCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
