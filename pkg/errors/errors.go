// Package errors provides structured, coded errors for tutor. Error codes
// are stable strings so that tests and callers can match on the failure
// class without parsing messages.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad    ErrorCode = "CONFIG_LOAD"
	ErrConfigSave    ErrorCode = "CONFIG_SAVE"
	ErrMissingConfig ErrorCode = "MISSING_CONFIGURATION"

	// Template errors
	ErrTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrTemplateRender   ErrorCode = "TEMPLATE_RENDER"
	ErrEnvironmentBuild ErrorCode = "ENVIRONMENT_BUILD"

	// Plugin errors
	ErrPluginNotFound ErrorCode = "PLUGIN_NOT_FOUND"
	ErrPluginInvalid  ErrorCode = "PLUGIN_INVALID"

	// Materialization errors
	ErrMaterialize ErrorCode = "MATERIALIZE"
)

// TutorError is an error carrying a stable code and optional details.
type TutorError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

func (e *TutorError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *TutorError) Unwrap() error {
	return e.Wrapped
}

// Is matches two TutorErrors by code.
func (e *TutorError) Is(target error) bool {
	var targetErr *TutorError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a TutorError with the given code and message.
func New(code ErrorCode, message string) *TutorError {
	return &TutorError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a TutorError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *TutorError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps err with a code and message. Returns nil when err is nil.
func Wrap(err error, code ErrorCode, message string) *TutorError {
	if err == nil {
		return nil
	}
	return &TutorError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps err with a code and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *TutorError {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithDetail attaches a detail value and returns the error for chaining.
func (e *TutorError) WithDetail(key string, value interface{}) *TutorError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode reports whether err carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	var terr *TutorError
	if errors.As(err, &terr) {
		return terr.Code == code
	}
	return false
}

// GetErrorCode returns err's code, or ErrUnknown for foreign errors.
func GetErrorCode(err error) ErrorCode {
	var terr *TutorError
	if errors.As(err, &terr) {
		return terr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns err's details, or nil for foreign errors.
func GetErrorDetails(err error) map[string]interface{} {
	var terr *TutorError
	if errors.As(err, &terr) {
		return terr.Details
	}
	return nil
}
