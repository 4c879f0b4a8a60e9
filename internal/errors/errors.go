package errors

import (
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeDataMissing   = "DATA_MISSING"
	CodeDatabaseError = "DATABASE_ERROR"
	CodeReadError     = "READ_ERROR"
	CodeWriteError    = "WRITE_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DataMissing(message string) *AppError {
	return New(CodeDataMissing, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func ReadError(path string, cause error) *AppError {
	return &AppError{
		Code:    CodeReadError,
		Message: fmt.Sprintf("failed reading %s", path),
		Cause:   cause,
	}
}

func WriteError(path string, cause error) *AppError {
	return &AppError{
		Code:    CodeWriteError,
		Message: fmt.Sprintf("failed writing %s", path),
		Cause:   cause,
	}
}
