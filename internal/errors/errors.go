package errors

import (
	stderrors "errors"
	"fmt"

	"sidecar/domain/core"
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

// Wrap wraps an error with additional context. Domain errors keep their
// kind as the code so callers can still map them to exit codes.
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
		Code:    domainCode(err, CodeInternalError),
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

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// CodeOf classifies any error: domain kinds win over wrapper codes
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if code := domainCode(err, ""); code != "" {
		return code
	}
	return GetCode(err)
}

// ExitCode maps an error to the process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch CodeOf(err) {
	case CodeInvalidInput, CodeConfigInvalid:
		return 2
	case CodeInvalidSeries:
		return 3
	case CodeDegenerateSample:
		return 4
	case CodeNumericError:
		return 5
	default:
		return 1
	}
}

func domainCode(err error, fallback string) string {
	switch {
	case core.IsInvalidSeries(err):
		return CodeInvalidSeries
	case core.IsDegenerateSample(err):
		return CodeDegenerateSample
	case core.IsNumeric(err):
		return CodeNumericError
	default:
		return fallback
	}
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeNotFound         = "NOT_FOUND"
	CodeStorageError     = "STORAGE_ERROR"
	CodeRenderError      = "RENDER_ERROR"
	CodeInvalidSeries    = "INVALID_SERIES"
	CodeDegenerateSample = "DEGENERATE_SAMPLE"
	CodeNumericError     = "NUMERIC_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func StorageError(path string, cause error) *AppError {
	return &AppError{
		Code:    CodeStorageError,
		Message: fmt.Sprintf("table store %s", path),
		Cause:   cause,
	}
}

func RenderError(path string, cause error) *AppError {
	return &AppError{
		Code:    CodeRenderError,
		Message: fmt.Sprintf("render %s", path),
		Cause:   cause,
	}
}
