package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrInvalidSeries = errors.New("invalid price series")

	// Sample errors
	ErrDegenerateSample = errors.New("degenerate sample")

	// Numeric errors
	ErrNumeric = errors.New("numeric error")
)

// Error constructors with context
func NewInvalidSeriesError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidSeries, fmt.Sprintf(format, args...))
}

func NewDegenerateSampleError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDegenerateSample, fmt.Sprintf(format, args...))
}

func NewNumericError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNumeric, fmt.Sprintf(format, args...))
}

// Error checking helpers
func IsInvalidSeries(err error) bool {
	return errors.Is(err, ErrInvalidSeries)
}

func IsDegenerateSample(err error) bool {
	return errors.Is(err, ErrDegenerateSample)
}

func IsNumeric(err error) bool {
	return errors.Is(err, ErrNumeric)
}

// IsDomainError reports whether err originates from the statistics core
func IsDomainError(err error) bool {
	return IsInvalidSeries(err) || IsDegenerateSample(err) || IsNumeric(err)
}
