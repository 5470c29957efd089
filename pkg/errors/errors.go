// Unified error handling for gcodeview

package errors

import (
	"fmt"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Configuration errors
	ErrConfigSection    ErrorCode = "CONFIG_SECTION"
	ErrConfigOption     ErrorCode = "CONFIG_OPTION"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// G-code parsing errors (all recoverable; logged and counted, never fatal)
	ErrGCodeParse    ErrorCode = "GCODE_PARSE"
	ErrArcOffset     ErrorCode = "ARC_OFFSET"
	ErrBadCoordinate ErrorCode = "BAD_COORDINATE"

	// Estimator errors
	ErrEstimatorLimits ErrorCode = "ESTIMATOR_LIMITS"

	// Runtime errors
	ErrRuntime ErrorCode = "RUNTIME"
)

// Error is the unified error type for gcodeview.
type Error struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Line is the G-code source line number (if applicable)
	Line int

	// Section is the config section (if applicable)
	Section string

	// Option is the config option name (if applicable)
	Option string

	// Err wraps the underlying error
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s", e.Code, e.Line, e.Message)
	}
	if e.Section != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Code, e.Section, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// SetLine sets the G-code source line number.
func (e *Error) SetLine(line int) *Error {
	e.Line = line
	return e
}

// SetSection sets the config section.
func (e *Error) SetSection(section string) *Error {
	e.Section = section
	return e
}

// SetOption sets the config option.
func (e *Error) SetOption(option string) *Error {
	e.Option = option
	return e
}

// New creates a new Error.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the ErrorCode of err if it is an *Error, else ErrRuntime.
func CodeOf(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ErrRuntime
}

// Config errors

// ConfigSectionError creates an error for a missing config section.
func ConfigSectionError(section string) *Error {
	return New(ErrConfigSection, fmt.Sprintf("section '%s' not found", section)).
		SetSection(section)
}

// ConfigOptionError creates an error for a missing or invalid config option.
func ConfigOptionError(section, option string) *Error {
	return New(ErrConfigOption, fmt.Sprintf("option '%s' not found in section '%s'", option, section)).
		SetSection(section).
		SetOption(option)
}

// ConfigValidationError creates an error for a config validation failure.
func ConfigValidationError(section, option, reason string) *Error {
	return New(ErrConfigValidation, fmt.Sprintf("option '%s' in section '%s': %s", option, section, reason)).
		SetSection(section).
		SetOption(option)
}

// G-code errors

// GCodeParseError creates an error for a G-code parsing failure.
func GCodeParseError(line int, reason string) *Error {
	return New(ErrGCodeParse, reason).SetLine(line)
}

// ArcOffsetError creates an error for an arc move without I/J/K offsets.
func ArcOffsetError(line int) *Error {
	return New(ErrArcOffset, "arc move requires at least one of I/J/K").SetLine(line)
}

// BadCoordinateError creates an error for a non-finite coordinate.
func BadCoordinateError(line int, axis string, value float64) *Error {
	return New(ErrBadCoordinate, fmt.Sprintf("non-finite %s coordinate %v", axis, value)).SetLine(line)
}

// Estimator errors

// EstimatorLimitsError creates an error for invalid machine limits.
func EstimatorLimitsError(reason string) *Error {
	return New(ErrEstimatorLimits, reason)
}
