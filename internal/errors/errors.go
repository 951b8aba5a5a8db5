package errors

import (
	"errors"
	"fmt"
)

// Standard application errors
var (
	ErrEmptyInput         = errors.New("input is empty or contains only whitespace")
	ErrInvalidUTF8        = errors.New("input is not valid UTF-8")
	ErrDetectionAmbiguous = errors.New("format detection is ambiguous")
	ErrUnsupportedFormat  = errors.New("no parser available for this format")
	ErrUnsupportedTarget  = errors.New("no encoder available for this format")
	ErrNoInput            = errors.New("no input provided: specify a file or pipe data to stdin")
	ErrInvalidFilePath    = errors.New("invalid file path")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeInput      ErrorType = "input"
	ErrorTypeDetection  ErrorType = "detection"
	ErrorTypeStructural ErrorType = "structural"
	ErrorTypeEncoding   ErrorType = "encoding"
	ErrorTypeConversion ErrorType = "conversion"
	ErrorTypeOutput     ErrorType = "output"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewInputError creates a new error related to input handling
func NewInputError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInput,
		Message: message,
		Err:     err,
	}
}

// NewDetectionError creates a new error related to format detection
func NewDetectionError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeDetection,
		Message: message,
		Err:     err,
	}
}

// NewStructuralError creates a new error for a structural violation that
// could not be repaired (field-count mismatch, bad indentation multiple,
// unterminated quote, declared-length mismatch)
func NewStructuralError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeStructural,
		Message: message,
		Err:     err,
	}
}

// NewEncodingError creates a new error for invalid input encoding
func NewEncodingError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeEncoding,
		Message: message,
		Err:     err,
	}
}

// NewConversionError wraps an inner parse or encode failure during a
// format-to-format conversion; it is always surfaced, never downgraded
func NewConversionError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeConversion,
		Message: message,
		Err:     err,
	}
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeOutput,
		Message: message,
		Err:     err,
	}
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", appErr.Message)
		case ErrorTypeDetection:
			return fmt.Sprintf("Detection error: %s", appErr.Message)
		case ErrorTypeStructural:
			return fmt.Sprintf("Structural error: %s", appErr.Message)
		case ErrorTypeEncoding:
			return fmt.Sprintf("Encoding error: %s", appErr.Message)
		case ErrorTypeConversion:
			return fmt.Sprintf("Conversion error: %s", appErr.Message)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", appErr.Message)
		default:
			return fmt.Sprintf("Error: %s", appErr.Message)
		}
	}

	// Handle standard errors
	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide some content to parse."
	}
	if errors.Is(err, ErrInvalidUTF8) {
		return "Error: The input is not valid UTF-8 text."
	}
	if errors.Is(err, ErrDetectionAmbiguous) {
		return "Error: Could not determine the input format. Pass an explicit format hint."
	}
	if errors.Is(err, ErrUnsupportedFormat) {
		return "Error: No parser is available for the requested format."
	}
	if errors.Is(err, ErrUnsupportedTarget) {
		return "Error: No encoder is available for the requested output format."
	}
	if errors.Is(err, ErrNoInput) {
		return "Error: No input provided. Specify a file or pipe data to stdin."
	}
	if errors.Is(err, ErrInvalidFilePath) {
		return "Error: Invalid file path. Please provide a valid file path."
	}

	// Generic error message for unknown errors
	return fmt.Sprintf("Error: %v", err)
}
