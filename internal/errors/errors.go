package errors

import (
	"fmt"
)

// InkError is the structured error type for inkwell.
// It carries a stable code plus enough context for logging and for the
// HTTP layer to decide how to present a failure.
type InkError struct {
	// Code is the unique error code (e.g., "ERR_202_DOC_MISSING_TITLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Content, Snapshot, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *InkError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *InkError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with InkError.
func (e *InkError) Is(target error) bool {
	if t, ok := target.(*InkError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *InkError) WithDetail(key, value string) *InkError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new InkError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *InkError {
	return &InkError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an InkError from an existing error.
// The error's message becomes the InkError message.
func Wrap(code string, err error) *InkError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// DocumentError creates a per-document ingestion error. Document errors
// exclude the document from the corpus but never abort a rebuild.
func DocumentError(code, path string, cause error) *InkError {
	msg := fmt.Sprintf("document %s failed ingestion", path)
	if cause != nil {
		msg = fmt.Sprintf("document %s failed ingestion: %v", path, cause)
	}
	return New(code, msg, cause).WithDetail("path", path)
}

// GetCode extracts the error code from an InkError.
// Returns empty string if not an InkError.
func GetCode(err error) string {
	if ie, ok := err.(*InkError); ok {
		return ie.Code
	}
	return ""
}

// GetCategory extracts the category from an InkError.
// Returns empty string if not an InkError.
func GetCategory(err error) Category {
	if ie, ok := err.(*InkError); ok {
		return ie.Category
	}
	return ""
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	if ie, ok := err.(*InkError); ok {
		return ie.Severity == SeverityFatal
	}
	return false
}
