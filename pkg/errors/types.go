package errors

import (
	"errors"
	"fmt"
)

// ValidationError reports a filename or transcript that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ExtractionError reports a document whose text could not be extracted.
type ExtractionError struct {
	Name  string
	Cause error
}

func (e *ExtractionError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("extraction failed: %v", e.Cause)
	}
	return fmt.Sprintf("extraction failed for %s: %v", e.Name, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// UnsupportedFormatError reports a MIME type the extractor does not handle.
// It is also an extraction error: errors.As with *ExtractionError matches it.
type UnsupportedFormatError struct {
	MimeType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %s", e.MimeType)
}

// As lets an UnsupportedFormatError satisfy errors.As(err, **ExtractionError).
func (e *UnsupportedFormatError) As(target interface{}) bool {
	if t, ok := target.(**ExtractionError); ok {
		*t = &ExtractionError{Cause: e}
		return true
	}
	return false
}

// LLMUnavailableError reports a transport failure or an empty LLM response.
type LLMUnavailableError struct {
	Cause error
}

func (e *LLMUnavailableError) Error() string {
	return "No response from LLM service"
}

func (e *LLMUnavailableError) Unwrap() error {
	return e.Cause
}

// LLMAPIError reports a non-2xx response from the LLM endpoint.
type LLMAPIError struct {
	StatusCode int
	Message    string
}

func (e *LLMAPIError) Error() string {
	return "LLM API Error: " + e.Message
}

// LLMParseError reports an LLM reply that is not valid summary JSON.
type LLMParseError struct {
	Raw   string
	Cause error
}

func (e *LLMParseError) Error() string {
	return "Failed to parse summary from LLM response"
}

func (e *LLMParseError) Unwrap() error {
	return e.Cause
}

// WriteBackError reports a failure to write a summary back to the source.
type WriteBackError struct {
	Name  string
	Cause error
}

func (e *WriteBackError) Error() string {
	return fmt.Sprintf("write-back failed for %s: %v", e.Name, e.Cause)
}

func (e *WriteBackError) Unwrap() error {
	return e.Cause
}

// IsExtraction reports whether err is an extraction failure, including unsupported formats.
func IsExtraction(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

// IsUnsupportedFormat reports whether err is an UnsupportedFormatError.
func IsUnsupportedFormat(err error) bool {
	var ue *UnsupportedFormatError
	return errors.As(err, &ue)
}
