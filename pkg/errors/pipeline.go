package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents a classified pipeline error. Codes are used as metric
// labels and event payloads.
type ErrorCode string

const (
	CodeTimeout           ErrorCode = "timeout"
	CodeCancelled         ErrorCode = "cancelled"
	CodeValidation        ErrorCode = "validation"
	CodeExtraction        ErrorCode = "extraction"
	CodeUnsupportedFormat ErrorCode = "unsupported_format"
	CodeLLMUnavailable    ErrorCode = "llm_unavailable"
	CodeLLMAPI            ErrorCode = "llm_api"
	CodeLLMParse          ErrorCode = "llm_parse"
	CodeWriteBack         ErrorCode = "write_back"
	CodeConflict          ErrorCode = "conflict"
	CodePersistence       ErrorCode = "persistence"
	CodeProcessingError   ErrorCode = "processing_error"
)

// Pipeline stages used when classifying errors.
const (
	StageSummarize = "summarize"
	StagePersist   = "persist"
	StageWriteBack = "write_back"
	StageShutdown  = "shutdown"
)

// PipelineError is a structured error for pipeline failures.
type PipelineError struct {
	Code     ErrorCode
	Stage    string
	Message  string
	Duration time.Duration
	Timeout  time.Duration
	Cause    error
}

func (e *PipelineError) Error() string {
	if e.Timeout > 0 && e.Duration > 0 {
		return fmt.Sprintf("%s: %s timed out after %s (limit: %s)", e.Code, e.Stage, e.Duration.Truncate(time.Second), e.Timeout.Truncate(time.Second))
	}
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// ClassifyError inspects an error and returns a *PipelineError with the appropriate code.
// Typed taxonomy errors are matched first, then message patterns. Anything else is
// CodeProcessingError.
func ClassifyError(err error, stage string) *PipelineError {
	if err == nil {
		return nil
	}

	var existing *PipelineError
	if errors.As(err, &existing) {
		return existing
	}

	pe := &PipelineError{
		Stage:   stage,
		Cause:   err,
		Message: err.Error(),
	}

	var (
		unsupported *UnsupportedFormatError
		extraction  *ExtractionError
		unavailable *LLMUnavailableError
		apiErr      *LLMAPIError
		parseErr    *LLMParseError
		writeBack   *WriteBackError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		pe.Code = CodeTimeout
		pe.Message = "operation timed out"
	case errors.Is(err, context.Canceled):
		pe.Code = CodeCancelled
		pe.Message = "operation cancelled"
	case errors.As(err, &writeBack):
		pe.Code = CodeWriteBack
	case errors.As(err, &unsupported):
		pe.Code = CodeUnsupportedFormat
	case errors.As(err, &extraction):
		pe.Code = CodeExtraction
	case errors.As(err, &unavailable):
		pe.Code = CodeLLMUnavailable
	case errors.As(err, &apiErr):
		pe.Code = CodeLLMAPI
	case errors.As(err, &parseErr):
		pe.Code = CodeLLMParse
	case errors.Is(err, ErrValidation):
		pe.Code = CodeValidation
	case errors.Is(err, ErrConflict):
		pe.Code = CodeConflict
	default:
		pe.Code = classifyMessage(strings.ToLower(err.Error()))
	}
	return pe
}

func classifyMessage(lower string) ErrorCode {
	switch {
	case strings.Contains(lower, "shutdown before"):
		return CodeCancelled
	case strings.Contains(lower, "llm api error"):
		return CodeLLMAPI
	case strings.Contains(lower, "no response from llm"):
		return CodeLLMUnavailable
	case strings.Contains(lower, "failed to parse summary"):
		return CodeLLMParse
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out"):
		return CodeTimeout
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "service unavailable") || strings.Contains(lower, "503"):
		return CodeLLMUnavailable
	case strings.Contains(lower, "duplicate key") || strings.Contains(lower, "unique constraint"):
		return CodeConflict
	case strings.Contains(lower, "failed to") && (strings.Contains(lower, "transcript") ||
		strings.Contains(lower, "meeting") || strings.Contains(lower, "summary")):
		return CodePersistence
	default:
		return CodeProcessingError
	}
}

// ClassifyMessage maps a stored transcript error message back to a code.
func ClassifyMessage(msg string) ErrorCode {
	if msg == "" {
		return ""
	}
	return classifyMessage(strings.ToLower(msg))
}
