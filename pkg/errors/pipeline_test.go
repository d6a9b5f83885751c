package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError_Nil(t *testing.T) {
	assert.Nil(t, ClassifyError(nil, StageSummarize))
}

func TestClassifyError_Taxonomy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"deadline", context.DeadlineExceeded, CodeTimeout},
		{"wrapped deadline", fmt.Errorf("summarize: %w", context.DeadlineExceeded), CodeTimeout},
		{"cancelled", context.Canceled, CodeCancelled},
		{"validation", NewValidationError("content", "too short"), CodeValidation},
		{"extraction", &ExtractionError{Name: "a.docx", Cause: errors.New("bad zip")}, CodeExtraction},
		{"unsupported", &UnsupportedFormatError{MimeType: "image/png"}, CodeUnsupportedFormat},
		{"llm unavailable", &LLMUnavailableError{}, CodeLLMUnavailable},
		{"llm api", &LLMAPIError{StatusCode: 500, Message: "upstream"}, CodeLLMAPI},
		{"llm parse", &LLMParseError{Raw: "{"}, CodeLLMParse},
		{"write back", &WriteBackError{Name: "a.txt", Cause: errors.New("eacces")}, CodeWriteBack},
		{"conflict", fmt.Errorf("create transcript: %w", ErrConflict), CodeConflict},
		{"persistence", errors.New("failed to mark transcript done: conn closed"), CodePersistence},
		{"refused", errors.New("dial tcp: connection refused"), CodeLLMUnavailable},
		{"unknown", errors.New("something odd"), CodeProcessingError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := ClassifyError(tt.err, StageSummarize)
			require.NotNil(t, pe)
			assert.Equal(t, tt.want, pe.Code)
			assert.Equal(t, StageSummarize, pe.Stage)
			assert.ErrorIs(t, pe, tt.err)
		})
	}
}

func TestClassifyError_KeepsExistingPipelineError(t *testing.T) {
	original := &PipelineError{Code: CodeLLMAPI, Stage: StageSummarize, Message: "x"}
	pe := ClassifyError(fmt.Errorf("job: %w", original), StagePersist)
	assert.Same(t, original, pe)
}

func TestPipelineError_Error(t *testing.T) {
	pe := &PipelineError{
		Code:     CodeTimeout,
		Stage:    StageSummarize,
		Duration: 121 * time.Second,
		Timeout:  120 * time.Second,
	}
	assert.Equal(t, "timeout: summarize timed out after 2m1s (limit: 2m0s)", pe.Error())

	pe = &PipelineError{Code: CodeLLMParse, Message: "bad json"}
	assert.Equal(t, "llm_parse: bad json", pe.Error())
}

func TestClassifyMessage(t *testing.T) {
	tests := []struct {
		msg  string
		want ErrorCode
	}{
		{"", ""},
		{"shutdown before summarization completed", CodeCancelled},
		{(&LLMAPIError{StatusCode: 429, Message: "slow down"}).Error(), CodeLLMAPI},
		{(&LLMUnavailableError{}).Error(), CodeLLMUnavailable},
		{(&LLMParseError{}).Error(), CodeLLMParse},
		{"context deadline exceeded (Client.Timeout exceeded)", CodeTimeout},
		{"something odd", CodeProcessingError},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyMessage(tt.msg))
		})
	}

	assert.True(t, IsRetryable(ClassifyMessage((&LLMUnavailableError{}).Error())))
	assert.False(t, IsRetryable(ClassifyMessage("something odd")))
}

func TestErrorCodeRegistry_Completeness(t *testing.T) {
	allCodes := []ErrorCode{
		CodeTimeout, CodeCancelled, CodeValidation, CodeExtraction, CodeUnsupportedFormat,
		CodeLLMUnavailable, CodeLLMAPI, CodeLLMParse, CodeWriteBack, CodeConflict,
		CodePersistence, CodeProcessingError,
	}

	for _, code := range allCodes {
		t.Run(string(code), func(t *testing.T) {
			info, ok := ErrorCodeRegistry[code]
			assert.True(t, ok, "ErrorCode %s should be in registry", code)
			assert.Equal(t, code, info.Code)
			assert.NotEmpty(t, info.Description)
			assert.NotEmpty(t, GetSuggestedAction(code))
		})
	}

	assert.Equal(t, "Unknown error", GetDescription("unknown_code"))
	assert.Contains(t, GetSuggestedAction("unknown_code"), "logs")
}
