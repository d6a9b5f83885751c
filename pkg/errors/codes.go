package errors

// ErrorCodeInfo contains metadata about an error code.
type ErrorCodeInfo struct {
	Code            ErrorCode
	Retryable       bool
	Description     string
	SuggestedAction string
}

// ErrorCodeRegistry maps error codes to their metadata.
var ErrorCodeRegistry = map[ErrorCode]ErrorCodeInfo{
	CodeTimeout: {
		Code:            CodeTimeout,
		Retryable:       true,
		Description:     "Operation exceeded time limit",
		SuggestedAction: "Raise llm.timeout in ~/.meetsum/config.yaml or check the LLM endpoint latency",
	},
	CodeCancelled: {
		Code:            CodeCancelled,
		Retryable:       false,
		Description:     "Operation cancelled by shutdown or user",
		SuggestedAction: "The file is retried on the next scan: meetsum scan",
	},
	CodeValidation: {
		Code:            CodeValidation,
		Retryable:       false,
		Description:     "Filename or transcript failed validation",
		SuggestedAction: "Rename the file or add content, then wait for the next scan",
	},
	CodeExtraction: {
		Code:            CodeExtraction,
		Retryable:       false,
		Description:     "Document text could not be extracted",
		SuggestedAction: "Open the document and re-save it as .docx or plain text",
	},
	CodeUnsupportedFormat: {
		Code:            CodeUnsupportedFormat,
		Retryable:       false,
		Description:     "Document format is not supported",
		SuggestedAction: "Convert the document to .txt, .docx or a Google Doc",
	},
	CodeLLMUnavailable: {
		Code:            CodeLLMUnavailable,
		Retryable:       true,
		Description:     "LLM service did not respond",
		SuggestedAction: "Check llm.base_url and network access to the provider",
	},
	CodeLLMAPI: {
		Code:            CodeLLMAPI,
		Retryable:       true,
		Description:     "LLM service returned an error response",
		SuggestedAction: "Check the API key with meetsum auth set-key and the provider quota",
	},
	CodeLLMParse: {
		Code:            CodeLLMParse,
		Retryable:       true,
		Description:     "LLM response was not valid summary JSON",
		SuggestedAction: "Try a different llm.model; the file is retried on the next scan",
	},
	CodeWriteBack: {
		Code:            CodeWriteBack,
		Retryable:       false,
		Description:     "Summary was saved but could not be written to the source",
		SuggestedAction: "Check write permission on the watched folder; view it with meetsum transcript summary <id>",
	},
	CodeConflict: {
		Code:            CodeConflict,
		Retryable:       false,
		Description:     "Another writer already recorded this file",
		SuggestedAction: "This is expected for concurrent scans; no action needed",
	},
	CodePersistence: {
		Code:            CodePersistence,
		Retryable:       true,
		Description:     "Database operation failed",
		SuggestedAction: "Check database connectivity: meetsum db status",
	},
	CodeProcessingError: {
		Code:            CodeProcessingError,
		Retryable:       false,
		Description:     "Unclassified processing error",
		SuggestedAction: "Check the watcher logs with --debug for the transcript_id",
	},
}

// IsRetryable returns true if the given error code represents a transient, retryable error.
func IsRetryable(code ErrorCode) bool {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Retryable
	}
	return false
}

// GetSuggestedAction returns the suggested action for the given error code.
func GetSuggestedAction(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.SuggestedAction
	}
	return "Check the watcher logs with --debug for more details"
}

// GetDescription returns the human-readable description for the given error code.
func GetDescription(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Description
	}
	return "Unknown error"
}
