package meeting

import (
	"regexp"
	"strings"

	pferrors "github.com/otherjamesbrown/meetsum/pkg/errors"
)

const (
	// MaxFilenameLength is the longest accepted filename.
	MaxFilenameLength = 255

	// MinTranscriptChars is the minimum trimmed transcript length.
	MinTranscriptChars = 100

	// MinTranscriptWords is the minimum number of whitespace-separated words.
	MinTranscriptWords = 20

	// MaxTranscriptBytes caps the extracted text at 10 MiB.
	MaxTranscriptBytes = 10 * 1024 * 1024
)

var invalidFilenameChars = regexp.MustCompile(`[<>:"|?*\x00-\x1f]`)

// AcceptedExtensions lists the file extensions the watcher picks up.
var AcceptedExtensions = []string{".txt", ".docx"}

// ValidateFilename checks extension, length and characters of a transcript filename.
func ValidateFilename(filename string) error {
	if filename == "" {
		return pferrors.NewValidationError("filename", "Filename is required")
	}

	lower := strings.ToLower(filename)
	ok := false
	for _, ext := range AcceptedExtensions {
		if strings.HasSuffix(lower, ext) {
			ok = true
			break
		}
	}
	if !ok {
		return pferrors.NewValidationError("filename", "Only .txt and .docx files are accepted")
	}

	if len(filename) > MaxFilenameLength {
		return pferrors.NewValidationError("filename", "Filename is too long")
	}

	if invalidFilenameChars.MatchString(filename) {
		return pferrors.NewValidationError("filename", "Filename contains invalid characters")
	}
	return nil
}

// ValidateTranscript checks that extracted text looks like a real transcript.
func ValidateTranscript(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return pferrors.NewValidationError("content", "Transcript content is required")
	}
	if len([]rune(trimmed)) < MinTranscriptChars {
		return pferrors.NewValidationError("content", "Transcript is too short (minimum 100 characters)")
	}
	if len(text) > MaxTranscriptBytes {
		return pferrors.NewValidationError("content", "Transcript exceeds maximum size (10MB)")
	}
	if len(strings.Fields(trimmed)) < MinTranscriptWords {
		return pferrors.NewValidationError("content", "Transcript must contain at least 20 words")
	}
	return nil
}
