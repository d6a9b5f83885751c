// Package extract turns downloaded transcript bytes into plain text.
package extract

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	pferrors "github.com/otherjamesbrown/meetsum/pkg/errors"
	"github.com/otherjamesbrown/meetsum/pkg/logging"
)

// MIME types handled by the extractor.
const (
	MimeText      = "text/plain"
	MimeGoogleDoc = "application/vnd.google-apps.document"
	MimeDocx      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var excessNewlines = regexp.MustCompile(`\n\s*\n\s*\n`)

// Extractor converts document bytes to text based on MIME type.
type Extractor struct {
	logger logging.Logger
}

// New creates an Extractor.
func New(logger logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Extractor{logger: logger.With(logging.F("component", "extractor"))}
}

// Extract returns the text content of data.
//
// Text types and Google Docs (already exported as text by the source) pass
// through unchanged. Word documents are reduced to their raw paragraph text.
// Any other type fails with *UnsupportedFormatError.
func (e *Extractor) Extract(data []byte, mimeType string) (string, error) {
	switch {
	case strings.HasPrefix(mimeType, "text/"), mimeType == MimeGoogleDoc:
		return decodeText(data), nil

	case mimeType == MimeDocx:
		text, err := docxText(data)
		if err != nil {
			return "", &pferrors.ExtractionError{Name: "word/document.xml", Cause: err}
		}
		cleaned := CleanWhitespace(text)
		e.logger.Debug("Extracted docx text", logging.F("chars", len(cleaned)))
		return cleaned, nil

	default:
		return "", &pferrors.UnsupportedFormatError{MimeType: mimeType}
	}
}

// CleanWhitespace collapses runs of three or more newlines to two and trims.
func CleanWhitespace(text string) string {
	return strings.TrimSpace(excessNewlines.ReplaceAllString(text, "\n\n"))
}

// decodeText strips a UTF-8 BOM and replaces invalid sequences.
func decodeText(data []byte) string {
	s := strings.TrimPrefix(string(data), "\ufeff")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	return s
}

// MimeTypeForName maps a local filename to the MIME type the extractor expects.
// Unknown extensions map to application/octet-stream.
func MimeTypeForName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return MimeText
	case ".docx":
		return MimeDocx
	default:
		return "application/octet-stream"
	}
}

// IsSupported reports whether mimeType can be extracted.
func IsSupported(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/") || mimeType == MimeGoogleDoc || mimeType == MimeDocx
}
