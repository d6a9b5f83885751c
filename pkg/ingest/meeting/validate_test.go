package meeting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	pferrors "github.com/otherjamesbrown/meetsum/pkg/errors"
)

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr string
	}{
		{"txt", "standup_2025-01-01.txt", ""},
		{"docx upper", "Planning.DOCX", ""},
		{"empty", "", "Filename is required"},
		{"pdf", "notes.pdf", "Only .txt and .docx files are accepted"},
		{"too long", strings.Repeat("a", 252) + ".txt", "Filename is too long"},
		{"invalid chars", "what?.txt", "Filename contains invalid characters"},
		{"control char", "a\x01b.txt", "Filename contains invalid characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.file)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
			assert.True(t, pferrors.IsValidation(err))
		})
	}
}

func TestValidateTranscript(t *testing.T) {
	words := strings.Repeat("meeting notes go here today ", 6)

	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{"valid", words, ""},
		{"empty", "   ", "Transcript content is required"},
		{"too short", "hello world", "too short"},
		{"few words", strings.Repeat("x", 120) + " y", "at least 20 words"},
		{"too large", strings.Repeat("word ", MaxTranscriptBytes/5+1), "exceeds maximum size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTranscript(tt.text)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
