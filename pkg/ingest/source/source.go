// Package source abstracts the location the watcher reads transcripts from
// and writes summaries back to: a local directory or a Google Drive folder.
package source

import (
	"context"
	"strings"
	"time"
)

// Source kinds reported by Kind.
const (
	KindLocal = "local"
	KindDrive = "drive"
)

// File describes one entry in a watched location.
type File struct {
	ID         string
	Name       string
	MimeType   string
	Size       int64
	ModifiedAt time.Time
}

// Source is a watched location.
type Source interface {
	// List returns the candidate transcripts. Summary artifacts are excluded.
	List(ctx context.Context) ([]File, error)

	// Read returns the content of f. Google Docs are exported as plain text.
	Read(ctx context.Context, f File) ([]byte, error)

	// Write replaces the content of f.
	Write(ctx context.Context, f File, data []byte) error

	// Create adds a new plain-text file named name to the watched location.
	Create(ctx context.Context, name string, data []byte) error

	// Exists reports whether a file named name is present.
	Exists(ctx context.Context, name string) (bool, error)

	// Kind returns KindLocal or KindDrive.
	Kind() string
}

// Suffixes that mark files written by the summary write-back.
var summaryArtifactSuffixes = []string{"_summary.txt", ".summary.txt"}

// IsSummaryArtifact reports whether name is a summary file produced by write-back.
func IsSummaryArtifact(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range summaryArtifactSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
