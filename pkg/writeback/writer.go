package writeback

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	pferrors "github.com/otherjamesbrown/meetsum/pkg/errors"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/extract"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/meeting"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/source"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/storage"
	"github.com/otherjamesbrown/meetsum/pkg/logging"
)

// Store is the persistence the writer needs.
type Store interface {
	GetSummaryByTranscriptID(ctx context.Context, transcriptID uuid.UUID) (*storage.Summary, error)
	UpdateTranscriptHash(ctx context.Context, id uuid.UUID, hash string) error
}

// Writer projects stored summaries back onto their source files.
type Writer struct {
	store     Store
	extractor *extract.Extractor
	logger    logging.Logger
	now       func() time.Time
}

// NewWriter creates a Writer.
func NewWriter(store Store, extractor *extract.Extractor, logger logging.Logger) *Writer {
	return &Writer{
		store:     store,
		extractor: extractor,
		logger:    logger.With(logging.F("component", "writeback")),
		now:       time.Now,
	}
}

// SetClock overrides the time used for the "Generated on" date.
func (w *Writer) SetClock(now func() time.Time) {
	w.now = now
}

// IsSummaryArtifact reports whether name was produced by WriteBack.
func IsSummaryArtifact(name string) bool {
	return source.IsSummaryArtifact(name)
}

// SummaryFileName returns the sibling file name used for Word documents.
func SummaryFileName(name string) string {
	return meeting.StripExtension(name) + "_summary.txt"
}

// WriteBack renders the stored summary of transcriptID onto f.
//
// Plain text and Google Docs get the block appended in place, after which the
// transcript hash is updated to the new content. Word documents get a sibling
// "_summary.txt" holding the extracted text plus the block; an existing
// sibling is left alone. Failures are returned as *WriteBackError.
func (w *Writer) WriteBack(ctx context.Context, src source.Source, f source.File, transcriptID uuid.UUID) error {
	summary, err := w.store.GetSummaryByTranscriptID(ctx, transcriptID)
	if err != nil {
		return &pferrors.WriteBackError{Name: f.Name, Cause: fmt.Errorf("loading summary: %w", err)}
	}
	block := Render(summary.SummaryContent, w.now())

	logger := w.logger.With(
		logging.F("file", f.Name),
		logging.F("transcript_id", transcriptID))

	if f.MimeType == extract.MimeDocx {
		return w.writeSibling(ctx, src, f, block, logger)
	}

	data, err := src.Read(ctx, f)
	if err != nil {
		return &pferrors.WriteBackError{Name: f.Name, Cause: err}
	}
	text, err := w.extractor.Extract(data, f.MimeType)
	if err != nil {
		return &pferrors.WriteBackError{Name: f.Name, Cause: err}
	}

	updated := text + block
	if err := src.Write(ctx, f, []byte(updated)); err != nil {
		return &pferrors.WriteBackError{Name: f.Name, Cause: err}
	}
	if err := w.store.UpdateTranscriptHash(ctx, transcriptID, extract.ContentHash(updated)); err != nil {
		return &pferrors.WriteBackError{Name: f.Name, Cause: fmt.Errorf("updating hash: %w", err)}
	}

	logger.Info("Appended summary to transcript")
	return nil
}

func (w *Writer) writeSibling(ctx context.Context, src source.Source, f source.File, block string, logger logging.Logger) error {
	name := SummaryFileName(f.Name)

	exists, err := src.Exists(ctx, name)
	if err != nil {
		return &pferrors.WriteBackError{Name: name, Cause: err}
	}
	if exists {
		logger.Info("Summary file already exists, skipping", logging.F("summary_file", name))
		return nil
	}

	data, err := src.Read(ctx, f)
	if err != nil {
		return &pferrors.WriteBackError{Name: f.Name, Cause: err}
	}
	text, err := w.extractor.Extract(data, f.MimeType)
	if err != nil {
		return &pferrors.WriteBackError{Name: f.Name, Cause: err}
	}

	if err := src.Create(ctx, name, []byte(text+block)); err != nil {
		return &pferrors.WriteBackError{Name: name, Cause: err}
	}

	logger.Info("Created summary file", logging.F("summary_file", name))
	return nil
}
