package watcher

import (
	"context"
	"time"

	pferrors "github.com/otherjamesbrown/meetsum/pkg/errors"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/events"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/extract"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/meeting"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/source"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/storage"
	"github.com/otherjamesbrown/meetsum/pkg/logging"
	"github.com/otherjamesbrown/meetsum/pkg/observability"
)

// processFile gates one listed file and, when it is accepted, queues its
// summarization. Nothing escapes this boundary but the outcome.
func (w *Watcher) processFile(ctx context.Context, f source.File) (outcome Outcome) {
	ctx, span := w.tracer.StartFileSpan(ctx, f.Name, f.MimeType)
	defer span.End()
	helper := observability.NewSpanHelper(span)
	defer func() { helper.SetOutcome(string(outcome)) }()

	logger := w.logger.WithContext(ctx).With(logging.F("file", f.Name))

	if source.IsSummaryArtifact(f.Name) {
		return OutcomeSkipped
	}

	if !skipsFilenameValidation(f.MimeType) {
		if err := meeting.ValidateFilename(f.Name); err != nil {
			logger.Warn("Rejected file name", logging.Err(err))
			return OutcomeRejected
		}
	}

	if f.Size > w.config.MaxFileSize {
		logger.Warn("Rejected oversized file",
			logging.F("size", f.Size),
			logging.F("max_file_size", w.config.MaxFileSize))
		return OutcomeRejected
	}

	existing, err := w.store.FindTranscriptByFilename(ctx, f.Name)
	switch {
	case err == nil:
		if existing.Status != storage.StatusError {
			logger.Debug("Already handled", logging.F("status", string(existing.Status)))
			return OutcomeSkipped
		}
		logger = logger.With(logging.F("transcript_id", existing.ID))
	case pferrors.IsNotFound(err):
		existing = nil
	default:
		logger.Error("Failed to check ledger by filename", logging.Err(err))
		return OutcomeFailed
	}

	data, err := w.src.Read(ctx, f)
	if err != nil {
		logger.Error("Failed to read file", logging.Err(err))
		return OutcomeFailed
	}
	if int64(len(data)) > w.config.MaxFileSize {
		logger.Warn("Rejected oversized file after export", logging.F("size", len(data)))
		return OutcomeRejected
	}

	text, err := w.extractor.Extract(data, f.MimeType)
	if err != nil {
		if existing != nil {
			logger.Warn("Extraction failed on retry, transcript stays in error", logging.Err(err))
			if merr := w.store.MarkTranscriptError(ctx, existing.ID, err.Error()); merr != nil {
				logger.Error("Failed to mark transcript error", logging.Err(merr))
			}
		} else {
			logger.Warn("Rejected file, extraction failed", logging.Err(err))
		}
		return OutcomeRejected
	}

	if err := meeting.ValidateTranscript(text); err != nil {
		logger.Warn("Rejected transcript", logging.Err(err))
		return OutcomeRejected
	}

	hash := extract.ContentHash(text)
	if existing == nil {
		dup, err := w.store.FindTranscriptByHash(ctx, hash)
		switch {
		case err == nil:
			logger.Info("Duplicate content, skipping",
				logging.F("existing_transcript_id", dup.ID),
				logging.F("existing_filename", dup.Filename))
			return OutcomeSkipped
		case !pferrors.IsNotFound(err):
			logger.Error("Failed to check ledger by hash", logging.Err(err))
			return OutcomeFailed
		}
	}

	parsed := meeting.ParseFilenameAt(f.Name, w.config.TimezoneOffset)
	date := meeting.TodayIn(w.config.Now(), w.config.TimezoneOffset)
	if parsed.HasDate() {
		date = *parsed.Date
	}
	meta := storage.TranscriptMeta{
		SourceFileID: f.ID,
		Title:        parsed.OccurrenceTitle,
		MeetingDate:  &date,
		MeetingTime:  parsed.Time,
	}

	var (
		t     *storage.Transcript
		retry = existing != nil
	)
	if retry {
		t, err = w.store.ResetTranscriptForRetry(ctx, existing.ID, text, hash, meta)
		if err != nil {
			if pferrors.IsInvalidState(err) || pferrors.IsConflict(err) {
				logger.Info("Retry claimed elsewhere, skipping", logging.Err(err))
				return OutcomeSkipped
			}
			logger.Error("Failed to reset transcript for retry", logging.Err(err))
			return OutcomeFailed
		}
	} else {
		m, created, err := w.store.FindOrCreateMeeting(ctx, w.config.OwnerID, parsed.SeriesKey, date, parsed.Time)
		if err != nil {
			logger.Error("Failed to resolve meeting", logging.Err(err))
			return OutcomeFailed
		}
		if created {
			logger.Info("Created meeting", logging.F("meeting_id", m.ID), logging.F("title", m.Title))
		}

		t, err = w.store.CreateTranscript(ctx, storage.NewTranscript{
			MeetingID:      m.ID,
			Filename:       f.Name,
			Content:        text,
			FileHash:       hash,
			TranscriptMeta: meta,
		})
		if err != nil {
			if pferrors.IsConflict(err) {
				logger.Info("Transcript recorded by another writer, skipping")
				return OutcomeSkipped
			}
			logger.Error("Failed to record transcript", logging.Err(err))
			return OutcomeFailed
		}
	}
	helper.SetTranscript(t.ID.String())

	w.publish(ctx, "transcript.accepted", w.publisher.PublishTranscriptAccepted(ctx, events.TranscriptAcceptedParams{
		TranscriptID: t.ID,
		ContentID:    t.ContentID,
		MeetingID:    t.MeetingID,
		Filename:     f.Name,
		SourceKind:   w.src.Kind(),
		Retry:        retry,
	}))

	j := &job{watcher: w, transcript: t, file: f, date: date, text: text, retry: retry, accepted: time.Now()}
	if err := w.pool.Submit(ctx, Job{ID: t.ID.String(), Run: j.run}); err != nil {
		logger.Warn("Could not queue summarization", logging.Err(err))
		j.fail(ctx, pferrors.StageShutdown, err, ShutdownMessage)
		return OutcomeFailed
	}

	logger.Info("Transcript queued for summarization",
		logging.F("transcript_id", t.ID),
		logging.F("meeting_id", t.MeetingID),
		logging.F("retry", retry))
	if retry {
		return OutcomeRetried
	}
	return OutcomeAccepted
}

// Google Docs and Word files are named by people, not by the recorder, so
// their names are not held to the transcript naming rules.
func skipsFilenameValidation(mimeType string) bool {
	return mimeType == extract.MimeGoogleDoc || mimeType == extract.MimeDocx
}
