package watcher

import (
	"context"
	"time"

	pferrors "github.com/otherjamesbrown/meetsum/pkg/errors"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/events"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/source"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/storage"
	"github.com/otherjamesbrown/meetsum/pkg/logging"
	"github.com/otherjamesbrown/meetsum/pkg/observability"
)

// markErrorTimeout bounds the status update made after a job fails.
const markErrorTimeout = 10 * time.Second

// job summarizes one accepted transcript.
type job struct {
	watcher    *Watcher
	transcript *storage.Transcript
	file       source.File
	date       time.Time
	text       string
	retry      bool
	accepted   time.Time
}

func (j *job) run(ctx context.Context) error {
	w := j.watcher
	id := j.transcript.ID
	ctx = logging.ContextWith(ctx, logging.TranscriptIDKey, id.String())
	logger := w.logger.WithContext(ctx).With(logging.F("file", j.file.Name))

	if ctx.Err() != nil {
		return j.fail(ctx, pferrors.StageShutdown, ctx.Err(), ShutdownMessage)
	}

	content, reused, err := j.storedSummary(ctx)
	if err != nil {
		return j.fail(ctx, pferrors.StagePersist, err, "")
	}
	var elapsed float64
	if !reused {
		sctx, span := w.tracer.StartSummarizeSpan(ctx, id.String(), w.config.Provider)
		helper := observability.NewSpanHelper(span)
		start := time.Now()
		result, err := w.summarizer.Summarize(sctx, j.text)
		elapsed = time.Since(start).Seconds()
		if err != nil {
			w.metrics.RecordSummary(w.config.Provider, "error", elapsed)
			pe := pferrors.ClassifyError(err, pferrors.StageSummarize)
			helper.SetError(err, string(pe.Code), pferrors.IsRetryable(pe.Code))
			span.End()
			return j.fail(ctx, pferrors.StageSummarize, err, "")
		}
		w.metrics.RecordSummary(w.config.Provider, "success", elapsed)
		helper.SetSuccess()
		span.End()
		content = *result
	}

	summary, err := w.store.CompleteTranscript(ctx, storage.NewSummary{
		TranscriptID:   id,
		Date:           j.date,
		SummaryContent: content,
	})
	if err != nil {
		return j.fail(ctx, pferrors.StagePersist, err, "")
	}
	logger.Info("Transcript summarized",
		logging.F("summary_id", summary.ID),
		logging.F("reused", reused),
		logging.F("llm_seconds", elapsed))

	written := j.writeBack(ctx, logger)

	w.publish(ctx, "transcript.summarized", w.publisher.PublishTranscriptSummarized(context.WithoutCancel(ctx), events.TranscriptSummarizedParams{
		TranscriptID: id,
		MeetingID:    j.transcript.MeetingID,
		SummaryID:    summary.ID,
		Filename:     j.file.Name,
		Duration:     time.Since(j.accepted),
		WrittenBack:  written,
	}))
	return nil
}

// storedSummary returns the summary a retried transcript already has, so a
// retry after a failed status update does not call the LLM again.
func (j *job) storedSummary(ctx context.Context) (storage.SummaryContent, bool, error) {
	if !j.retry {
		return storage.SummaryContent{}, false, nil
	}
	s, err := j.watcher.store.GetSummaryByTranscriptID(ctx, j.transcript.ID)
	if pferrors.IsNotFound(err) {
		return storage.SummaryContent{}, false, nil
	}
	if err != nil {
		return storage.SummaryContent{}, false, err
	}
	return s.SummaryContent, true, nil
}

// writeBack appends the summary to the source. Failures leave the
// transcript done.
func (j *job) writeBack(ctx context.Context, logger logging.Logger) bool {
	w := j.watcher
	wctx, span := w.tracer.StartWriteBackSpan(ctx, j.transcript.ID.String(), j.file.Name)
	defer span.End()
	helper := observability.NewSpanHelper(span)

	if err := w.writeBack.WriteBack(wctx, w.src, j.file, j.transcript.ID); err != nil {
		pe := pferrors.ClassifyError(err, pferrors.StageWriteBack)
		helper.SetError(err, string(pe.Code), false)
		w.metrics.RecordWriteBackFailure(w.src.Kind())
		logger.Warn("Write-back failed, summary is stored",
			logging.Err(err),
			logging.F("stage", pe.Stage),
			logging.F("code", string(pe.Code)))
		return false
	}
	helper.SetSuccess()
	return true
}

// fail moves the transcript to error. When ctx has been cancelled by a
// shutdown the shutdown message replaces the cause. The update runs on a
// fresh context so a cancelled job can still record its state.
func (j *job) fail(ctx context.Context, stage string, cause error, msg string) error {
	w := j.watcher
	id := j.transcript.ID

	if msg == "" {
		msg = cause.Error()
		if ctx.Err() != nil {
			msg = ShutdownMessage
			stage = pferrors.StageShutdown
		}
	}
	pe := pferrors.ClassifyError(cause, stage)

	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markErrorTimeout)
	defer cancel()

	logger := w.logger.WithContext(ctx).With(logging.F("file", j.file.Name))
	if err := w.store.MarkTranscriptError(mctx, id, msg); err != nil {
		logger.Error("Failed to mark transcript error", logging.Err(err), logging.F("cause", msg))
	} else {
		logger.Warn("Transcript failed",
			logging.F("stage", stage),
			logging.F("code", string(pe.Code)),
			logging.F("message", msg))
	}
	w.metrics.RecordTranscriptError(string(pe.Code))

	w.publish(mctx, "transcript.failed", w.publisher.PublishTranscriptFailed(mctx, events.TranscriptFailedParams{
		TranscriptID: id,
		Filename:     j.file.Name,
		ErrorCode:    string(pe.Code),
		Message:      msg,
		Retryable:    pferrors.IsRetryable(pe.Code),
	}))
	return pe
}
