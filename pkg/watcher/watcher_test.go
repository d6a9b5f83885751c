package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	pferrors "github.com/otherjamesbrown/meetsum/pkg/errors"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/extract"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/source"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/storage"
	"github.com/otherjamesbrown/meetsum/pkg/summarize"
)

const sampleTranscript = "Alice: Good morning everyone, let's get started with the planning session for next quarter.\n" +
	"Bob: Sure, I have the roadmap ready and we can walk through the milestones one by one today.\n"

var fixedNow = time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)

type harness struct {
	watcher    *Watcher
	store      *mockStore
	summarizer *mockSummarizer
	writeBack  *mockWriteBacker
}

func newHarness(t *testing.T, src source.Source, cfg Config) *harness {
	t.Helper()

	h := &harness{
		store:      new(mockStore),
		summarizer: new(mockSummarizer),
		writeBack:  new(mockWriteBacker),
	}
	if cfg.Workers == 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 4
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	cfg.Now = func() time.Time { return fixedNow }

	w, err := New(Deps{
		Store:      h.store,
		Source:     src,
		Summarizer: h.summarizer,
		WriteBack:  h.writeBack,
	}, cfg)
	require.NoError(t, err)
	h.watcher = w
	t.Cleanup(func() { _ = w.Stop(context.Background()) })
	return h
}

func localSource(t *testing.T, files map[string]string) *source.LocalSource {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	src, err := source.NewLocalSource(dir)
	require.NoError(t, err)
	return src
}

func sampleResult() *summarize.Result {
	return &summarize.Result{
		Attendees:            []string{"Alice", "Bob"},
		KeyDecisions:         []string{"Ship the roadmap"},
		ActionItems:          []storage.ActionItem{{Task: "Share milestones", AssignedTo: []string{"Bob"}}},
		DiscussionHighlights: []string{"Quarter planning"},
	}
}

func fileNamed(name string) interface{} {
	return mock.MatchedBy(func(f source.File) bool { return f.Name == name })
}

func TestNew_RequiresCollaborators(t *testing.T) {
	src := localSource(t, nil)
	full := Deps{
		Store:      new(mockStore),
		Source:     src,
		Summarizer: new(mockSummarizer),
		WriteBack:  new(mockWriteBacker),
	}

	tests := []struct {
		name   string
		mutate func(d *Deps)
	}{
		{"store", func(d *Deps) { d.Store = nil }},
		{"source", func(d *Deps) { d.Source = nil }},
		{"summarizer", func(d *Deps) { d.Summarizer = nil }},
		{"write-back", func(d *Deps) { d.WriteBack = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := full
			tt.mutate(&deps)
			_, err := New(deps, Config{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.name)
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.Equal(t, int64(DefaultMaxFileSize), cfg.MaxFileSize)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, summarize.ProviderOpenRouter, cfg.Provider)
	assert.NotNil(t, cfg.Now)

	d := DefaultConfig()
	assert.Equal(t, uuid.Nil, d.OwnerID)
	assert.Equal(t, 7*time.Hour, d.TimezoneOffset)
	assert.Equal(t, 1, d.MaxRetries)
	assert.Equal(t, DefaultShutdownTimeout, d.ShutdownTimeout)
}

func TestScanOnce_EndToEnd(t *testing.T) {
	name := "[Org][Proj] Planning_2025-01-17T02_54_32+00_00.txt"
	src := localSource(t, map[string]string{name: sampleTranscript})
	h := newHarness(t, src, Config{})

	text := sampleTranscript
	hash := extract.ContentHash(text)
	date := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)
	meetingID := uuid.New()
	transcriptID := uuid.New()
	summaryID := uuid.New()

	h.store.On("FindTranscriptByFilename", mock.Anything, name).Return(nil, pferrors.ErrNotFound)
	h.store.On("FindTranscriptByHash", mock.Anything, hash).Return(nil, pferrors.ErrNotFound)
	h.store.On("FindOrCreateMeeting", mock.Anything, uuid.Nil, "[Org][Proj] Planning", date, "09:54:32").
		Return(&storage.Meeting{ID: meetingID, Title: "[Org][Proj] Planning"}, true, nil)
	h.store.On("CreateTranscript", mock.Anything, mock.MatchedBy(func(nt storage.NewTranscript) bool {
		return nt.MeetingID == meetingID &&
			nt.Filename == name &&
			nt.Content == text &&
			nt.FileHash == hash &&
			nt.Title == "[Org][Proj] Planning" &&
			nt.MeetingTime == "09:54:32" &&
			nt.MeetingDate != nil && nt.MeetingDate.Equal(date) &&
			nt.SourceFileID == filepath.Join(src.Dir(), name)
	})).Return(&storage.Transcript{ID: transcriptID, MeetingID: meetingID, Filename: name, Status: storage.StatusProcess}, nil)
	h.summarizer.On("Summarize", mock.Anything, text).Return(sampleResult(), nil).Once()
	h.store.On("CompleteTranscript", mock.Anything, mock.MatchedBy(func(ns storage.NewSummary) bool {
		return ns.TranscriptID == transcriptID && ns.Date.Equal(date) && len(ns.Attendees) == 2
	})).Return(&storage.Summary{ID: summaryID, TranscriptID: transcriptID}, nil)
	h.writeBack.On("WriteBack", mock.Anything, src, fileNamed(name), transcriptID).Return(nil)

	report := h.watcher.ScanOnce(context.Background())
	h.watcher.Wait(context.Background())

	assert.Equal(t, 1, report.Seen)
	assert.Equal(t, 1, report.Accepted)
	assert.Equal(t, source.KindLocal, report.SourceKind)
	assert.Empty(t, report.Error)

	h.store.AssertExpectations(t)
	h.summarizer.AssertExpectations(t)
	h.writeBack.AssertExpectations(t)
	h.store.AssertNotCalled(t, "MarkTranscriptError", mock.Anything, mock.Anything, mock.Anything)

	stats := h.watcher.PoolStats()
	assert.Equal(t, int64(1), stats.Processed)
	assert.Equal(t, PoolStatusStopped, stats.Status)
}

func TestScanOnce_DuplicateHashMakesNoRowAndNoLLMCall(t *testing.T) {
	name := "Standup_2025-01-20.txt"
	src := localSource(t, map[string]string{name: sampleTranscript})
	h := newHarness(t, src, Config{})

	h.store.On("FindTranscriptByFilename", mock.Anything, name).Return(nil, pferrors.ErrNotFound)
	h.store.On("FindTranscriptByHash", mock.Anything, extract.ContentHash(sampleTranscript)).
		Return(&storage.Transcript{ID: uuid.New(), Filename: "earlier copy.txt", Status: storage.StatusDone}, nil)

	for i := 0; i < 2; i++ {
		report := h.watcher.ScanOnce(context.Background())
		assert.Equal(t, 1, report.Skipped)
		assert.Zero(t, report.Accepted)
	}
	h.watcher.Wait(context.Background())

	h.store.AssertNotCalled(t, "CreateTranscript", mock.Anything, mock.Anything)
	h.store.AssertNotCalled(t, "FindOrCreateMeeting", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	h.summarizer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
}

func TestScanOnce_FilenameGate(t *testing.T) {
	tests := []struct {
		status storage.TranscriptStatus
	}{
		{storage.StatusDone},
		{storage.StatusProcess},
		{storage.StatusPending},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			name := "Retro_2025-02-01.txt"
			src := localSource(t, map[string]string{name: sampleTranscript})
			h := newHarness(t, src, Config{})

			h.store.On("FindTranscriptByFilename", mock.Anything, name).
				Return(&storage.Transcript{ID: uuid.New(), Filename: name, Status: tt.status}, nil)

			report := h.watcher.ScanOnce(context.Background())
			assert.Equal(t, 1, report.Skipped)
			h.store.AssertNotCalled(t, "FindTranscriptByHash", mock.Anything, mock.Anything)
			h.summarizer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
		})
	}
}

func TestScanOnce_ErrorTranscriptRetriesSameRow(t *testing.T) {
	name := "Retro_2025-02-01.txt"
	src := localSource(t, map[string]string{name: sampleTranscript})
	h := newHarness(t, src, Config{})

	id := uuid.New()
	meetingID := uuid.New()
	hash := extract.ContentHash(sampleTranscript)

	h.store.On("FindTranscriptByFilename", mock.Anything, name).
		Return(&storage.Transcript{ID: id, MeetingID: meetingID, Filename: name, Status: storage.StatusError, ErrorMsg: "boom"}, nil)
	h.store.On("ResetTranscriptForRetry", mock.Anything, id, sampleTranscript, hash, mock.MatchedBy(func(m storage.TranscriptMeta) bool {
		return m.Title == "Retro" && m.MeetingDate != nil
	})).Return(&storage.Transcript{ID: id, MeetingID: meetingID, Filename: name, Status: storage.StatusProcess}, nil)
	h.store.On("GetSummaryByTranscriptID", mock.Anything, id).Return(nil, pferrors.ErrNotFound)
	h.summarizer.On("Summarize", mock.Anything, sampleTranscript).Return(sampleResult(), nil)
	h.store.On("CompleteTranscript", mock.Anything, mock.Anything).Return(&storage.Summary{ID: uuid.New(), TranscriptID: id}, nil)
	h.writeBack.On("WriteBack", mock.Anything, src, fileNamed(name), id).Return(nil)

	report := h.watcher.ScanOnce(context.Background())
	h.watcher.Wait(context.Background())

	assert.Equal(t, 1, report.Retried)
	h.store.AssertExpectations(t)
	h.store.AssertNotCalled(t, "FindTranscriptByHash", mock.Anything, mock.Anything)
	h.store.AssertNotCalled(t, "CreateTranscript", mock.Anything, mock.Anything)
}

func TestScanOnce_RetryClaimedElsewhere(t *testing.T) {
	name := "Retro_2025-02-01.txt"
	src := localSource(t, map[string]string{name: sampleTranscript})
	h := newHarness(t, src, Config{})

	id := uuid.New()
	h.store.On("FindTranscriptByFilename", mock.Anything, name).
		Return(&storage.Transcript{ID: id, Filename: name, Status: storage.StatusError}, nil)
	h.store.On("ResetTranscriptForRetry", mock.Anything, id, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, pferrors.ErrInvalidState)

	report := h.watcher.ScanOnce(context.Background())
	assert.Equal(t, 1, report.Skipped)
	h.summarizer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
}

func TestScanOnce_ConflictOnCreateIsSkipped(t *testing.T) {
	name := "Sync_2025-02-03.txt"
	src := localSource(t, map[string]string{name: sampleTranscript})
	h := newHarness(t, src, Config{})

	h.store.On("FindTranscriptByFilename", mock.Anything, name).Return(nil, pferrors.ErrNotFound)
	h.store.On("FindTranscriptByHash", mock.Anything, mock.Anything).Return(nil, pferrors.ErrNotFound)
	h.store.On("FindOrCreateMeeting", mock.Anything, uuid.Nil, "Sync", mock.Anything, "").
		Return(&storage.Meeting{ID: uuid.New()}, false, nil)
	h.store.On("CreateTranscript", mock.Anything, mock.Anything).Return(nil, pferrors.ErrConflict)

	report := h.watcher.ScanOnce(context.Background())
	assert.Equal(t, 1, report.Skipped)
	h.summarizer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
}

func TestScanOnce_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"too short", "Short_2025-01-01.txt", "hello there"},
		{"too few words", "Words_2025-01-01.txt", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa bbb"},
		{"corrupt docx", "Broken_2025-01-01.docx", "not a zip archive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := localSource(t, map[string]string{tt.file: tt.content})
			h := newHarness(t, src, Config{})
			h.store.On("FindTranscriptByFilename", mock.Anything, tt.file).Return(nil, pferrors.ErrNotFound).Maybe()

			report := h.watcher.ScanOnce(context.Background())
			assert.Equal(t, 1, report.Rejected)
			h.store.AssertNotCalled(t, "FindTranscriptByHash", mock.Anything, mock.Anything)
			h.store.AssertNotCalled(t, "CreateTranscript", mock.Anything, mock.Anything)
		})
	}
}

func TestScanOnce_UnsupportedLocalFilesAreNotListed(t *testing.T) {
	src := localSource(t, map[string]string{
		"README.md":  "# transcripts",
		"slides.pdf": "%PDF-1.4",
	})
	h := newHarness(t, src, Config{})

	for i := 0; i < 2; i++ {
		report := h.watcher.ScanOnce(context.Background())
		assert.Equal(t, 0, report.Seen)
		assert.Equal(t, 0, report.Rejected)
	}
	h.store.AssertNotCalled(t, "FindTranscriptByFilename", mock.Anything, mock.Anything)
}

func TestScanOnce_UnsupportedListedFileIsRejected(t *testing.T) {
	src := new(mockSource)
	src.On("Kind").Return(source.KindDrive)
	src.On("List", mock.Anything).Return([]source.File{{
		ID:       "file-2",
		Name:     "notes.pdf",
		MimeType: "application/pdf",
		Size:     10,
	}}, nil)
	h := newHarness(t, src, Config{})

	report := h.watcher.ScanOnce(context.Background())
	assert.Equal(t, 1, report.Rejected)
	src.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
}

func TestScanOnce_RetryExtractionFailureRefreshesError(t *testing.T) {
	name := "Broken_2025-01-01.docx"
	src := localSource(t, map[string]string{name: "not a zip archive"})
	h := newHarness(t, src, Config{})

	id := uuid.New()
	h.store.On("FindTranscriptByFilename", mock.Anything, name).
		Return(&storage.Transcript{ID: id, Filename: name, Status: storage.StatusError, ErrorMsg: "old"}, nil)
	h.store.On("MarkTranscriptError", mock.Anything, id, mock.MatchedBy(func(msg string) bool {
		return msg != "" && msg != "old"
	})).Return(nil)

	report := h.watcher.ScanOnce(context.Background())
	assert.Equal(t, 1, report.Rejected)
	h.store.AssertExpectations(t)
	h.store.AssertNotCalled(t, "ResetTranscriptForRetry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	h.summarizer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
}

func TestScanOnce_OversizedDocxNeverReadAcrossCycles(t *testing.T) {
	src := new(mockSource)
	src.On("Kind").Return(source.KindDrive)
	big := source.File{
		ID:       "file-1",
		Name:     "Quarterly review.docx",
		MimeType: extract.MimeDocx,
		Size:     DefaultMaxFileSize + 1,
	}
	src.On("List", mock.Anything).Return([]source.File{big}, nil)

	h := newHarness(t, src, Config{})

	for i := 0; i < 3; i++ {
		report := h.watcher.ScanOnce(context.Background())
		assert.Equal(t, 1, report.Seen)
		assert.Equal(t, 1, report.Rejected)
	}

	src.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
	h.store.AssertNotCalled(t, "FindTranscriptByFilename", mock.Anything, mock.Anything)
	h.store.AssertNotCalled(t, "CreateTranscript", mock.Anything, mock.Anything)
}

func TestScanOnce_SkipsArtifactsAndDuplicateNames(t *testing.T) {
	src := new(mockSource)
	src.On("Kind").Return(source.KindDrive)
	src.On("List", mock.Anything).Return([]source.File{
		{ID: "a", Name: "Standup_summary.txt", MimeType: extract.MimeText},
		{ID: "b", Name: "Standup.txt", MimeType: extract.MimeText},
		{ID: "c", Name: "Standup.txt", MimeType: extract.MimeText},
	}, nil)

	h := newHarness(t, src, Config{})
	h.store.On("FindTranscriptByFilename", mock.Anything, "Standup.txt").
		Return(&storage.Transcript{ID: uuid.New(), Status: storage.StatusDone}, nil).Once()

	report := h.watcher.ScanOnce(context.Background())
	assert.Equal(t, 3, report.Seen)
	assert.Equal(t, 3, report.Skipped)
	h.store.AssertNumberOfCalls(t, "FindTranscriptByFilename", 1)
}

func TestScanOnce_ListFailure(t *testing.T) {
	src := new(mockSource)
	src.On("Kind").Return(source.KindDrive)
	src.On("List", mock.Anything).Return(nil, errors.New("drive unavailable"))

	h := newHarness(t, src, Config{})
	report := h.watcher.ScanOnce(context.Background())

	assert.Zero(t, report.Seen)
	assert.Equal(t, "drive unavailable", report.Error)
}

func TestJob_SummarizeFailureMarksError(t *testing.T) {
	name := "Sync_2025-02-03.txt"
	src := localSource(t, map[string]string{name: sampleTranscript})
	h := newHarness(t, src, Config{})

	id := uuid.New()
	h.store.On("FindTranscriptByFilename", mock.Anything, name).Return(nil, pferrors.ErrNotFound)
	h.store.On("FindTranscriptByHash", mock.Anything, mock.Anything).Return(nil, pferrors.ErrNotFound)
	h.store.On("FindOrCreateMeeting", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&storage.Meeting{ID: uuid.New()}, false, nil)
	h.store.On("CreateTranscript", mock.Anything, mock.Anything).Return(&storage.Transcript{ID: id, Filename: name}, nil)

	apiErr := &pferrors.LLMAPIError{StatusCode: 429, Message: "rate limited"}
	h.summarizer.On("Summarize", mock.Anything, sampleTranscript).Return(nil, apiErr).Once()
	h.store.On("MarkTranscriptError", mock.Anything, id, apiErr.Error()).Return(nil)

	report := h.watcher.ScanOnce(context.Background())
	h.watcher.Wait(context.Background())

	assert.Equal(t, 1, report.Accepted)
	h.store.AssertExpectations(t)
	h.store.AssertNotCalled(t, "CompleteTranscript", mock.Anything, mock.Anything)
	h.store.AssertNotCalled(t, "GetSummaryByTranscriptID", mock.Anything, mock.Anything)
	assert.Equal(t, int64(1), h.watcher.PoolStats().Failed)
}

func TestJob_SummarizeTimeoutMarksError(t *testing.T) {
	name := "Sync_2025-02-03.txt"
	src := localSource(t, map[string]string{name: sampleTranscript})
	h := newHarness(t, src, Config{SummarizeTimeout: 50 * time.Millisecond})

	id := uuid.New()
	h.store.On("FindTranscriptByFilename", mock.Anything, name).Return(nil, pferrors.ErrNotFound)
	h.store.On("FindTranscriptByHash", mock.Anything, mock.Anything).Return(nil, pferrors.ErrNotFound)
	h.store.On("FindOrCreateMeeting", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&storage.Meeting{ID: uuid.New()}, false, nil)
	h.store.On("CreateTranscript", mock.Anything, mock.Anything).Return(&storage.Transcript{ID: id, Filename: name}, nil)

	h.summarizer.On("Summarize", mock.Anything, sampleTranscript).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded).Once()
	h.store.On("MarkTranscriptError", mock.Anything, id, context.DeadlineExceeded.Error()).Return(nil)

	start := time.Now()
	report := h.watcher.ScanOnce(context.Background())
	h.watcher.Wait(context.Background())

	assert.Equal(t, 1, report.Accepted)
	assert.Less(t, time.Since(start), 3*time.Second)
	h.store.AssertExpectations(t)
	h.store.AssertNotCalled(t, "CompleteTranscript", mock.Anything, mock.Anything)
}

func TestJob_FailedCompletionRetriesUntilDone(t *testing.T) {
	name := "Sync_2025-02-03.txt"
	src := localSource(t, map[string]string{name: sampleTranscript})
	h := newHarness(t, src, Config{})

	id := uuid.New()
	errorRow := &storage.Transcript{ID: id, Filename: name, Status: storage.StatusError, ErrorMsg: "connection reset"}
	doneRow := &storage.Transcript{ID: id, Filename: name, Status: storage.StatusDone}

	// Cycle 1 records the transcript, cycle 2 retries it, cycles 3 and 4 see it done.
	h.store.On("FindTranscriptByFilename", mock.Anything, name).Return(nil, pferrors.ErrNotFound).Once()
	h.store.On("FindTranscriptByFilename", mock.Anything, name).Return(errorRow, nil).Once()
	h.store.On("FindTranscriptByFilename", mock.Anything, name).Return(doneRow, nil).Twice()
	h.store.On("FindTranscriptByHash", mock.Anything, mock.Anything).Return(nil, pferrors.ErrNotFound).Once()
	h.store.On("FindOrCreateMeeting", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&storage.Meeting{ID: uuid.New()}, false, nil).Once()
	h.store.On("CreateTranscript", mock.Anything, mock.Anything).
		Return(&storage.Transcript{ID: id, Filename: name, Status: storage.StatusProcess}, nil).Once()
	h.store.On("ResetTranscriptForRetry", mock.Anything, id, sampleTranscript, mock.Anything, mock.Anything).
		Return(&storage.Transcript{ID: id, Filename: name, Status: storage.StatusProcess}, nil).Once()
	h.store.On("GetSummaryByTranscriptID", mock.Anything, id).Return(nil, pferrors.ErrNotFound).Once()

	h.summarizer.On("Summarize", mock.Anything, sampleTranscript).Return(sampleResult(), nil).Twice()
	h.store.On("CompleteTranscript", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()
	h.store.On("MarkTranscriptError", mock.Anything, id, "connection reset").Return(nil).Once()
	h.store.On("CompleteTranscript", mock.Anything, mock.Anything).Return(&storage.Summary{ID: uuid.New(), TranscriptID: id}, nil).Once()
	h.writeBack.On("WriteBack", mock.Anything, src, fileNamed(name), id).Return(nil).Once()

	var reports []ScanReport
	for i := 0; i < 4; i++ {
		reports = append(reports, h.watcher.ScanOnce(context.Background()))
		h.watcher.Wait(context.Background())
	}

	assert.Equal(t, 1, reports[0].Accepted)
	assert.Equal(t, 1, reports[1].Retried)
	assert.Equal(t, 1, reports[2].Skipped)
	assert.Equal(t, 1, reports[3].Skipped)

	h.store.AssertExpectations(t)
	h.summarizer.AssertExpectations(t)
	h.writeBack.AssertExpectations(t)
	h.summarizer.AssertNumberOfCalls(t, "Summarize", 2)
	h.store.AssertNumberOfCalls(t, "MarkTranscriptError", 1)
}

func TestJob_RetryReusesStoredSummary(t *testing.T) {
	name := "Sync_2025-02-03.txt"
	src := localSource(t, map[string]string{name: sampleTranscript})
	h := newHarness(t, src, Config{})

	id := uuid.New()
	summaryID := uuid.New()
	stored := &storage.Summary{ID: summaryID, TranscriptID: id, SummaryContent: *sampleResult()}

	h.store.On("FindTranscriptByFilename", mock.Anything, name).
		Return(&storage.Transcript{ID: id, Filename: name, Status: storage.StatusError, ErrorMsg: "connection reset"}, nil)
	h.store.On("ResetTranscriptForRetry", mock.Anything, id, sampleTranscript, mock.Anything, mock.Anything).
		Return(&storage.Transcript{ID: id, Filename: name, Status: storage.StatusProcess}, nil)
	h.store.On("GetSummaryByTranscriptID", mock.Anything, id).Return(stored, nil)
	h.store.On("CompleteTranscript", mock.Anything, mock.MatchedBy(func(ns storage.NewSummary) bool {
		return ns.TranscriptID == id && assert.ObjectsAreEqual(stored.SummaryContent, ns.SummaryContent)
	})).Return(stored, nil).Once()
	h.writeBack.On("WriteBack", mock.Anything, src, fileNamed(name), id).Return(nil).Once()

	report := h.watcher.ScanOnce(context.Background())
	h.watcher.Wait(context.Background())

	assert.Equal(t, 1, report.Retried)
	h.store.AssertExpectations(t)
	h.writeBack.AssertExpectations(t)
	h.summarizer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
	h.store.AssertNotCalled(t, "MarkTranscriptError", mock.Anything, mock.Anything, mock.Anything)
}

func TestJob_StoredSummaryLookupFailureMarksError(t *testing.T) {
	name := "Sync_2025-02-03.txt"
	src := localSource(t, map[string]string{name: sampleTranscript})
	h := newHarness(t, src, Config{})

	id := uuid.New()
	h.store.On("FindTranscriptByFilename", mock.Anything, name).
		Return(&storage.Transcript{ID: id, Filename: name, Status: storage.StatusError}, nil)
	h.store.On("ResetTranscriptForRetry", mock.Anything, id, sampleTranscript, mock.Anything, mock.Anything).
		Return(&storage.Transcript{ID: id, Filename: name, Status: storage.StatusProcess}, nil)
	h.store.On("GetSummaryByTranscriptID", mock.Anything, id).Return(nil, errors.New("connection refused"))
	h.store.On("MarkTranscriptError", mock.Anything, id, "connection refused").Return(nil).Once()

	h.watcher.ScanOnce(context.Background())
	h.watcher.Wait(context.Background())

	h.store.AssertExpectations(t)
	h.summarizer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
	h.store.AssertNotCalled(t, "CompleteTranscript", mock.Anything, mock.Anything)
}

func TestJob_WriteBackFailureLeavesTranscriptDone(t *testing.T) {
	name := "Sync_2025-02-03.txt"
	src := localSource(t, map[string]string{name: sampleTranscript})
	h := newHarness(t, src, Config{})

	id := uuid.New()
	h.store.On("FindTranscriptByFilename", mock.Anything, name).Return(nil, pferrors.ErrNotFound)
	h.store.On("FindTranscriptByHash", mock.Anything, mock.Anything).Return(nil, pferrors.ErrNotFound)
	h.store.On("FindOrCreateMeeting", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&storage.Meeting{ID: uuid.New()}, false, nil)
	h.store.On("CreateTranscript", mock.Anything, mock.Anything).Return(&storage.Transcript{ID: id, Filename: name}, nil)
	h.summarizer.On("Summarize", mock.Anything, sampleTranscript).Return(sampleResult(), nil)
	h.store.On("CompleteTranscript", mock.Anything, mock.Anything).Return(&storage.Summary{ID: uuid.New(), TranscriptID: id}, nil)
	h.writeBack.On("WriteBack", mock.Anything, src, fileNamed(name), id).
		Return(&pferrors.WriteBackError{Name: name, Cause: errors.New("permission denied")})

	h.watcher.ScanOnce(context.Background())
	h.watcher.Wait(context.Background())

	h.store.AssertExpectations(t)
	h.store.AssertNotCalled(t, "MarkTranscriptError", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, int64(1), h.watcher.PoolStats().Processed)
}

func TestStop_MarksAbandonedJobsAsError(t *testing.T) {
	name := "Sync_2025-02-03.txt"
	src := localSource(t, map[string]string{name: sampleTranscript})
	h := newHarness(t, src, Config{ShutdownTimeout: 50 * time.Millisecond})

	id := uuid.New()
	h.store.On("FindTranscriptByFilename", mock.Anything, name).Return(nil, pferrors.ErrNotFound)
	h.store.On("FindTranscriptByHash", mock.Anything, mock.Anything).Return(nil, pferrors.ErrNotFound)
	h.store.On("FindOrCreateMeeting", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&storage.Meeting{ID: uuid.New()}, false, nil)
	h.store.On("CreateTranscript", mock.Anything, mock.Anything).Return(&storage.Transcript{ID: id, Filename: name}, nil)

	h.summarizer.On("Summarize", mock.Anything, sampleTranscript).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.Canceled).Maybe()

	var marked context.Context
	h.store.On("MarkTranscriptError", mock.Anything, id, ShutdownMessage).
		Run(func(args mock.Arguments) { marked = args.Get(0).(context.Context) }).
		Return(nil).Once()

	report := h.watcher.ScanOnce(context.Background())
	require.Equal(t, 1, report.Accepted)

	require.NoError(t, h.watcher.Stop(context.Background()))

	h.store.AssertExpectations(t)
	require.NotNil(t, marked)
	assert.NoError(t, marked.Err(), "error status must be written on a live context")
	h.store.AssertNotCalled(t, "CompleteTranscript", mock.Anything, mock.Anything)
}

func TestStart_ScansImmediatelyAndStops(t *testing.T) {
	src := new(mockSource)
	src.On("Kind").Return(source.KindLocal)
	listed := make(chan struct{}, 1)
	src.On("List", mock.Anything).Run(func(mock.Arguments) {
		select {
		case listed <- struct{}{}:
		default:
		}
	}).Return([]source.File{}, nil)

	h := newHarness(t, src, Config{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.watcher.Start(ctx))
	assert.Error(t, h.watcher.Start(ctx))

	select {
	case <-listed:
	case <-time.After(time.Second):
		t.Fatal("expected an immediate scan")
	}

	require.NoError(t, h.watcher.Stop(context.Background()))
	require.NoError(t, h.watcher.Stop(context.Background()))
}

func TestTryScan_SkipsWhileRunning(t *testing.T) {
	src := new(mockSource)
	src.On("Kind").Return(source.KindLocal)
	release := make(chan struct{})
	src.On("List", mock.Anything).Run(func(mock.Arguments) { <-release }).Return([]source.File{}, nil)

	h := newHarness(t, src, Config{})
	ctx := context.Background()

	h.watcher.tryScan(ctx)
	assert.Eventually(t, h.watcher.scanning.Load, time.Second, 5*time.Millisecond)
	h.watcher.tryScan(ctx)
	h.watcher.tryScan(ctx)

	close(release)
	h.watcher.scans.Wait()
	src.AssertNumberOfCalls(t, "List", 1)
}
