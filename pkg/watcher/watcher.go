// Package watcher polls a transcript source, gates new files against the
// ledger and hands accepted transcripts to a bounded pool of summarization
// workers.
package watcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/otherjamesbrown/meetsum/pkg/ingest/events"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/extract"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/meeting"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/source"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/storage"
	"github.com/otherjamesbrown/meetsum/pkg/logging"
	"github.com/otherjamesbrown/meetsum/pkg/observability"
	"github.com/otherjamesbrown/meetsum/pkg/summarize"
)

// Defaults for Config.
const (
	DefaultInterval        = 10 * time.Minute
	DefaultMaxFileSize     = 10 * 1024 * 1024
	DefaultWorkers         = 4
	DefaultQueueSize       = 64
	DefaultShutdownTimeout = 2 * time.Minute
)

// ShutdownMessage is recorded on transcripts abandoned by a shutdown.
const ShutdownMessage = "shutdown before summarization completed"

// Store is the ledger the watcher gates and records against.
type Store interface {
	FindTranscriptByFilename(ctx context.Context, filename string) (*storage.Transcript, error)
	FindTranscriptByHash(ctx context.Context, hash string) (*storage.Transcript, error)
	FindOrCreateMeeting(ctx context.Context, ownerID uuid.UUID, title string, date time.Time, clock string) (*storage.Meeting, bool, error)
	CreateTranscript(ctx context.Context, nt storage.NewTranscript) (*storage.Transcript, error)
	ResetTranscriptForRetry(ctx context.Context, id uuid.UUID, content, hash string, meta storage.TranscriptMeta) (*storage.Transcript, error)
	MarkTranscriptError(ctx context.Context, id uuid.UUID, msg string) error
	// CompleteTranscript stores the summary and marks the transcript done
	// atomically, keeping a summary that is already stored.
	CompleteTranscript(ctx context.Context, ns storage.NewSummary) (*storage.Summary, error)
	GetSummaryByTranscriptID(ctx context.Context, transcriptID uuid.UUID) (*storage.Summary, error)
}

// WriteBacker appends a stored summary to its source file.
type WriteBacker interface {
	WriteBack(ctx context.Context, src source.Source, f source.File, transcriptID uuid.UUID) error
}

// EventPublisher receives pipeline events. Publishing is best effort.
type EventPublisher interface {
	PublishTranscriptAccepted(ctx context.Context, params events.TranscriptAcceptedParams) error
	PublishTranscriptSummarized(ctx context.Context, params events.TranscriptSummarizedParams) error
	PublishTranscriptFailed(ctx context.Context, params events.TranscriptFailedParams) error
	PublishScanCompleted(ctx context.Context, params events.ScanCompletedParams) error
}

type nopPublisher struct{}

func (nopPublisher) PublishTranscriptAccepted(context.Context, events.TranscriptAcceptedParams) error {
	return nil
}
func (nopPublisher) PublishTranscriptSummarized(context.Context, events.TranscriptSummarizedParams) error {
	return nil
}
func (nopPublisher) PublishTranscriptFailed(context.Context, events.TranscriptFailedParams) error {
	return nil
}
func (nopPublisher) PublishScanCompleted(context.Context, events.ScanCompletedParams) error {
	return nil
}

// Deps are the collaborators of a Watcher. Store, Source, Summarizer and
// WriteBack are required.
type Deps struct {
	Store      Store
	Source     source.Source
	Summarizer summarize.Summarizer
	Extractor  *extract.Extractor
	WriteBack  WriteBacker
	Publisher  EventPublisher
	Metrics    *observability.Metrics
	Tracer     *observability.Tracer
	Logger     logging.Logger
}

// Config tunes a Watcher.
type Config struct {
	Interval        time.Duration
	MaxFileSize     int64
	Workers         int
	QueueSize       int
	ShutdownTimeout time.Duration

	// OwnerID is the automation identity that owns created meetings.
	OwnerID uuid.UUID

	// TimezoneOffset is the display zone for filename timestamps and the
	// fallback meeting date.
	TimezoneOffset time.Duration

	// Provider labels LLM metrics and spans.
	Provider string

	// SummarizeTimeout bounds each summarization attempt.
	SummarizeTimeout time.Duration

	// MaxRetries is passed to summarize.WithRetry.
	MaxRetries int

	// RetrySleep replaces the backoff sleep. Nil uses a real timer.
	RetrySleep summarize.SleepFunc

	// Now replaces the wall clock.
	Now func() time.Time
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		Interval:         DefaultInterval,
		MaxFileSize:      DefaultMaxFileSize,
		Workers:          DefaultWorkers,
		QueueSize:        DefaultQueueSize,
		ShutdownTimeout:  DefaultShutdownTimeout,
		OwnerID:          storage.SystemOwnerID,
		TimezoneOffset:   meeting.TargetOffset,
		Provider:         summarize.ProviderOpenRouter,
		SummarizeTimeout: summarize.DefaultTimeout,
		MaxRetries:       summarize.DefaultMaxRetries,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = d.MaxFileSize
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.QueueSize < 0 {
		c.QueueSize = d.QueueSize
	}
	if c.ShutdownTimeout < 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.Provider == "" {
		c.Provider = d.Provider
	}
	if c.SummarizeTimeout <= 0 {
		c.SummarizeTimeout = d.SummarizeTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Outcome is the result of handling one listed file in a scan.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRetried  Outcome = "retried"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

// ScanReport counts the outcomes of one scan.
type ScanReport struct {
	ScanID      string    `json:"scan_id" yaml:"scan_id"`
	SourceKind  string    `json:"source_kind" yaml:"source_kind"`
	Seen        int       `json:"seen" yaml:"seen"`
	Accepted    int       `json:"accepted" yaml:"accepted"`
	Retried     int       `json:"retried" yaml:"retried"`
	Skipped     int       `json:"skipped" yaml:"skipped"`
	Rejected    int       `json:"rejected" yaml:"rejected"`
	Failed      int       `json:"failed" yaml:"failed"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
}

func (r *ScanReport) add(o Outcome) {
	switch o {
	case OutcomeAccepted:
		r.Accepted++
	case OutcomeRetried:
		r.Retried++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeRejected:
		r.Rejected++
	case OutcomeFailed:
		r.Failed++
	}
}

// Watcher runs scan cycles against one source.
type Watcher struct {
	store      Store
	src        source.Source
	summarizer summarize.Summarizer
	extractor  *extract.Extractor
	writeBack  WriteBacker
	publisher  EventPublisher
	metrics    *observability.Metrics
	tracer     *observability.Tracer
	logger     logging.Logger
	config     Config

	pool *Pool

	scanning atomic.Bool
	scans    sync.WaitGroup

	mu       sync.Mutex
	started  bool
	cancel   context.CancelFunc
	loopDone chan struct{}
	stopOnce sync.Once
}

// New creates a Watcher and starts its worker pool.
func New(deps Deps, cfg Config) (*Watcher, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("watcher requires a store")
	}
	if deps.Source == nil {
		return nil, fmt.Errorf("watcher requires a source")
	}
	if deps.Summarizer == nil {
		return nil, fmt.Errorf("watcher requires a summarizer")
	}
	if deps.WriteBack == nil {
		return nil, fmt.Errorf("watcher requires a write-back writer")
	}

	cfg = cfg.withDefaults()

	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.With(logging.F("component", "watcher"), logging.F("source", deps.Source.Kind()))

	extractor := deps.Extractor
	if extractor == nil {
		extractor = extract.New(logger)
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = nopPublisher{}
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = observability.NewTracer()
	}

	retryOpts := []summarize.RetryOption{summarize.WithRetryLogger(logger)}
	if cfg.RetrySleep != nil {
		retryOpts = append(retryOpts, summarize.WithSleep(cfg.RetrySleep))
	}

	w := &Watcher{
		store:      deps.Store,
		src:        deps.Source,
		summarizer: summarize.WithRetry(summarize.WithTimeout(deps.Summarizer, cfg.SummarizeTimeout), cfg.MaxRetries, retryOpts...),
		extractor:  extractor,
		writeBack:  deps.WriteBack,
		publisher:  publisher,
		metrics:    metrics,
		tracer:     tracer,
		logger:     logger,
		config:     cfg,
	}
	w.pool = NewPool(PoolConfig{
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
		OnStart:   metrics.JobStarted,
		OnFinish:  metrics.JobFinished,
	}, logger)
	return w, nil
}

// Start runs one scan immediately and then one per interval until ctx is
// cancelled or Stop is called. It returns without waiting.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("watcher already started")
	}
	w.started = true

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.loopDone = make(chan struct{})

	w.logger.Info("Watcher started",
		logging.F("interval", w.config.Interval),
		logging.F("workers", w.config.Workers),
		logging.F("max_file_size", w.config.MaxFileSize))

	go w.loop(runCtx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.loopDone)

	w.tryScan(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tryScan(ctx)
		}
	}
}

// tryScan starts a scan unless one is already running.
func (w *Watcher) tryScan(ctx context.Context) {
	if !w.scanning.CompareAndSwap(false, true) {
		w.logger.Debug("Scan still running, skipping tick")
		return
	}
	w.scans.Add(1)
	go func() {
		defer w.scans.Done()
		defer w.scanning.Store(false)
		w.ScanOnce(ctx)
	}()
}

// Stop stops scheduling scans and drains the worker pool for up to the
// shutdown timeout. Jobs still running afterwards are cancelled and their
// transcripts marked error. It is safe to call Stop without Start.
func (w *Watcher) Stop(ctx context.Context) error {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		cancel, loopDone := w.cancel, w.loopDone
		w.mu.Unlock()

		if cancel != nil {
			cancel()
			<-loopDone
		}
		w.scans.Wait()

		stats := w.pool.Stats()
		w.logger.Info("Draining summarization jobs",
			logging.F("in_flight", stats.InFlight),
			logging.F("queued", stats.Queued),
			logging.F("timeout", w.config.ShutdownTimeout))

		drainCtx, drainCancel := drainContext(ctx, w.config.ShutdownTimeout)
		defer drainCancel()
		if !w.pool.Drain(drainCtx) {
			w.logger.Warn("Shutdown timeout reached, abandoned summarizations marked as error")
		}

		stats = w.pool.Stats()
		w.logger.Info("Watcher stopped",
			logging.F("processed", stats.Processed),
			logging.F("failed", stats.Failed))
	})
	return nil
}

// Wait drains the pool without a deadline. The scan command uses it to
// finish the jobs of a single cycle.
func (w *Watcher) Wait(ctx context.Context) {
	w.stopOnce.Do(func() {
		w.pool.Drain(context.WithoutCancel(ctx))
	})
}

// PoolStats reports the worker pool counters.
func (w *Watcher) PoolStats() PoolStats {
	return w.pool.Stats()
}

// ScanOnce runs one discovery and gating cycle. Accepted transcripts are
// queued for summarization; ScanOnce does not wait for them.
func (w *Watcher) ScanOnce(ctx context.Context) ScanReport {
	scanID := uuid.New().String()
	ctx = logging.ContextWith(ctx, logging.ScanIDKey, scanID)
	ctx, span := w.tracer.StartScanSpan(ctx, scanID, w.src.Kind())
	defer span.End()
	helper := observability.NewSpanHelper(span)
	logger := w.logger.WithContext(ctx)

	report := ScanReport{
		ScanID:     scanID,
		SourceKind: w.src.Kind(),
		StartedAt:  w.config.Now(),
	}
	start := time.Now()

	defer func() {
		report.CompletedAt = w.config.Now()
		w.metrics.RecordScan(time.Since(start).Seconds())
		helper.SetFilesSeen(report.Seen)

		logger.Info("Scan completed",
			logging.F("seen", report.Seen),
			logging.F("accepted", report.Accepted),
			logging.F("retried", report.Retried),
			logging.F("skipped", report.Skipped),
			logging.F("rejected", report.Rejected),
			logging.F("failed", report.Failed))

		w.publish(ctx, "scan.completed", w.publisher.PublishScanCompleted(context.WithoutCancel(ctx), events.ScanCompletedParams{
			ScanID:      report.ScanID,
			SourceKind:  report.SourceKind,
			Seen:        report.Seen,
			Accepted:    report.Accepted,
			Retried:     report.Retried,
			Skipped:     report.Skipped,
			Rejected:    report.Rejected,
			Failed:      report.Failed,
			StartedAt:   report.StartedAt,
			CompletedAt: report.CompletedAt,
		}))
	}()

	files, err := w.src.List(ctx)
	if err != nil {
		logger.Error("Failed to list source", logging.Err(err))
		helper.SetError(err, "discover", true)
		report.Error = err.Error()
		return report
	}

	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		if ctx.Err() != nil {
			logger.Info("Scan interrupted", logging.F("remaining", len(files)-report.Seen))
			break
		}
		report.Seen++
		if _, dup := seen[f.Name]; dup {
			report.add(OutcomeSkipped)
			w.metrics.RecordFile(string(OutcomeSkipped))
			continue
		}
		seen[f.Name] = struct{}{}

		outcome := w.processFile(ctx, f)
		report.add(outcome)
		w.metrics.RecordFile(string(outcome))
	}

	helper.SetSuccess()
	return report
}

func (w *Watcher) publish(ctx context.Context, event string, err error) {
	if err != nil {
		w.logger.WithContext(ctx).Debug("Failed to publish event",
			logging.F("event", event), logging.Err(err))
	}
}
