package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetsum/config"
	"github.com/otherjamesbrown/meetsum/credentials"
	"github.com/otherjamesbrown/meetsum/pkg/api"
	"github.com/otherjamesbrown/meetsum/pkg/db"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/events"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/extract"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/source"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/storage"
	"github.com/otherjamesbrown/meetsum/pkg/logging"
	"github.com/otherjamesbrown/meetsum/pkg/observability"
	"github.com/otherjamesbrown/meetsum/pkg/summarize"
	"github.com/otherjamesbrown/meetsum/pkg/watcher"
	"github.com/otherjamesbrown/meetsum/pkg/writeback"
)

// Watch command flags
var (
	watchServeAPI bool
)

// WatchCommandDeps holds dependencies for the watch and scan commands.
type WatchCommandDeps struct {
	Config     *config.Config
	LoadConfig func() (*config.Config, error)
	KeyStore   config.KeyStore
}

// DefaultWatchDeps returns default dependencies for production use.
func DefaultWatchDeps() *WatchCommandDeps {
	return &WatchCommandDeps{
		LoadConfig: LoadConfig,
		KeyStore:   credentials.NewStore(),
	}
}

// NewWatchCommand creates the long-running watch command.
func NewWatchCommand(deps *WatchCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultWatchDeps()
	}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the transcript folder and summarize new transcripts",
		Long: `Watch the configured transcript location and summarize new transcripts.

Every watch.interval the folder is listed. New transcripts are recorded,
summarized by the configured LLM provider, and the summary is written back to
the source (appended to text files, or as a sibling file for Google Docs and
.docx). A scan that is still running when the next tick fires is skipped.

On SIGINT or SIGTERM the watcher stops listing, waits up to
watch.shutdown_timeout for in-flight summaries, and marks anything abandoned
as error so the next start retries it.

The source is chosen by watch.source:
  local   watch.directory on the local filesystem
  drive   watch.drive_folder_id in Google Drive

Examples:
  # Watch with the configured source
  meetsum watch

  # Also serve the read API and /metrics from the same process
  meetsum watch --api

  # Debug logging
  meetsum watch --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), deps)
		},
	}

	cmd.Flags().BoolVar(&watchServeAPI, "api", false, "Also serve the read API and /metrics on api.addr")

	return cmd
}

// NewScanCommand creates the single-cycle scan command.
func NewScanCommand(deps *WatchCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultWatchDeps()
	}

	return &cobra.Command{
		Use:   "scan",
		Short: "Run one scan cycle and wait for its summaries",
		Long: `Run a single scan cycle, wait for every summary it started, and print the
scan report.

The report counts each listed file by outcome:
  accepted   new transcript recorded and queued for summarization
  retried    transcript in error was reset and queued again
  skipped    already recorded, duplicate content, or a summary artifact
  rejected   unsupported, invalid name, too large, or not a transcript
  failed     the file could not be read or recorded

Examples:
  meetsum scan
  meetsum scan --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), deps, cmd.OutOrStdout())
		},
	}
}

// runtime is everything the watch and scan commands construct.
type runtime struct {
	watcher *watcher.Watcher
	repo    *storage.Repository
	pool    *pgxpool.Pool
	events  *events.Publisher
}

func (r *runtime) Close() {
	if r.events != nil {
		_ = r.events.Close()
	}
	db.Close(r.pool)
}

// buildRuntime constructs the watcher and its collaborators in order. Any
// failure here is fatal to the command.
func buildRuntime(ctx context.Context, cfg *config.Config, keys config.KeyStore, logger logging.Logger) (*runtime, error) {
	if err := cfg.ValidateSource(); err != nil {
		return nil, fmt.Errorf("invalid watch source: %w", err)
	}
	apiKey, origin, err := cfg.ResolveAPIKey(keys)
	if err != nil {
		return nil, err
	}
	logger.Debug("Resolved LLM API key", logging.F("origin", origin))

	rt := &runtime{}
	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	pool, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	rt.pool = pool
	rt.repo = storage.NewRepository(pool, logger)

	var src source.Source
	switch cfg.Watch.Source {
	case config.SourceDrive:
		src, err = source.NewDriveSource(ctx, cfg.DriveConfig(), logger)
	default:
		src, err = source.NewLocalSource(cfg.Watch.Directory)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s source: %w", cfg.Watch.Source, err)
	}

	summarizer, err := summarize.New(ctx, cfg.SummarizerConfig(apiKey), logger)
	if err != nil {
		return nil, fmt.Errorf("creating summarizer: %w", err)
	}

	var publisher watcher.EventPublisher
	if cfg.Redis.Enabled {
		rt.events, err = events.NewPublisherFromConfig(ctx, cfg.PublisherConfig(), logger)
		if err != nil {
			return nil, fmt.Errorf("connecting event publisher: %w", err)
		}
		publisher = rt.events
	}

	extractor := extract.New(logger)
	w, err := watcher.New(watcher.Deps{
		Store:      rt.repo,
		Source:     src,
		Summarizer: summarizer,
		Extractor:  extractor,
		WriteBack:  writeback.NewWriter(rt.repo, extractor, logger),
		Publisher:  publisher,
		Metrics:    observability.DefaultMetrics(),
		Tracer:     observability.NewTracer(),
		Logger:     logger,
	}, cfg.WatcherConfig())
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	rt.watcher = w

	ok = true
	return rt, nil
}

// runWatch executes the watch command.
func runWatch(ctx context.Context, deps *WatchCommandDeps) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	deps.Config = cfg
	logger := NewLogger(cfg)

	rt, err := buildRuntime(ctx, cfg, deps.KeyStore, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.watcher.Start(ctx); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	apiDone := make(chan error, 1)
	if watchServeAPI {
		health := func(ctx context.Context) *db.HealthStatus {
			return db.Check(ctx, rt.pool)
		}
		server := api.NewServer(cfg.APIConfig(), rt.repo, health, prometheus.DefaultGatherer, logger)
		go func() { apiDone <- server.Run(ctx) }()
	} else {
		close(apiDone)
	}

	logger.Info("Watching for transcripts",
		logging.F("source", cfg.Watch.Source),
		logging.F("interval", cfg.Watch.Interval),
		logging.F("workers", cfg.Watch.Workers))

	<-ctx.Done()
	logger.Info("Shutting down watcher", logging.F("timeout", cfg.Watch.ShutdownTimeout))

	stopErr := rt.watcher.Stop(context.WithoutCancel(ctx))
	if err := <-apiDone; err != nil {
		logger.Error("API server failed", logging.Err(err))
	}
	if stopErr != nil {
		return fmt.Errorf("stopping watcher: %w", stopErr)
	}
	return nil
}

// runScan executes the scan command.
func runScan(ctx context.Context, deps *WatchCommandDeps, out io.Writer) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	deps.Config = cfg
	logger := NewLogger(cfg)

	rt, err := buildRuntime(ctx, cfg, deps.KeyStore, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	report := rt.watcher.ScanOnce(ctx)
	rt.watcher.Wait(ctx)

	if err := WriteOutput(out, cfg.OutputFormat, report, func(w io.Writer) error {
		return outputScanReportText(w, report)
	}); err != nil {
		return err
	}
	if report.Error != "" {
		return fmt.Errorf("scan failed: %s", report.Error)
	}
	return nil
}

// outputScanReportText formats a scan report for terminal display.
func outputScanReportText(w io.Writer, r watcher.ScanReport) error {
	fmt.Fprintf(w, "Scan %s (%s)\n", r.ScanID, r.SourceKind)
	fmt.Fprintf(w, "  Duration:  %s\n", r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "  Seen:      %d\n", r.Seen)
	fmt.Fprintf(w, "  Accepted:  %d\n", r.Accepted)
	fmt.Fprintf(w, "  Retried:   %d\n", r.Retried)
	fmt.Fprintf(w, "  Skipped:   %d\n", r.Skipped)
	fmt.Fprintf(w, "  Rejected:  %d\n", r.Rejected)
	fmt.Fprintf(w, "  Failed:    %d\n", r.Failed)
	if r.Error != "" {
		fmt.Fprintf(w, "  Error:     %s\n", r.Error)
	}
	return nil
}
