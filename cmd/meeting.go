package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetsum/config"
	"github.com/otherjamesbrown/meetsum/pkg/api"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/meeting"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/storage"
	"github.com/otherjamesbrown/meetsum/pkg/logging"
)

// Meeting command flags
var (
	meetingPage   int
	meetingLimit  int
	meetingSeries bool
)

// ReaderCommandDeps holds dependencies for the read-only meeting and
// transcript commands.
type ReaderCommandDeps struct {
	Config     *config.Config
	LoadConfig func() (*config.Config, error)
	OpenReader func(context.Context, *config.Config, logging.Logger) (api.Reader, func(), error)
	Now        func() time.Time
}

// DefaultReaderDeps returns default dependencies for production use.
func DefaultReaderDeps() *ReaderCommandDeps {
	return &ReaderCommandDeps{
		LoadConfig: LoadConfig,
		OpenReader: openReader,
		Now:        time.Now,
	}
}

// withReader loads config, opens the reader and runs fn.
func (d *ReaderCommandDeps) withReader(ctx context.Context, fn func(*config.Config, api.Reader) error) error {
	cfg, err := d.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	d.Config = cfg

	reader, closeFn, err := d.OpenReader(ctx, cfg, NewLogger(cfg))
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(cfg, reader)
}

// NewMeetingCommand creates the root meeting command with all subcommands.
func NewMeetingCommand(deps *ReaderCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultReaderDeps()
	}

	cmd := &cobra.Command{
		Use:   "meeting",
		Short: "Browse meetings",
		Long: `Browse meetings recorded by the watcher.

A meeting groups every transcript whose filename carries the same title.
Its status is the status of its most recent transcript.

Examples:
  # List meetings, most recent first
  meetsum meeting list

  # Meetings held today in the configured timezone
  meetsum meeting today

  # Transcripts of one meeting
  meetsum meeting transcripts 6f1c2b3a-1d2e-4f5a-8b9c-0d1e2f3a4b5c`,
		Aliases: []string{"meetings"},
	}

	cmd.AddCommand(newMeetingListCommand(deps))
	cmd.AddCommand(newMeetingTodayCommand(deps))
	cmd.AddCommand(newMeetingTranscriptsCommand(deps))

	return cmd
}

// newMeetingListCommand creates the 'meeting list' subcommand.
func newMeetingListCommand(deps *ReaderCommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List meetings",
		Long: `List meetings in reverse chronological order (most recent first).

Examples:
  meetsum meeting list
  meetsum meeting list --page 2 --limit 20
  meetsum meeting list -o json`,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withReader(cmd.Context(), func(cfg *config.Config, r api.Reader) error {
				page, err := r.ListMeetings(cmd.Context(), meetingPage, meetingLimit)
				if err != nil {
					return fmt.Errorf("listing meetings: %w", err)
				}
				return WriteOutput(cmd.OutOrStdout(), cfg.OutputFormat, page, func(w io.Writer) error {
					outputMeetingsText(w, page.Data)
					fmt.Fprintf(w, "\nPage %d of %d (%d meetings)\n", page.Meta.Page, page.Meta.TotalPages, page.Meta.TotalCount)
					return nil
				})
			})
		},
	}

	cmd.Flags().IntVar(&meetingPage, "page", 1, "Page number")
	cmd.Flags().IntVarP(&meetingLimit, "limit", "l", storage.DefaultPageSize, "Meetings per page (max 100)")

	return cmd
}

// newMeetingTodayCommand creates the 'meeting today' subcommand.
func newMeetingTodayCommand(deps *ReaderCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "List today's meetings",
		Long: `List meetings dated today. "Today" is the calendar day in the zone set by
watch.timezone_offset.

Examples:
  meetsum meeting today
  meetsum meeting today -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withReader(cmd.Context(), func(cfg *config.Config, r api.Reader) error {
				day := meeting.TodayIn(deps.Now(), cfg.Watch.TimezoneOffset)
				items, err := r.TodaysMeetings(cmd.Context(), day)
				if err != nil {
					return fmt.Errorf("listing today's meetings: %w", err)
				}
				if items == nil {
					items = []storage.MeetingListItem{}
				}
				result := struct {
					Date string                    `json:"date" yaml:"date"`
					Data []storage.MeetingListItem `json:"data" yaml:"data"`
				}{day.Format(time.DateOnly), items}
				return WriteOutput(cmd.OutOrStdout(), cfg.OutputFormat, result, func(w io.Writer) error {
					fmt.Fprintf(w, "Meetings on %s\n\n", result.Date)
					outputMeetingsText(w, items)
					return nil
				})
			})
		},
	}
}

// newMeetingTranscriptsCommand creates the 'meeting transcripts' subcommand.
func newMeetingTranscriptsCommand(deps *ReaderCommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcripts <meeting-id>",
		Short: "List a meeting's transcripts",
		Long: `List the transcripts of one meeting, newest first.

With --series, list every transcript of every meeting that shares the
meeting's normalized title.

Examples:
  meetsum meeting transcripts 6f1c2b3a-1d2e-4f5a-8b9c-0d1e2f3a4b5c
  meetsum meeting transcripts 6f1c2b3a-1d2e-4f5a-8b9c-0d1e2f3a4b5c --series`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid meeting ID %q: %w", args[0], err)
			}
			return deps.withReader(cmd.Context(), func(cfg *config.Config, r api.Reader) error {
				var items []storage.TranscriptListItem
				if meetingSeries {
					items, err = r.SeriesTranscripts(cmd.Context(), id)
				} else {
					items, err = r.MeetingTranscripts(cmd.Context(), id)
				}
				if err != nil {
					return fmt.Errorf("listing transcripts: %w", err)
				}
				if items == nil {
					items = []storage.TranscriptListItem{}
				}
				return WriteOutput(cmd.OutOrStdout(), cfg.OutputFormat, items, func(w io.Writer) error {
					outputTranscriptsText(w, items)
					return nil
				})
			})
		},
	}

	cmd.Flags().BoolVar(&meetingSeries, "series", false, "Include every meeting with the same title")

	return cmd
}

func outputMeetingsText(w io.Writer, items []storage.MeetingListItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No meetings found.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-10s  %-8s  %s\n", "ID", "DATE", "STATUS", "TITLE")
	for _, m := range items {
		fmt.Fprintf(w, "%-36s  %-10s  %-8s  %s\n", m.ID, m.Date.Format(time.DateOnly), m.Status, truncate(m.Title, 60))
	}
}

func outputTranscriptsText(w io.Writer, items []storage.TranscriptListItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No transcripts found.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-10s  %-8s  %-8s  %s\n", "ID", "DATE", "TIME", "STATUS", "MEETING")
	for _, t := range items {
		date := "-"
		if t.Date != nil {
			date = t.Date.Format(time.DateOnly)
		}
		clock := t.Time
		if clock == "" {
			clock = "-"
		}
		fmt.Fprintf(w, "%-36s  %-10s  %-8s  %-8s  %s\n", t.ID, date, clock, t.Status, truncate(t.MeetingTitle, 50))
	}
}
