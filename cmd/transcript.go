package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetsum/config"
	"github.com/otherjamesbrown/meetsum/pkg/api"
	pferrors "github.com/otherjamesbrown/meetsum/pkg/errors"
	"github.com/otherjamesbrown/meetsum/pkg/writeback"
)

// NewTranscriptCommand creates the root transcript command with all subcommands.
func NewTranscriptCommand(deps *ReaderCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultReaderDeps()
	}

	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Inspect transcripts and their summaries",
		Long: `Inspect the processing state and summary of a transcript.

Transcript status is one of:
  process   recorded, summarization pending or running
  done      summary stored
  error     summarization failed; the next scan retries it

Examples:
  meetsum transcript status 2b7d0c4e-5f6a-4b8c-9d0e-1f2a3b4c5d6e
  meetsum transcript summary 2b7d0c4e-5f6a-4b8c-9d0e-1f2a3b4c5d6e`,
		Aliases: []string{"transcripts"},
	}

	cmd.AddCommand(newTranscriptStatusCommand(deps))
	cmd.AddCommand(newTranscriptSummaryCommand(deps))

	return cmd
}

func parseTranscriptID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid transcript ID %q: %w", arg, err)
	}
	return id, nil
}

// newTranscriptStatusCommand creates the 'transcript status' subcommand.
func newTranscriptStatusCommand(deps *ReaderCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "status <transcript-id>",
		Short: "Show a transcript's processing status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTranscriptID(args[0])
			if err != nil {
				return err
			}
			return deps.withReader(cmd.Context(), func(cfg *config.Config, r api.Reader) error {
				status, err := r.GetTranscriptStatus(cmd.Context(), id)
				if err != nil {
					if pferrors.IsNotFound(err) {
						return fmt.Errorf("transcript %s not found", id)
					}
					return fmt.Errorf("getting transcript status: %w", err)
				}
				return WriteOutput(cmd.OutOrStdout(), cfg.OutputFormat, status, func(w io.Writer) error {
					fmt.Fprintf(w, "Transcript: %s\n", status.ID)
					fmt.Fprintf(w, "Filename:   %s\n", status.Filename)
					fmt.Fprintf(w, "Status:     %s\n", status.Status)
					if status.ErrorMsg != "" {
						code := pferrors.ClassifyMessage(status.ErrorMsg)
						fmt.Fprintf(w, "Error:      %s\n", status.ErrorMsg)
						fmt.Fprintf(w, "Cause:      %s\n", pferrors.GetDescription(code))
						fmt.Fprintf(w, "Hint:       %s\n", pferrors.GetSuggestedAction(code))
					}
					fmt.Fprintf(w, "Updated:    %s\n", status.UpdatedAt.Format(time.RFC3339))
					return nil
				})
			})
		},
	}
}

// newTranscriptSummaryCommand creates the 'transcript summary' subcommand.
func newTranscriptSummaryCommand(deps *ReaderCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <transcript-id>",
		Short: "Show a transcript's summary",
		Long: `Show the stored summary of a transcript.

Text output is the same block write-back appends to the source file.

Examples:
  meetsum transcript summary 2b7d0c4e-5f6a-4b8c-9d0e-1f2a3b4c5d6e
  meetsum transcript summary 2b7d0c4e-5f6a-4b8c-9d0e-1f2a3b4c5d6e -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTranscriptID(args[0])
			if err != nil {
				return err
			}
			return deps.withReader(cmd.Context(), func(cfg *config.Config, r api.Reader) error {
				summary, err := r.GetSummaryByTranscriptID(cmd.Context(), id)
				if err != nil {
					if pferrors.IsNotFound(err) {
						return fmt.Errorf("no summary for transcript %s", id)
					}
					return fmt.Errorf("getting summary: %w", err)
				}
				return WriteOutput(cmd.OutOrStdout(), cfg.OutputFormat, summary, func(w io.Writer) error {
					_, err := io.WriteString(w, writeback.Render(summary.SummaryContent, summary.CreatedAt))
					return err
				})
			})
		},
	}
}
