// Package main provides the meetsum CLI entry point.
// meetsum watches a folder of meeting transcripts and summarizes each new one.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetsum/cmd"
	"github.com/otherjamesbrown/meetsum/config"
	"github.com/otherjamesbrown/meetsum/pkg/buildinfo"
)

// cliServiceName identifies the CLI in version output.
const cliServiceName = "meetsum"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "meetsum",
	Short: "Meeting transcript watcher and summarizer",
	Long: `meetsum watches a folder of meeting transcripts (local or Google Drive),
records each new transcript, summarizes it with an LLM, and writes the summary
back next to the transcript.

COMMON WORKFLOWS:
  First run:        meetsum db migrate  →  meetsum auth set-key  →  meetsum watch
  One-off cycle:    meetsum scan
  Browse results:   meetsum meeting list  →  meetsum meeting transcripts <id>
  Read a summary:   meetsum transcript summary <id>
  Dashboard API:    meetsum serve

Configuration is read from ~/.meetsum/config.yaml (or $MEETSUM_CONFIG_DIR),
a .env file, and MEETSUM_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		if cmd.OutputFormat != "" && !config.OutputFormat(cmd.OutputFormat).IsValid() {
			return fmt.Errorf("invalid output format: %q (must be text, json, or yaml)", cmd.OutputFormat)
		}
		return nil
	},
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, commit hash, and build time of meetsum.

Examples:
  meetsum version
  meetsum version --output json`,
	RunE: func(c *cobra.Command, args []string) error {
		return printVersion(c.OutOrStdout(), config.OutputFormat(cmd.OutputFormat))
	},
}

func printVersion(out io.Writer, format config.OutputFormat) error {
	info := buildinfo.Get(cliServiceName)
	return cmd.WriteOutput(out, format, info, func(w io.Writer) error {
		fmt.Fprintf(w, "meetsum version %s\n", info.Version)
		fmt.Fprintf(w, "  commit:     %s\n", info.Commit)
		fmt.Fprintf(w, "  built:      %s\n", info.BuildTime)
		fmt.Fprintf(w, "  go:         %s\n", info.GoVersion)
		return nil
	})
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cmd.ConfigFile, "config", "", "config file (default ~/.meetsum/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&cmd.OutputFormat, "output", "o", "", "output format: text, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&cmd.Debug, "debug", false, "enable debug logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: "watch", Title: "Watching:"},
		&cobra.Group{ID: "browse", Title: "Browsing:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	// Watching
	watchCmd := cmd.NewWatchCommand(nil)
	watchCmd.GroupID = "watch"
	rootCmd.AddCommand(watchCmd)

	scanCmd := cmd.NewScanCommand(nil)
	scanCmd.GroupID = "watch"
	rootCmd.AddCommand(scanCmd)

	serveCmd := cmd.NewServeCommand(nil)
	serveCmd.GroupID = "watch"
	rootCmd.AddCommand(serveCmd)

	// Browsing
	meetingCmd := cmd.NewMeetingCommand(nil)
	meetingCmd.GroupID = "browse"
	rootCmd.AddCommand(meetingCmd)

	transcriptCmd := cmd.NewTranscriptCommand(nil)
	transcriptCmd.GroupID = "browse"
	rootCmd.AddCommand(transcriptCmd)

	// Setup
	dbCmd := cmd.NewDbCommand(nil)
	dbCmd.GroupID = "setup"
	rootCmd.AddCommand(dbCmd)

	authCmd := cmd.NewAuthCommand(nil)
	authCmd.GroupID = "setup"
	rootCmd.AddCommand(authCmd)

	versionCmd.GroupID = "setup"
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// SIGINT/SIGTERM cancel the command context; watch drains before exiting.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
