package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/otherjamesbrown/meetsum/config"
	"github.com/otherjamesbrown/meetsum/migrations"
	"github.com/otherjamesbrown/meetsum/pkg/db"
	"github.com/otherjamesbrown/meetsum/pkg/logging"
)

// Database command flags
var (
	dbDryRun bool
	dbYes    bool
)

// DbCommandDeps holds the dependencies for database commands.
type DbCommandDeps struct {
	Config      *config.Config
	LoadConfig  func() (*config.Config, error)
	ConnectToDB func(context.Context, *config.Config, logging.Logger) (*pgxpool.Pool, error)
	Migrations  fs.FS

	// Confirm asks the operator before applying. Nil prompts on stdin.
	Confirm func(prompt string) bool
}

// DefaultDbDeps returns the default dependencies for production use.
func DefaultDbDeps() *DbCommandDeps {
	return &DbCommandDeps{
		LoadConfig:  LoadConfig,
		ConnectToDB: connectDatabase,
		Migrations:  migrations.FS,
	}
}

// NewDbCommand creates the root db command with all subcommands.
func NewDbCommand(deps *DbCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDbDeps()
	}

	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands for meetsum.

Manage the PostgreSQL schema that holds meetings, transcripts and summaries.

The migrations are embedded in the binary. They are applied in name order and
tracked in the schema_migrations table.

Examples:
  # Show migration status
  meetsum db status

  # Apply all pending migrations
  meetsum db migrate

  # Preview migrations without applying
  meetsum db migrate --dry-run`,
		Aliases: []string{"database", "migrations"},
	}

	cmd.AddCommand(newDbMigrateCommand(deps))
	cmd.AddCommand(newDbStatusCommand(deps))

	return cmd
}

// newDbMigrateCommand creates the 'db migrate' subcommand.
func newDbMigrateCommand(deps *DbCommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply pending database migrations.

Shows pending migrations before applying them. Each migration runs in its own
transaction together with its schema_migrations row. If a migration fails, it
is rolled back and no further migrations are attempted.

Without --yes the command asks for confirmation, and refuses to run when
stdin is not a terminal.

Examples:
  meetsum db migrate
  meetsum db migrate --dry-run
  meetsum db migrate --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDbMigrate(cmd.Context(), deps, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&dbDryRun, "dry-run", false, "Show what would be applied without executing")
	cmd.Flags().BoolVarP(&dbYes, "yes", "y", false, "Apply without asking for confirmation")

	return cmd
}

// newDbStatusCommand creates the 'db status' subcommand.
func newDbStatusCommand(deps *DbCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show database migration status",
		Long: `Show the current state of database migrations.

Displays three categories of migrations:
  - Applied: migrations that have been applied and have corresponding files
  - Pending: migrations with files that have not been applied yet
  - Drift: migrations that were applied but no longer have corresponding files

Examples:
  meetsum db status
  meetsum db status --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDbStatus(cmd.Context(), deps, cmd.OutOrStdout())
		},
	}
}

// runDbMigrate executes the db migrate command.
func runDbMigrate(ctx context.Context, deps *DbCommandDeps, out io.Writer) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	deps.Config = cfg
	logger := NewLogger(cfg)

	pool, err := deps.ConnectToDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	pending, err := db.GetPendingMigrations(ctx, pool, deps.Migrations)
	if err != nil {
		return fmt.Errorf("getting pending migrations: %w", err)
	}

	if len(pending) == 0 {
		fmt.Fprintln(out, "No pending migrations.")
		return nil
	}

	fmt.Fprintf(out, "Pending migrations (%d):\n", len(pending))
	for _, m := range pending {
		fmt.Fprintf(out, "  %s - %s\n", m.Version, m.Name)
	}
	fmt.Fprintln(out)

	if dbDryRun {
		fmt.Fprintln(out, "Dry run mode: no migrations applied.")
		return nil
	}

	if !dbYes {
		confirm := deps.Confirm
		if confirm == nil {
			confirm = promptConfirm
		}
		if !confirm("Apply these migrations? (y/N): ") {
			fmt.Fprintln(out, "Migration cancelled.")
			return nil
		}
	}

	fmt.Fprintln(out, "Applying all pending migrations...")
	result, err := db.RunMigrations(ctx, pool, deps.Migrations)
	if err != nil {
		fmt.Fprintf(out, "\nMigration failed: %v\n", err)
		if result != nil && len(result.Applied) > 0 {
			fmt.Fprintln(out, "\nSuccessfully applied before failure:")
			for _, v := range result.Applied {
				fmt.Fprintf(out, "  ✓ %s\n", v)
			}
		}
		return err
	}

	fmt.Fprintf(out, "\nSuccessfully applied %d migration(s):\n", len(result.Applied))
	for _, v := range result.Applied {
		fmt.Fprintf(out, "  ✓ %s\n", v)
	}
	return nil
}

// promptConfirm reads a y/N answer from stdin. A non-interactive stdin is
// treated as "no".
func promptConfirm(prompt string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "stdin is not a terminal; pass --yes to apply migrations")
		return false
	}
	fmt.Print(prompt)
	response, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(response), "y")
}

// runDbStatus executes the db status command.
func runDbStatus(ctx context.Context, deps *DbCommandDeps, out io.Writer) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	deps.Config = cfg

	pool, err := deps.ConnectToDB(ctx, cfg, NewLogger(cfg))
	if err != nil {
		return err
	}
	defer pool.Close()

	status, err := db.GetMigrationStatus(ctx, pool, deps.Migrations)
	if err != nil {
		return fmt.Errorf("getting migration status: %w", err)
	}

	return WriteOutput(out, cfg.OutputFormat, status, func(w io.Writer) error {
		return outputMigrationStatusText(w, status)
	})
}

// outputMigrationStatusText formats migration status for terminal display.
func outputMigrationStatusText(w io.Writer, status *db.MigrationStatus) error {
	section := func(title string, entries []db.MigrationStatusEntry) {
		if len(entries) == 0 {
			return
		}
		fmt.Fprintf(w, "%s (%d):\n", title, len(entries))
		fmt.Fprintln(w, "  VERSION    NAME                              APPLIED")
		fmt.Fprintln(w, "  -------    ----                              -------")
		for _, m := range entries {
			appliedAt := "-"
			if m.AppliedAt != nil {
				appliedAt = m.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "  %-10s %-33s %s\n", truncate(m.Version, 10), truncate(m.Name, 33), appliedAt)
		}
		fmt.Fprintln(w)
	}

	section("Applied Migrations", status.Applied)
	section("Pending Migrations", status.Pending)
	section("Drift - applied but file missing", status.Drift)

	if len(status.Applied) == 0 && len(status.Pending) == 0 && len(status.Drift) == 0 {
		fmt.Fprintln(w, "No migrations found.")
		return nil
	}

	fmt.Fprintf(w, "Summary: %d applied, %d pending", len(status.Applied), len(status.Pending))
	if len(status.Drift) > 0 {
		fmt.Fprintf(w, ", %d drift", len(status.Drift))
	}
	fmt.Fprintln(w)
	return nil
}
