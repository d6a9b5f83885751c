// Package cmd provides CLI commands for the meetsum tool.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/meetsum/config"
	"github.com/otherjamesbrown/meetsum/pkg/api"
	"github.com/otherjamesbrown/meetsum/pkg/db"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/storage"
	"github.com/otherjamesbrown/meetsum/pkg/logging"
	"github.com/otherjamesbrown/meetsum/pkg/observability"
)

// Global flags, bound by the root command in main.
var (
	ConfigFile   string
	OutputFormat string
	Debug        bool
)

// Database connection retry policy for commands.
const (
	dbConnectAttempts = 5
	dbConnectDelay    = 2 * time.Second
)

// LoadConfig loads the configuration named by --config (or the default
// location) and applies the --output and --debug overrides.
func LoadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if ConfigFile != "" {
		cfg, err = config.LoadConfigFrom(ConfigFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, err
	}

	if OutputFormat != "" {
		format := config.OutputFormat(OutputFormat)
		if !format.IsValid() {
			return nil, fmt.Errorf("invalid output format: %q (must be text, json, or yaml)", OutputFormat)
		}
		cfg.OutputFormat = format
	}
	if Debug {
		cfg.Debug = true
	}
	return cfg, nil
}

// NewLogger builds the process logger. Output is JSON when stderr is not a
// terminal or log.format is json.
func NewLogger(cfg *config.Config) logging.Logger {
	interactive := term.IsTerminal(int(os.Stderr.Fd()))
	return logging.NewLogger(cfg.LogConfig(!interactive))
}

// connectDatabase opens the pool with the command retry policy and registers
// the pool collector with the default registry.
func connectDatabase(ctx context.Context, cfg *config.Config, logger logging.Logger) (*pgxpool.Pool, error) {
	pool, err := db.ConnectWithRetry(ctx, cfg.DBConfig(), dbConnectAttempts, dbConnectDelay, logger)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if _, err := db.RegisterPoolStatsCollector(pool, observability.Namespace, prometheus.DefaultRegisterer); err != nil {
		logger.Warn("Failed to register pool metrics", logging.Err(err))
	}
	return pool, nil
}

// openReader connects to the database and returns the read projection with
// its close function.
func openReader(ctx context.Context, cfg *config.Config, logger logging.Logger) (api.Reader, func(), error) {
	pool, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewRepository(pool, logger), func() { db.Close(pool) }, nil
}

// WriteOutput renders v in format. Text output is delegated to text.
func WriteOutput(w io.Writer, format config.OutputFormat, v interface{}, text func(io.Writer) error) error {
	switch format {
	case config.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return text(w)
	}
}

// truncate shortens s to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
