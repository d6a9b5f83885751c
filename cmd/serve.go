package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetsum/config"
	"github.com/otherjamesbrown/meetsum/pkg/api"
	"github.com/otherjamesbrown/meetsum/pkg/db"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/storage"
)

// Serve command flags
var (
	serveAddr string
)

// ServeCommandDeps holds dependencies for the serve command.
type ServeCommandDeps struct {
	Config     *config.Config
	LoadConfig func() (*config.Config, error)
}

// DefaultServeDeps returns default dependencies for production use.
func DefaultServeDeps() *ServeCommandDeps {
	return &ServeCommandDeps{
		LoadConfig: LoadConfig,
	}
}

// NewServeCommand creates the serve command.
func NewServeCommand(deps *ServeCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultServeDeps()
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API",
		Long: `Serve the read-only REST API used by the dashboard.

Endpoints:
  GET /api/meetings?page=&limit=             paginated meetings
  GET /api/meetings/today                    meetings dated today
  GET /api/meetings/:id/transcripts          one meeting's transcripts
  GET /api/meetings/:id/series               transcripts of same-titled meetings
  GET /api/transcripts/:id/status            processing status
  GET /api/summaries/transcript/:id          summary (?format=text to render)
  GET /health  /version  /metrics

Cross-origin requests are allowed from api.allowed_origins.

Examples:
  meetsum serve
  meetsum serve --addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), deps)
		},
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides api.addr)")

	return cmd
}

// runServe executes the serve command.
func runServe(ctx context.Context, deps *ServeCommandDeps) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	deps.Config = cfg
	if serveAddr != "" {
		cfg.API.Addr = serveAddr
	}
	logger := NewLogger(cfg)

	pool, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close(pool)

	health := func(ctx context.Context) *db.HealthStatus {
		return db.Check(ctx, pool)
	}
	server := api.NewServer(cfg.APIConfig(), storage.NewRepository(pool, logger), health, prometheus.DefaultGatherer, logger)
	return server.Run(ctx)
}
