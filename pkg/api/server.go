// Package api serves the read-only REST view of meetings, transcripts and
// summaries used by the dashboard.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/otherjamesbrown/meetsum/pkg/buildinfo"
	"github.com/otherjamesbrown/meetsum/pkg/db"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/meeting"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/storage"
	"github.com/otherjamesbrown/meetsum/pkg/logging"
)

// ServiceName identifies the API in /version responses.
const ServiceName = "meetsum-api"

// Reader is the query side of the ledger.
type Reader interface {
	ListMeetings(ctx context.Context, page, limit int) (*storage.MeetingPage, error)
	TodaysMeetings(ctx context.Context, day time.Time) ([]storage.MeetingListItem, error)
	MeetingTranscripts(ctx context.Context, meetingID uuid.UUID) ([]storage.TranscriptListItem, error)
	SeriesTranscripts(ctx context.Context, meetingID uuid.UUID) ([]storage.TranscriptListItem, error)
	GetTranscriptStatus(ctx context.Context, id uuid.UUID) (*storage.TranscriptStatusView, error)
	GetSummaryByTranscriptID(ctx context.Context, transcriptID uuid.UUID) (*storage.Summary, error)
}

// HealthFunc reports database health.
type HealthFunc func(ctx context.Context) *db.HealthStatus

// Config configures the API server.
type Config struct {
	Addr           string
	AllowedOrigins []string

	// TimezoneOffset decides which calendar day "today" is.
	TimezoneOffset time.Duration

	// Now replaces the wall clock.
	Now func() time.Time
}

// DefaultAddr is the listen address used when Config.Addr is empty.
const DefaultAddr = ":8080"

// Server is the gin-backed read API.
type Server struct {
	reader   Reader
	health   HealthFunc
	gatherer prometheus.Gatherer
	logger   logging.Logger
	config   Config
	engine   *gin.Engine
}

// NewServer builds the router. gatherer may be nil to serve the default
// registry.
func NewServer(cfg Config, reader Reader, health HealthFunc, gatherer prometheus.Gatherer, logger logging.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	s := &Server{
		reader:   reader,
		health:   health,
		gatherer: gatherer,
		logger:   logger.With(logging.F("component", "api")),
		config:   cfg,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogging(s.logger))

	if len(s.config.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.AllowedOrigins,
			AllowMethods:     []string{"GET", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", s.handleHealth)
	r.GET("/version", buildinfo.Handler(ServiceName))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		api.GET("/meetings", s.handleListMeetings)
		api.GET("/meetings/today", s.handleTodaysMeetings)
		api.GET("/meetings/:id/transcripts", s.handleMeetingTranscripts)
		api.GET("/meetings/:id/series", s.handleSeriesTranscripts)
		api.GET("/transcripts/:id/status", s.handleTranscriptStatus)
		api.GET("/summaries/transcript/:id", s.handleSummary)
	}
	return r
}

// Handler returns the router for use with httptest or a custom server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API listening", logging.F("addr", s.config.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	s.logger.Info("Shutting down API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}

func (s *Server) today() time.Time {
	return meeting.TodayIn(s.config.Now(), s.config.TimezoneOffset)
}
