// Package events publishes transcript pipeline events to Redis pub/sub so
// dashboards and other services can follow the watcher.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/otherjamesbrown/meetsum/pkg/logging"
)

// Redis channels for pipeline events
const (
	ChannelTranscriptAccepted   = "meetsum.transcript.accepted"
	ChannelTranscriptSummarized = "meetsum.transcript.summarized"
	ChannelTranscriptFailed     = "meetsum.transcript.failed"
	ChannelScanCompleted        = "meetsum.scan.completed"
)

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType     string    `json:"event_type"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID *string   `json:"correlation_id,omitempty"`
	Source        string    `json:"source"`
	Version       string    `json:"version"`
}

// NewBaseEvent creates a BaseEvent with sensible defaults.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Source:    "meetsum",
		Version:   "1.0",
	}
}

// TranscriptAcceptedEvent is published when a transcript row enters process.
type TranscriptAcceptedEvent struct {
	BaseEvent

	TranscriptID uuid.UUID `json:"transcript_id"`
	ContentID    string    `json:"content_id"`
	MeetingID    uuid.UUID `json:"meeting_id"`
	Filename     string    `json:"filename"`
	SourceKind   string    `json:"source_kind"`
	Retry        bool      `json:"retry"`
}

// TranscriptSummarizedEvent is published when a transcript reaches done.
type TranscriptSummarizedEvent struct {
	BaseEvent

	TranscriptID    uuid.UUID `json:"transcript_id"`
	MeetingID       uuid.UUID `json:"meeting_id"`
	SummaryID       uuid.UUID `json:"summary_id"`
	Filename        string    `json:"filename"`
	DurationSeconds float64   `json:"duration_seconds"`
	WrittenBack     bool      `json:"written_back"`
}

// TranscriptFailedEvent is published when a transcript moves to error.
type TranscriptFailedEvent struct {
	BaseEvent

	TranscriptID uuid.UUID `json:"transcript_id"`
	Filename     string    `json:"filename"`
	ErrorCode    string    `json:"error_code"`
	Message      string    `json:"message"`
	Retryable    bool      `json:"retryable"`
}

// ScanCompletedEvent is published at the end of every scan cycle.
type ScanCompletedEvent struct {
	BaseEvent

	ScanID     string `json:"scan_id"`
	SourceKind string `json:"source_kind"`

	Seen     int `json:"seen"`
	Accepted int `json:"accepted"`
	Retried  int `json:"retried"`
	Skipped  int `json:"skipped"`
	Rejected int `json:"rejected"`
	Failed   int `json:"failed"`

	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// Publisher publishes pipeline events to Redis.
type Publisher struct {
	client *redis.Client
	logger logging.Logger
}

// PublisherConfig holds Redis connection configuration.
type PublisherConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewPublisher creates a new event publisher.
func NewPublisher(client *redis.Client, logger logging.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger.With(logging.F("component", "event_publisher")),
	}
}

// NewPublisherFromConfig creates a publisher with a new Redis connection.
func NewPublisherFromConfig(ctx context.Context, cfg PublisherConfig, logger logging.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewPublisher(client, logger), nil
}

// PublishTranscriptAccepted publishes an event for a transcript entering process.
func (p *Publisher) PublishTranscriptAccepted(ctx context.Context, params TranscriptAcceptedParams) error {
	event := TranscriptAcceptedEvent{
		BaseEvent:    NewBaseEvent("transcript.accepted"),
		TranscriptID: params.TranscriptID,
		ContentID:    params.ContentID,
		MeetingID:    params.MeetingID,
		Filename:     params.Filename,
		SourceKind:   params.SourceKind,
		Retry:        params.Retry,
	}
	return p.publish(ctx, ChannelTranscriptAccepted, event)
}

// PublishTranscriptSummarized publishes an event for a finished transcript.
func (p *Publisher) PublishTranscriptSummarized(ctx context.Context, params TranscriptSummarizedParams) error {
	event := TranscriptSummarizedEvent{
		BaseEvent:       NewBaseEvent("transcript.summarized"),
		TranscriptID:    params.TranscriptID,
		MeetingID:       params.MeetingID,
		SummaryID:       params.SummaryID,
		Filename:        params.Filename,
		DurationSeconds: params.Duration.Seconds(),
		WrittenBack:     params.WrittenBack,
	}
	return p.publish(ctx, ChannelTranscriptSummarized, event)
}

// PublishTranscriptFailed publishes an event for a transcript moved to error.
func (p *Publisher) PublishTranscriptFailed(ctx context.Context, params TranscriptFailedParams) error {
	event := TranscriptFailedEvent{
		BaseEvent:    NewBaseEvent("transcript.failed"),
		TranscriptID: params.TranscriptID,
		Filename:     params.Filename,
		ErrorCode:    params.ErrorCode,
		Message:      params.Message,
		Retryable:    params.Retryable,
	}
	return p.publish(ctx, ChannelTranscriptFailed, event)
}

// PublishScanCompleted publishes the counters of a finished scan.
func (p *Publisher) PublishScanCompleted(ctx context.Context, params ScanCompletedParams) error {
	return p.publish(ctx, ChannelScanCompleted, NewScanCompletedEvent(params))
}

// NewScanCompletedEvent builds the event for a finished scan.
func NewScanCompletedEvent(params ScanCompletedParams) ScanCompletedEvent {
	return ScanCompletedEvent{
		BaseEvent:       NewBaseEvent("scan.completed"),
		ScanID:          params.ScanID,
		SourceKind:      params.SourceKind,
		Seen:            params.Seen,
		Accepted:        params.Accepted,
		Retried:         params.Retried,
		Skipped:         params.Skipped,
		Rejected:        params.Rejected,
		Failed:          params.Failed,
		StartedAt:       params.StartedAt,
		CompletedAt:     params.CompletedAt,
		DurationSeconds: params.CompletedAt.Sub(params.StartedAt).Seconds(),
	}
}

// publish serializes and publishes an event to Redis.
func (p *Publisher) publish(ctx context.Context, channel string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		p.logger.Error("Failed to publish event",
			logging.Err(err),
			logging.F("channel", channel))
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	p.logger.Debug("Event published",
		logging.F("channel", channel),
		logging.F("payload_size", len(data)))

	return nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}

// TranscriptAcceptedParams contains parameters for a transcript accepted event.
type TranscriptAcceptedParams struct {
	TranscriptID uuid.UUID
	ContentID    string
	MeetingID    uuid.UUID
	Filename     string
	SourceKind   string
	Retry        bool
}

// TranscriptSummarizedParams contains parameters for a transcript summarized event.
type TranscriptSummarizedParams struct {
	TranscriptID uuid.UUID
	MeetingID    uuid.UUID
	SummaryID    uuid.UUID
	Filename     string
	Duration     time.Duration
	WrittenBack  bool
}

// TranscriptFailedParams contains parameters for a transcript failed event.
type TranscriptFailedParams struct {
	TranscriptID uuid.UUID
	Filename     string
	ErrorCode    string
	Message      string
	Retryable    bool
}

// ScanCompletedParams contains parameters for a scan completed event.
type ScanCompletedParams struct {
	ScanID      string
	SourceKind  string
	Seen        int
	Accepted    int
	Retried     int
	Skipped     int
	Rejected    int
	Failed      int
	StartedAt   time.Time
	CompletedAt time.Time
}
