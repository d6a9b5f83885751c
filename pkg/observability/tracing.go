package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the name of the tracer for pipeline operations.
	TracerName = "meetsum"
)

// Span attribute keys
const (
	AttrScanID       = "scan_id"
	AttrFileName     = "file_name"
	AttrMimeType     = "mime_type"
	AttrSourceKind   = "source_kind"
	AttrTranscriptID = "transcript_id"
	AttrOutcome      = "outcome"
	AttrProvider     = "provider"
	AttrErrorCode    = "error_code"
	AttrRetryable    = "retryable"
	AttrFilesSeen    = "files_seen"
)

// Span names
const (
	SpanScan      = "meetsum.scan"
	SpanFile      = "meetsum.file"
	SpanSummarize = "meetsum.summarize"
	SpanWriteBack = "meetsum.write_back"
)

// Tracer creates spans for pipeline operations.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from the global provider. Without a configured
// provider the spans are no-ops.
func NewTracer() *Tracer {
	return NewTracerFromProvider(otel.GetTracerProvider())
}

// NewTracerFromProvider creates a tracer from tp.
func NewTracerFromProvider(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(TracerName)}
}

// StartScanSpan starts the root span of a scan cycle.
func (t *Tracer) StartScanSpan(ctx context.Context, scanID, sourceKind string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanScan,
		trace.WithAttributes(
			attribute.String(AttrScanID, scanID),
			attribute.String(AttrSourceKind, sourceKind),
		),
	)
}

// StartFileSpan starts a span for gating one file.
func (t *Tracer) StartFileSpan(ctx context.Context, name, mimeType string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanFile,
		trace.WithAttributes(
			attribute.String(AttrFileName, name),
			attribute.String(AttrMimeType, mimeType),
		),
	)
}

// StartSummarizeSpan starts a span for the LLM call of a transcript.
func (t *Tracer) StartSummarizeSpan(ctx context.Context, transcriptID, provider string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanSummarize,
		trace.WithAttributes(
			attribute.String(AttrTranscriptID, transcriptID),
			attribute.String(AttrProvider, provider),
		),
	)
}

// StartWriteBackSpan starts a span for writing a summary back to its source.
func (t *Tracer) StartWriteBackSpan(ctx context.Context, transcriptID, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanWriteBack,
		trace.WithAttributes(
			attribute.String(AttrTranscriptID, transcriptID),
			attribute.String(AttrFileName, name),
		),
	)
}

// SpanHelper provides convenient methods for working with the current span.
type SpanHelper struct {
	span trace.Span
}

// NewSpanHelper creates a new span helper for the given span.
func NewSpanHelper(span trace.Span) *SpanHelper {
	return &SpanHelper{span: span}
}

// SetOutcome records how a file was handled.
func (h *SpanHelper) SetOutcome(outcome string) {
	h.span.SetAttributes(attribute.String(AttrOutcome, outcome))
}

// SetTranscript records the transcript a span worked on.
func (h *SpanHelper) SetTranscript(id string) {
	h.span.SetAttributes(attribute.String(AttrTranscriptID, id))
}

// SetFilesSeen records the number of files listed in a scan.
func (h *SpanHelper) SetFilesSeen(n int) {
	h.span.SetAttributes(attribute.Int(AttrFilesSeen, n))
}

// SetError records an error on the span.
func (h *SpanHelper) SetError(err error, code string, retryable bool) {
	h.span.SetStatus(codes.Error, err.Error())
	h.span.SetAttributes(
		attribute.String(AttrErrorCode, code),
		attribute.Bool(AttrRetryable, retryable),
	)
	h.span.RecordError(err)
}

// SetSuccess marks the span as successful.
func (h *SpanHelper) SetSuccess() {
	h.span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
