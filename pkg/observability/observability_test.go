package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordScan(0.25)
	m.RecordFile("accepted")
	m.RecordFile("accepted")
	m.RecordFile("skipped")
	m.RecordSummary("openrouter", "success", 3.2)
	m.RecordTranscriptError("llm_api")
	m.RecordWriteBackFailure("drive")
	m.JobStarted()
	m.JobStarted()
	m.JobFinished()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilesTotal.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesTotal.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SummariesTotal.WithLabelValues("openrouter", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TranscriptErrorsTotal.WithLabelValues("llm_api")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WriteBackFailuresTotal.WithLabelValues("drive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsInFlight))

	count, err := testutil.GatherAndCount(reg, "meetsum_llm_latency_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}

func TestTracer_Spans(t *testing.T) {
	tr := NewTracerFromProvider(noop.NewTracerProvider())
	ctx := context.Background()

	ctx, scan := tr.StartScanSpan(ctx, "scan-1", "local")
	h := NewSpanHelper(scan)
	h.SetFilesSeen(3)
	h.SetSuccess()

	_, file := tr.StartFileSpan(ctx, "a.txt", "text/plain")
	fh := NewSpanHelper(file)
	fh.SetOutcome("accepted")
	fh.SetTranscript("tr-1")
	fh.SetError(errors.New("boom"), "llm_api", true)
	file.End()

	_, sum := tr.StartSummarizeSpan(ctx, "tr-1", "openrouter")
	sum.End()
	_, wb := tr.StartWriteBackSpan(ctx, "tr-1", "a.txt")
	wb.End()
	scan.End()

	assert.NotNil(t, NewTracer())
}

func TestGetTraceID(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(ctx))
}
