package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func newJSONLogger(buf *bytes.Buffer, level Level) Logger {
	return NewLogger(&Config{
		Level:       level,
		ServiceName: "meetsum-test",
		JSONFormat:  true,
		Output:      buf,
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{" warn ", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newJSONLogger(buf, LevelInfo)

	log.Info("scan completed", F("seen", 3))

	out := decodeLine(t, buf)
	assert.Equal(t, "scan completed", out["message"])
	assert.Equal(t, "meetsum-test", out["service_name"])
	assert.Equal(t, "info", out["level"])
	assert.EqualValues(t, 3, out["seen"])
	assert.Contains(t, out, "time")
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newJSONLogger(buf, LevelWarn)

	log.Debug("hidden")
	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	out := decodeLine(t, buf)
	assert.Equal(t, "warn", out["level"])
}

func TestLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newJSONLogger(buf, LevelInfo).With(F("component", "watcher"))

	log.Info("started")

	out := decodeLine(t, buf)
	assert.Equal(t, "watcher", out["component"])
}

func TestLogger_WithContext(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newJSONLogger(buf, LevelInfo)

	ctx := ContextWith(context.Background(), ScanIDKey, "scan-1")
	ctx = ContextWith(ctx, TranscriptIDKey, "tr-abc")

	log.WithContext(ctx).Info("job finished")

	out := decodeLine(t, buf)
	assert.Equal(t, "scan-1", out["scan_id"])
	assert.Equal(t, "tr-abc", out["transcript_id"])
	assert.NotContains(t, out, "trace_id")
}

func TestLogger_FieldTypes(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newJSONLogger(buf, LevelInfo)
	id := uuid.MustParse("00000000-0000-0000-0000-000000000000")

	log.Error("typed",
		F("dur", 2*time.Second),
		F("ok", true),
		F("owner", id),
		Err(errors.New("boom")))

	out := decodeLine(t, buf)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, "boom", out["error"])
	assert.Equal(t, id.String(), out["owner"])
	assert.Contains(t, out, "dur")
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	assert.NotPanics(t, func() {
		log.With(F("a", 1)).WithContext(context.Background()).Info("nothing")
	})
}
