package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/meetsum/config"
	"github.com/otherjamesbrown/meetsum/pkg/watcher"
)

func TestOutputScanReportText(t *testing.T) {
	start := time.Date(2025, 1, 17, 9, 0, 0, 0, time.UTC)
	report := watcher.ScanReport{
		ScanID:      "scan-1",
		SourceKind:  "local",
		Seen:        5,
		Accepted:    2,
		Retried:     1,
		Skipped:     1,
		Rejected:    1,
		StartedAt:   start,
		CompletedAt: start.Add(1500 * time.Millisecond),
	}

	var buf bytes.Buffer
	require.NoError(t, outputScanReportText(&buf, report))
	out := buf.String()

	assert.Contains(t, out, "Scan scan-1 (local)")
	assert.Contains(t, out, "Duration:  1.5s")
	assert.Contains(t, out, "Accepted:  2")
	assert.Contains(t, out, "Retried:   1")
	assert.NotContains(t, out, "Error:")

	report.Error = "listing failed"
	buf.Reset()
	require.NoError(t, outputScanReportText(&buf, report))
	assert.Contains(t, buf.String(), "Error:     listing failed")
}

func TestBuildRuntime_InvalidSource(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Watch.Source = config.SourceLocal
	cfg.Watch.Directory = filepath.Join(t.TempDir(), "missing")

	_, err := buildRuntime(context.Background(), cfg, nil, NewLogger(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid watch source")
}

func TestBuildRuntime_MissingAPIKey(t *testing.T) {
	t.Setenv(config.EnvOpenRouterKey, "")

	cfg := config.DefaultConfig()
	cfg.Watch.Source = config.SourceLocal
	cfg.Watch.Directory = t.TempDir()
	// Unreachable on purpose; the key check must fail before any connect.
	cfg.Database.Host = "127.0.0.1"
	cfg.Database.Port = 1

	_, err := buildRuntime(context.Background(), cfg, newFakeKeyStore(), NewLogger(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no API key for openrouter")
}

func TestRunScan_LoadConfigError(t *testing.T) {
	deps := &WatchCommandDeps{
		LoadConfig: func() (*config.Config, error) { return nil, assert.AnError },
	}
	err := runScan(context.Background(), deps, &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
