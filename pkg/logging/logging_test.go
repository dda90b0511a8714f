package logging_test

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/devmerge/pkg/logging"
)

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithDevice(ctx, "bf8a7c3e0d")
	ctx = logging.WithRun(ctx, "run-1")
	ctx = logging.WithStep(ctx, "repair")

	logging.FromContext(ctx).Info().Msg("test message")

	testLogger.AssertContains(t, `"device_id":"bf8a7c3e0d"`)
	testLogger.AssertContains(t, `"run_id":"run-1"`)
	testLogger.AssertContains(t, `"step":"repair"`)
	testLogger.AssertContains(t, "test message")
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	assert.Equal(t, logging.Default(), logging.FromContext(nil))
	assert.Equal(t, logging.Default(), logging.Ctx(context.Background()))
}

func TestWithFields(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithFields(ctx, map[string]any{
		"dp_id":   7,
		"aliased": true,
	})

	logging.FromContext(ctx).Warn().Msg("fields")

	testLogger.AssertContains(t, `"dp_id":7`)
	testLogger.AssertContains(t, `"aliased":true`)
}

func TestCaptureLoggingForTest(t *testing.T) {
	captured := logging.CaptureLoggingForTest(t)

	logging.Warn().Str("code", "switch_1").Msg("captured")

	assert.Equal(t, 1, captured.Count())
	captured.AssertContains(t, "switch_1")
	captured.AssertNotContains(t, "missing")
}

func TestNewLoggerFromConfig(t *testing.T) {
	originalLevel := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(originalLevel) })

	tmpfile, err := os.CreateTemp(t.TempDir(), "log-*.txt")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "warn",
		Format: "json",
		Output: tmpfile.Name(),
		Fields: map[string]any{"component": "reconciler"},
	})
	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")

	content, err := os.ReadFile(tmpfile.Name())
	require.NoError(t, err)
	assert.Contains(t, string(content), "kept")
	assert.Contains(t, string(content), `"component":"reconciler"`)
	assert.NotContains(t, string(content), "dropped")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARNING", zerolog.WarnLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logging.ParseLevel(tt.in))
		})
	}
}
