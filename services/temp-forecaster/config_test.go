package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", "")
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Source)
	assert.Equal(t, 3, cfg.Horizon)
	assert.Equal(t, 10*time.Minute, cfg.SampleInterval)
	assert.Equal(t, 70, cfg.TrainPercent)
	assert.Equal(t, 28.0, cfg.AlertThreshold)
	assert.Equal(t, 1e-3, cfg.RidgeLambda)
	assert.Equal(t, "comparaison_predictions.csv", cfg.ComparisonCSV)
	assert.Equal(t, "comparaison_predictions.png", cfg.ComparisonPNG)
	assert.Empty(t, cfg.S3Endpoint)
}

func TestLoadConfig_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("FORECAST_SOURCE", "CSV")
	t.Setenv("CSV_FILE", "/data/sensor_data.csv")
	t.Setenv("HORIZON", "6")
	t.Setenv("SAMPLE_INTERVAL", "5m")
	t.Setenv("ALERT_THRESHOLD", "30.5")
	t.Setenv("S3_ENDPOINT", "minio:9000")
	t.Setenv("S3_USE_SSL", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.Source)
	assert.Equal(t, "/data/sensor_data.csv", cfg.CSVFile)
	assert.Equal(t, 6, cfg.Horizon)
	assert.Equal(t, 5*time.Minute, cfg.SampleInterval)
	assert.Equal(t, 30.5, cfg.AlertThreshold)
	assert.Equal(t, "forecasts", cfg.S3Bucket)
	assert.True(t, cfg.S3UseSSL)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"unknown source":   {"FORECAST_SOURCE", "mongodb"},
		"zero horizon":     {"HORIZON", "0"},
		"train everything": {"TRAIN_PERCENT", "100"},
		"negative lambda":  {"RIDGE_LAMBDA", "-1"},
		"bad log format":   {"LOG_FORMAT", "xml"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			isolate(t)
			t.Setenv(env[0], env[1])

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("WARN", "json", &buf)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.True(t, NewLogger("nonsense", "text", &buf).Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, NewLogger("nonsense", "text", &buf).Enabled(context.Background(), slog.LevelDebug))
}
