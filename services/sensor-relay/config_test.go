package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so no .env.local is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_FILE", "")
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "tcp://eu1.cloud.thethings.network:1883", cfg.MQTTBroker)
	assert.Equal(t, "#", cfg.MQTTTopic)
	assert.Equal(t, 60*time.Second, cfg.MQTTKeepAlive)
	assert.Equal(t, "sensor_data", cfg.PostgresTable)
	assert.Equal(t, "sensor_data.csv", cfg.CSVFile)
	assert.Equal(t, "https://api.thingspeak.com/update", cfg.ThingSpeakURL)
	assert.Equal(t, 5*time.Second, cfg.SinkTimeout)
	assert.Empty(t, cfg.ThingSpeakFields)
	assert.Empty(t, cfg.ValkeyAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadConfig_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("MQTT_BROKER", "tcp://localhost:1883")
	t.Setenv("MQTT_QOS", "1")
	t.Setenv("THINGSPEAK_FIELDS", "temperature, humidity,,pressure")
	t.Setenv("SINK_TIMEOUT", "750ms")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, 1, cfg.MQTTQoS)
	assert.Equal(t, []string{"temperature", "humidity", "pressure"}, cfg.ThingSpeakFields)
	assert.Equal(t, 750*time.Millisecond, cfg.SinkTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_DotEnvLocal(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("CSV_FILE=/data/readings.csv\n"), 0o600))
	t.Setenv("CSV_FILE", "") // registered so t restores it; godotenv does not override set vars
	os.Unsetenv("CSV_FILE")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/data/readings.csv", cfg.CSVFile)
}

func TestLoadConfig_ConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("postgres_table: readings\nhttp_addr: \":9090\"\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "readings", cfg.PostgresTable)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"qos out of range":    {"MQTT_QOS", "3"},
		"unknown log level":   {"LOG_LEVEL", "verbose"},
		"unknown log format":  {"LOG_FORMAT", "xml"},
		"relative url":        {"THINGSPEAK_URL", "api.thingspeak.com"},
		"too many fields":     {"THINGSPEAK_FIELDS", "a,b,c,d,e,f,g,h,i"},
		"missing config file": {"CONFIG_FILE", "/nonexistent/relay.yaml"},
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

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList(" , ,"))
	assert.Equal(t, []string{"a", "b"}, splitList("a, b"))
}
