// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/airpartners/ade/internal/config"
	"github.com/airpartners/ade/quantaq"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Empty(t, cfg.Devices)
	require.Equal(t, quantaq.DefaultBaseURL, cfg.QuantAQ.BaseURL)
	require.Equal(t, "QUANTAQ_APIKEY", cfg.QuantAQ.KeyEnv)
	require.Equal(t, 30*time.Second, cfg.QuantAQ.Timeout)
	require.Equal(t, 15*time.Minute, cfg.Schedule.GraphInterval)
	require.Equal(t, 5*time.Minute, cfg.Schedule.LatestInterval)
	require.Equal(t, ":8080", cfg.HTTP.Addr)
	require.False(t, cfg.MQTT.Enabled)
	require.Equal(t, "graphnode/{sn}/update", cfg.MQTT.CommandTopic)
	require.Equal(t, "graphnode/{sn}/graph", cfg.MQTT.TelemetryTopic)
}

func writeConfig(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "graphnode.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
devices:
  - MOD-PM-00001
  - " MOD-PM-00002 "
quantaq:
  base_url: http://localhost:9000/devices/
  key_file: /var/run/secrets/quantaq/key
schedule:
  graph_interval: PT10M
  latest_interval: PT1M30S
mqtt:
  enabled: true
command:
  topic: ade/{sn}/command
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"MOD-PM-00001", "MOD-PM-00002"}, cfg.Devices)
	require.Equal(t, "http://localhost:9000/devices", cfg.QuantAQ.BaseURL)
	require.Equal(t, "/var/run/secrets/quantaq/key", cfg.QuantAQ.KeyFile)
	require.Equal(t, 10*time.Minute, cfg.Schedule.GraphInterval)
	require.Equal(t, 90*time.Second, cfg.Schedule.LatestInterval)
	require.True(t, cfg.MQTT.Enabled)
	require.Equal(t, "ade/{sn}/command", cfg.MQTT.CommandTopic)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "schedule:\n  graph_interval: PT10M\n")
	t.Setenv("ADE_SCHEDULE_GRAPH_INTERVAL", "PT20M")
	t.Setenv("ADE_HTTP_ADDR", "127.0.0.1:9090")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 20*time.Minute, cfg.Schedule.GraphInterval)
	require.Equal(t, "127.0.0.1:9090", cfg.HTTP.Addr)
}

func TestLoadInvalid(t *testing.T) {
	for name, contents := range map[string]string{
		"duration":    "schedule:\n  graph_interval: 15m\n",
		"zero":        "quantaq:\n  timeout: PT0S\n",
		"negative":    "schedule:\n  latest_interval: -PT5M\n",
		"no key":      "quantaq:\n  key_env: \"\"\n",
		"no base url": "quantaq:\n  base_url: \"\"\n",
		"topic":       "mqtt:\n  enabled: true\ncommand:\n  topic: ade/update\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, contents))
			require.ErrorIs(t, err, config.ErrInvalid)

			var cerr *config.Error
			require.ErrorAs(t, err, &cerr)
			require.NotEmpty(t, cerr.Key)
		})
	}
}

func TestLoadScheduleDisabled(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "schedule:\n  graph_interval: PT0S\n"))
	require.NoError(t, err)
	require.Zero(t, cfg.Schedule.GraphInterval)
	require.Equal(t, 5*time.Minute, cfg.Schedule.LatestInterval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.NotErrorIs(t, err, config.ErrInvalid)
}
