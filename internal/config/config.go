// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package config loads the graph node service configuration from an optional
// file and ADE_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/airpartners/ade/quantaq"
	"github.com/sosodev/duration"
	"github.com/spf13/viper"
)

type (
	// Config is the resolved service configuration.
	Config struct {
		Devices  []string
		QuantAQ  QuantAQ
		Schedule Schedule
		HTTP     HTTP
		MQTT     MQTT
	}

	// QuantAQ configures the device API client. The API key is read from
	// KeyFile if set, otherwise from the environment variable KeyEnv.
	QuantAQ struct {
		BaseURL string
		KeyFile string
		KeyEnv  string
		Timeout time.Duration
	}

	// Schedule configures the periodic updates. A zero interval disables
	// the corresponding update.
	Schedule struct {
		GraphInterval  time.Duration
		LatestInterval time.Duration
	}

	// HTTP configures the HTTP trigger and metrics endpoint. An empty Addr
	// disables it.
	HTTP struct {
		Addr string
	}

	// MQTT configures the command and telemetry endpoints. Connection
	// settings come from the AIO_ environment.
	MQTT struct {
		Enabled        bool
		TelemetryTopic string
		CommandTopic   string
	}

	// Error describes an invalid configuration value.
	Error struct {
		Key   string
		Value string
		Err   error
	}

	file struct {
		Devices []string `mapstructure:"devices"`
		QuantAQ struct {
			BaseURL string `mapstructure:"base_url"`
			KeyFile string `mapstructure:"key_file"`
			KeyEnv  string `mapstructure:"key_env"`
			Timeout string `mapstructure:"timeout"`
		} `mapstructure:"quantaq"`
		Schedule struct {
			GraphInterval  string `mapstructure:"graph_interval"`
			LatestInterval string `mapstructure:"latest_interval"`
		} `mapstructure:"schedule"`
		HTTP struct {
			Addr string `mapstructure:"addr"`
		} `mapstructure:"http"`
		MQTT struct {
			Enabled bool `mapstructure:"enabled"`
		} `mapstructure:"mqtt"`
		Telemetry struct {
			Topic string `mapstructure:"topic"`
		} `mapstructure:"telemetry"`
		Command struct {
			Topic string `mapstructure:"topic"`
		} `mapstructure:"command"`
	}
)

// EnvPrefix prefixes the environment variables overriding configuration
// keys, e.g. ADE_SCHEDULE_GRAPH_INTERVAL for schedule.graph_interval.
const EnvPrefix = "ADE"

// ErrInvalid indicates an invalid configuration value.
var ErrInvalid = errors.New("invalid configuration")

// Load reads the configuration file at path, if any, applies environment
// overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var f file
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return f.resolve()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("devices", []string{})
	v.SetDefault("quantaq.base_url", quantaq.DefaultBaseURL)
	v.SetDefault("quantaq.key_file", "")
	v.SetDefault("quantaq.key_env", "QUANTAQ_APIKEY")
	v.SetDefault("quantaq.timeout", "PT30S")
	v.SetDefault("schedule.graph_interval", "PT15M")
	v.SetDefault("schedule.latest_interval", "PT5M")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("telemetry.topic", "graphnode/{sn}/graph")
	v.SetDefault("command.topic", "graphnode/{sn}/update")
}

func (f *file) resolve() (*Config, error) {
	cfg := &Config{
		QuantAQ: QuantAQ{
			BaseURL: strings.TrimSuffix(f.QuantAQ.BaseURL, "/"),
			KeyFile: f.QuantAQ.KeyFile,
			KeyEnv:  f.QuantAQ.KeyEnv,
		},
		HTTP: HTTP{Addr: f.HTTP.Addr},
		MQTT: MQTT{
			Enabled:        f.MQTT.Enabled,
			TelemetryTopic: f.Telemetry.Topic,
			CommandTopic:   f.Command.Topic,
		},
	}

	for _, sn := range f.Devices {
		if sn = strings.TrimSpace(sn); sn != "" {
			cfg.Devices = append(cfg.Devices, sn)
		}
	}

	var err error
	if cfg.QuantAQ.Timeout, err = parseDuration(
		"quantaq.timeout",
		f.QuantAQ.Timeout,
		false,
	); err != nil {
		return nil, err
	}
	if cfg.Schedule.GraphInterval, err = parseDuration(
		"schedule.graph_interval",
		f.Schedule.GraphInterval,
		true,
	); err != nil {
		return nil, err
	}
	if cfg.Schedule.LatestInterval, err = parseDuration(
		"schedule.latest_interval",
		f.Schedule.LatestInterval,
		true,
	); err != nil {
		return nil, err
	}

	if cfg.QuantAQ.BaseURL == "" {
		return nil, &Error{Key: "quantaq.base_url", Err: errEmpty}
	}
	if cfg.QuantAQ.KeyFile == "" && cfg.QuantAQ.KeyEnv == "" {
		return nil, &Error{Key: "quantaq.key_env", Err: errEmpty}
	}
	if cfg.MQTT.Enabled && !strings.Contains(cfg.MQTT.CommandTopic, "{sn}") {
		return nil, &Error{
			Key:   "command.topic",
			Value: cfg.MQTT.CommandTopic,
			Err:   errNoDevice,
		}
	}
	return cfg, nil
}

var (
	errEmpty    = errors.New("must not be empty")
	errPositive = errors.New("must be positive")
	errNegative = errors.New("must not be negative")
	errNoDevice = errors.New("must contain the {sn} token")
)

// Durations are ISO 8601, e.g. PT15M.
func parseDuration(
	key, value string,
	allowZero bool,
) (time.Duration, error) {
	d, err := duration.Parse(value)
	if err != nil {
		return 0, &Error{Key: key, Value: value, Err: err}
	}
	res := d.ToTimeDuration()
	switch {
	case res < 0:
		return 0, &Error{Key: key, Value: value, Err: errNegative}
	case res == 0 && !allowZero:
		return 0, &Error{Key: key, Value: value, Err: errPositive}
	}
	return res, nil
}

func (e *Error) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s %s", ErrInvalid, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %s %q: %s", ErrInvalid, e.Key, e.Value, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrInvalid, e.Err}
}

// Attrs exposes the offending key for structured logging.
func (e *Error) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("key", e.Key),
		slog.String("value", e.Value),
	}
}
