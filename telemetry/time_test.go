// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package telemetry_test

import (
	"errors"
	"testing"
	"time"

	"github.com/airpartners/ade/telemetry"
	"github.com/stretchr/testify/require"
)

func TestEnoughTimePassed(t *testing.T) {
	for _, tc := range []struct {
		name      string
		head      string
		latest    string
		threshold time.Duration
		exp       bool
	}{
		{"exact boundary", "2020-04-02T22:54:48", "2020-04-02T23:09:48", 15 * time.Minute, true},
		{"one second short", "2020-04-02T22:34:48", "2020-04-02T22:49:47", 15 * time.Minute, false},
		{"one minute", "2020-04-02T23:54:48", "2020-04-02T23:55:48", time.Minute, true},
		{"under a minute", "2020-04-02T23:54:48", "2020-04-02T23:55:47", time.Minute, false},
		{"older latest", "2020-04-02T23:54:48", "2020-04-02T22:54:48", 0, false},
		{"zones", "2020-04-02T23:00:00Z", "2020-04-02T19:30:00-04:00", 30 * time.Minute, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := telemetry.EnoughTimePassed(tc.head, tc.latest, tc.threshold)
			require.NoError(t, err)
			require.Equal(t, tc.exp, ok)
		})
	}
}

func TestEnoughTimePassedInvalid(t *testing.T) {
	_, err := telemetry.EnoughTimePassed("12:07", "2020-04-02T23:55:48", time.Minute)
	require.ErrorIs(t, err, telemetry.ErrInvalidTimestamp)

	var te *telemetry.TimestampError
	require.True(t, errors.As(err, &te))
	require.Equal(t, "12:07", te.Value)

	_, err = telemetry.EnoughTimePassed("2020-04-02T23:55:48", "", time.Minute)
	require.ErrorIs(t, err, telemetry.ErrInvalidTimestamp)
}

func TestNewDataIsAvailable(t *testing.T) {
	head := telemetry.DataPoint{"timestamp": "2020-04-02T23:54:48"}

	ok, err := telemetry.NewDataIsAvailable(head, telemetry.DataPoint{"timestamp": "2020-04-02T23:55:48"})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = telemetry.NewDataIsAvailable(head, telemetry.DataPoint{"timestamp": "2020-04-02T23:55:47"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCloneIsDeep(t *testing.T) {
	g := telemetry.Graph{{
		"timestamp": "T",
		"geo":       map[string]any{"lat": 1.0},
	}}
	c := g.Clone()
	c[0]["geo"].(map[string]any)["lat"] = 2.0
	require.Equal(t, 1.0, g[0]["geo"].(map[string]any)["lat"])
}
