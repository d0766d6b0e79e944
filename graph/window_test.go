// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package graph_test

import (
	"testing"

	"github.com/airpartners/ade/graph"
	"github.com/airpartners/ade/telemetry"
	"github.com/stretchr/testify/require"
)

func TestBuildNewGraphEvictsDayOld(t *testing.T) {
	current := telemetry.Graph{
		{"timestamp": "2020-04-02T22:54:48"},
		{"timestamp": "2020-03-02T22:54:48"},
	}
	latest := telemetry.DataPoint{"timestamp": "2020-04-02T23:09:48"}

	g, err := graph.BuildNewGraph(current, latest)
	require.NoError(t, err)
	require.Equal(t, telemetry.Graph{
		{"timestamp": "2020-04-02T23:09:48"},
		{"timestamp": "2020-04-02T22:54:48"},
	}, g)
}

func TestBuildNewGraphTooSoon(t *testing.T) {
	current := telemetry.Graph{
		{"timestamp": "2020-04-02T22:54:48", "pm25": 1.0},
		{"timestamp": "2020-04-02T22:39:48", "pm25": 2.0},
	}

	for _, latest := range []string{
		"2020-04-02T23:09:47",
		"2020-04-02T22:54:48",
		"2020-04-02T22:00:00",
	} {
		g, err := graph.BuildNewGraph(
			current,
			telemetry.DataPoint{"timestamp": latest},
		)
		require.NoError(t, err)
		require.Equal(t, current, g, latest)
		require.Same(t, &current[0], &g[0])
	}
}

func TestBuildNewGraphWindowBoundary(t *testing.T) {
	current := telemetry.Graph{
		{"timestamp": "2024-01-02T11:00:00"},
		{"timestamp": "2024-01-01T13:00:00"},
		{"timestamp": "2024-01-01T12:00:00"},
		{"timestamp": "2024-01-01T11:59:59"},
		{"timestamp": "2023-12-31T12:00:00"},
	}
	latest := telemetry.DataPoint{"timestamp": "2024-01-02T12:00:00"}

	g, err := graph.BuildNewGraph(current, latest)
	require.NoError(t, err)
	require.Equal(t, []string{
		"2024-01-02T12:00:00",
		"2024-01-02T11:00:00",
		"2024-01-01T13:00:00",
		"2024-01-01T12:00:00",
	}, timestamps(g))

	head, err := latest.Time()
	require.NoError(t, err)
	for _, p := range g {
		pt, err := p.Time()
		require.NoError(t, err)
		require.LessOrEqual(t, head.Sub(pt), telemetry.WindowSize)
	}
}

func TestBuildNewGraphInvalidTimestamp(t *testing.T) {
	_, err := graph.BuildNewGraph(
		telemetry.Graph{{"timestamp": "yesterday"}},
		telemetry.DataPoint{"timestamp": "2024-01-02T12:00:00"},
	)
	require.ErrorIs(t, err, telemetry.ErrInvalidTimestamp)

	_, err = graph.BuildNewGraph(
		telemetry.Graph{
			{"timestamp": "2024-01-02T11:00:00"},
			{"pm25": 1.0},
		},
		telemetry.DataPoint{"timestamp": "2024-01-02T12:00:00"},
	)
	require.ErrorIs(t, err, telemetry.ErrInvalidTimestamp)
}
