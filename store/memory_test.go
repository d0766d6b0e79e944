// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/airpartners/ade/store"
	"github.com/airpartners/ade/telemetry"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	require.Equal(t, "MOD-00001/latest", store.LatestPath("MOD-00001"))
	require.Equal(t, "MOD-00001/graph", store.GraphPath("MOD-00001"))
	require.Equal(t,
		"MOD-00001/data/2024-01-01T12:00:00",
		store.DataPath("MOD-00001", "2024-01-01T12:00:00"),
	)
}

func TestMemoryReadWrite(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	var g telemetry.Graph
	ok, err := s.Read(ctx, "SN1/graph", &g)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, g)

	in := telemetry.Graph{
		{"timestamp": "2024-01-01T12:00:00", "pm25": 4.5},
		{"timestamp": "2024-01-01T11:00:00", "pm25": 3},
	}
	require.NoError(t, s.Write(ctx, "SN1/graph", in))

	ok, err = s.Read(ctx, "SN1/graph", &g)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, g, 2)
	require.Equal(t, "2024-01-01T12:00:00", g[0].Timestamp())

	// Numbers come back as JSON numbers.
	require.Equal(t, float64(3), g[1]["pm25"])
}

func TestMemoryUpdate(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	require.NoError(t, s.Update(ctx, "SN1", map[string]any{
		"graph":  telemetry.Graph{},
		"latest": telemetry.DataPoint{"timestamp": "2024-01-01T12:00:00"},
	}))

	var p telemetry.DataPoint
	ok, err := s.Read(ctx, store.LatestPath("SN1"), &p)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2024-01-01T12:00:00", p.Timestamp())

	var g telemetry.Graph
	ok, err = s.Read(ctx, store.GraphPath("SN1"), &g)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, g)
}

func TestMemoryErrors(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	err := s.Write(ctx, "SN1/bad", func() {})
	require.Error(t, err)
	require.True(t, errors.Is(err, store.ErrPersistence))

	var serr *store.Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "write", serr.Operation)
	require.Equal(t, "SN1/bad", serr.Path)

	require.NoError(t, s.Write(ctx, "SN1/latest", "not a point"))
	var p telemetry.DataPoint
	_, err = s.Read(ctx, "SN1/latest", &p)
	require.ErrorIs(t, err, store.ErrPersistence)
}

func TestMemoryWatch(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	events, stop, err := s.Watch(ctx, "SN1/latest")
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "SN1/graph", telemetry.Graph{}))
	require.NoError(t, s.Write(ctx, "SN1/latest", telemetry.DataPoint{}))
	require.Equal(t, store.Event{Path: "SN1/latest"}, <-events)

	s.Delete(ctx, "SN1/latest")
	require.Equal(t, store.Event{Path: "SN1/latest", Deleted: true}, <-events)

	stop()
	stop()
	_, ok := <-events
	require.False(t, ok)

	// No watchers left to notify.
	require.NoError(t, s.Write(ctx, "SN1/latest", telemetry.DataPoint{}))
}
