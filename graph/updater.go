// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package graph

import (
	"context"
	"log/slog"

	"github.com/airpartners/ade/internal/log"
	"github.com/airpartners/ade/internal/metrics"
	"github.com/airpartners/ade/quantaq"
	"github.com/airpartners/ade/store"
	"github.com/airpartners/ade/telemetry"
	"github.com/prometheus/client_golang/prometheus"
)

// Updater merges the stored latest point of a device into its stored graph.
type Updater struct {
	store store.Store
	gaps  *GapFiller
	raw   *RawFiller
	log   log.Logger
}

// NewUpdater creates a graph updater backed by the given store and API
// client.
func NewUpdater(
	s store.Store,
	client *quantaq.Client,
	opt ...Option,
) *Updater {
	var opts Options
	opts.Apply(opt)

	return &Updater{
		store: s,
		gaps:  NewGapFiller(client, &opts),
		raw:   NewRawFiller(client, &opts),
		log:   log.Wrap(opts.Logger),
	}
}

// UpdateGraphNode admits the latest point of the device into its graph,
// backfills the graph from the API and writes it back. If backfilling fails,
// the windowed graph is written instead. It returns the graph written, or nil
// if the device has no latest point.
func (u *Updater) UpdateGraphNode(
	ctx context.Context,
	token quantaq.Token,
	sn string,
) (g telemetry.Graph, err error) {
	timer := prometheus.NewTimer(metrics.UpdateDuration.WithLabelValues("graph"))
	defer timer.ObserveDuration()

	outcome := metrics.OutcomeOK
	defer func() {
		if err != nil {
			outcome = metrics.OutcomeError
		}
		metrics.GraphUpdates.WithLabelValues(outcome).Inc()
	}()

	attr := slog.String("sn", sn)

	var latest telemetry.DataPoint
	ok, err := u.store.Read(ctx, store.LatestPath(sn), &latest)
	if err != nil {
		return nil, err
	}
	if !ok || latest == nil {
		u.log.Info(ctx, "no latest data point, graph not updated", attr)
		outcome = metrics.OutcomeSkipped
		return nil, nil
	}
	latest = telemetry.RemoveUnusedData(latest, telemetry.GraphFields)

	current, ok, err := u.readGraph(ctx, sn)
	if err != nil {
		return nil, err
	}
	if !ok {
		u.log.Info(ctx, "creating graph", attr)
		outcome = metrics.OutcomeCreated
		g = telemetry.Graph{latest}
		return g, u.store.Write(ctx, store.GraphPath(sn), g)
	}

	windowed, err := BuildNewGraph(current, latest)
	if err != nil {
		return nil, err
	}

	// The fillers must not touch the points kept for the fallback.
	g, err = u.backfill(ctx, token, sn, windowed.Clone())
	if err != nil {
		u.log.Err(ctx, "backfill failed, writing windowed graph", err, attr)
		outcome = metrics.OutcomeFallback
		g = windowed
	}

	if err := u.store.Write(ctx, store.GraphPath(sn), g); err != nil {
		return nil, err
	}
	u.log.Debug(ctx, "graph updated", attr, slog.Int("points", len(g)))
	return g, nil
}

func (u *Updater) backfill(
	ctx context.Context,
	token quantaq.Token,
	sn string,
	g telemetry.Graph,
) (telemetry.Graph, error) {
	g, err := u.gaps.Fill(ctx, token, sn, g)
	if err != nil {
		return nil, err
	}
	return u.raw.Fill(ctx, token, sn, g)
}

// A graph that is missing, empty or not a sequence is rebuilt from scratch.
// Elements that are not objects are dropped.
func (u *Updater) readGraph(
	ctx context.Context,
	sn string,
) (telemetry.Graph, bool, error) {
	var stored any
	ok, err := u.store.Read(ctx, store.GraphPath(sn), &stored)
	if err != nil || !ok {
		return nil, false, err
	}

	items, ok := stored.([]any)
	if !ok || len(items) == 0 {
		return nil, false, nil
	}

	g := make(telemetry.Graph, 0, len(items))
	for _, item := range items {
		if p, ok := item.(map[string]any); ok {
			g = append(g, p)
		}
	}
	if dropped := len(items) - len(g); dropped > 0 {
		u.log.Warn(ctx, "dropping invalid graph points",
			slog.String("sn", sn),
			slog.Int("dropped", dropped),
		)
	}
	return g, len(g) > 0, nil
}
