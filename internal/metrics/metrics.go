// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
	OutcomeSkipped  = "skipped"
	OutcomeCreated  = "created"
)

var (
	// Registry holds every collector exported by the service.
	Registry = prometheus.NewRegistry()

	// UpstreamRequests counts QuantAQ API requests by outcome.
	UpstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ade_upstream_requests_total",
		Help: "Total number of QuantAQ device API requests",
	}, []string{"outcome"})

	// GraphUpdates counts graph node updates by outcome.
	GraphUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ade_graph_updates_total",
		Help: "Total number of graph node updates",
	}, []string{"outcome"})

	// LatestUpdates counts latest node updates by outcome.
	LatestUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ade_latest_updates_total",
		Help: "Total number of latest node updates",
	}, []string{"outcome"})

	// BackfilledPoints counts points inserted by gap backfill and points
	// enriched by raw backfill.
	BackfilledPoints = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ade_backfilled_points_total",
		Help: "Total number of graph points inserted or enriched by backfill",
	}, []string{"kind"})

	// UpdateDuration observes the duration of triggered device updates.
	UpdateDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ade_update_duration_seconds",
		Help:    "Duration of triggered device updates in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"node"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		UpstreamRequests,
		GraphUpdates,
		LatestUpdates,
		BackfilledPoints,
		UpdateDuration,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
