// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package service exposes the device updaters through their triggers: a
// periodic schedule, changes to the stored latest point, MQTT commands and
// HTTP. Every trigger goes through Service, which serializes updates per
// device.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/airpartners/ade/internal/log"
	"github.com/airpartners/ade/quantaq"
	"github.com/airpartners/ade/store"
	"github.com/airpartners/ade/telemetry"
	"github.com/google/uuid"
)

type (
	// GraphUpdater updates the graph node of a device.
	GraphUpdater interface {
		UpdateGraphNode(
			ctx context.Context,
			token quantaq.Token,
			sn string,
		) (telemetry.Graph, error)
	}

	// LatestUpdater updates the latest node of a device.
	LatestUpdater interface {
		UpdateLatestNode(
			ctx context.Context,
			token quantaq.Token,
			sn string,
		) (telemetry.DataPoint, error)
	}

	// Notifier is told about every graph written.
	Notifier interface {
		GraphUpdated(ctx context.Context, ev *GraphEvent) error
	}

	// Service runs device updates. Updates of different devices run
	// concurrently; updates of the same device never interleave.
	Service struct {
		store    store.Store
		graph    GraphUpdater
		latest   LatestUpdater
		token    quantaq.TokenProvider
		notifier Notifier
		locks    keyedMutex
		log      log.Logger
	}

	// Option represents a single option for the service.
	Option interface{ service(*Options) }

	// Options are the resolved service options.
	Options struct {
		Notifier Notifier
		Logger   *slog.Logger
	}

	withNotifier struct{ Notifier }

	withLogger struct{ *slog.Logger }
)

// New creates a service. The store is used to serve stored graphs; updates go
// through the updaters.
func New(
	s store.Store,
	graph GraphUpdater,
	latest LatestUpdater,
	token quantaq.TokenProvider,
	opt ...Option,
) *Service {
	var opts Options
	opts.Apply(opt)

	return &Service{
		store:    s,
		graph:    graph,
		latest:   latest,
		token:    token,
		notifier: opts.Notifier,
		locks:    keyedMutex{locks: map[string]*keyLock{}},
		log:      log.Wrap(opts.Logger),
	}
}

// Update runs a graph node update for the device and notifies about the
// result. It returns the graph written, or nil if the device has no latest
// point yet.
func (s *Service) Update(
	ctx context.Context,
	sn string,
) (telemetry.Graph, error) {
	if sn == "" {
		return nil, ErrNoDevice
	}
	run := uuid.NewString()
	logger := s.log.With(slog.String("sn", sn), slog.String("run", run))

	unlock, err := s.locks.Lock(ctx, sn)
	if err != nil {
		return nil, err
	}
	defer unlock()

	token, err := s.token(ctx)
	if err != nil {
		logger.Err(ctx, "failed to get API token", err)
		return nil, fmt.Errorf("getting API token: %w", err)
	}

	logger.Debug(ctx, "updating graph node")
	g, err := s.graph.UpdateGraphNode(ctx, token, sn)
	if err != nil {
		logger.Err(ctx, "graph node update failed", err)
		return nil, err
	}
	if g == nil {
		return nil, nil
	}

	if s.notifier != nil {
		ev := newGraphEvent(run, sn, g)
		if err := s.notifier.GraphUpdated(ctx, ev); err != nil {
			// The graph is stored either way.
			logger.Err(ctx, "failed to send graph update", err)
		}
	}
	return g, nil
}

// UpdateLatest runs a latest node update for the device. It returns the
// point written, or nil if there was no new data.
func (s *Service) UpdateLatest(
	ctx context.Context,
	sn string,
) (telemetry.DataPoint, error) {
	if sn == "" {
		return nil, ErrNoDevice
	}
	logger := s.log.With(
		slog.String("sn", sn),
		slog.String("run", uuid.NewString()),
	)

	unlock, err := s.locks.Lock(ctx, sn)
	if err != nil {
		return nil, err
	}
	defer unlock()

	token, err := s.token(ctx)
	if err != nil {
		logger.Err(ctx, "failed to get API token", err)
		return nil, fmt.Errorf("getting API token: %w", err)
	}

	logger.Debug(ctx, "updating latest node")
	p, err := s.latest.UpdateLatestNode(ctx, token, sn)
	if err != nil {
		logger.Err(ctx, "latest node update failed", err)
		return nil, err
	}
	return p, nil
}

// Graph returns the stored graph of the device.
func (s *Service) Graph(
	ctx context.Context,
	sn string,
) (telemetry.Graph, bool, error) {
	var g telemetry.Graph
	ok, err := s.store.Read(ctx, store.GraphPath(sn), &g)
	if err != nil || !ok {
		return nil, false, err
	}
	return g, true, nil
}

// Apply resolves the provided list of options.
func (o *Options) Apply(opts []Option, rest ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt.service(o)
		}
	}
	for _, opt := range rest {
		if opt != nil {
			opt.service(o)
		}
	}
}

func (o *Options) service(opt *Options) {
	if o != nil {
		*opt = *o
	}
}

// WithNotifier sends an event for every graph written.
func WithNotifier(n Notifier) Option {
	return withNotifier{n}
}

func (o withNotifier) service(opt *Options) {
	opt.Notifier = o.Notifier
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) Option {
	return withLogger{logger}
}

func (o withLogger) service(opt *Options) {
	opt.Logger = o.Logger
}
