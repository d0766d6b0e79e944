// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package latest keeps the most recent data point of each device up to date
// with the QuantAQ device API.
package latest

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

type (
	// Updater writes the newest final sample of a device, joined with its
	// newest raw sample, to the latest node.
	Updater struct {
		store  store.Store
		client *quantaq.Client
		log    log.Logger
	}

	// Option represents a single option for the updater.
	Option interface{ latest(*Options) }

	// Options are the resolved updater options.
	Options struct {
		Logger *slog.Logger
	}

	withLogger struct{ *slog.Logger }
)

// NewUpdater creates a latest node updater.
func NewUpdater(
	s store.Store,
	client *quantaq.Client,
	opt ...Option,
) *Updater {
	var opts Options
	opts.Apply(opt)

	return &Updater{
		store:  s,
		client: client,
		log:    log.Wrap(opts.Logger),
	}
}

// UpdateLatestNode fetches the newest final sample of the device and, if it
// is at least a minute newer than the stored latest point (or there is none),
// writes it restructured to the latest node and archives it under the data
// node. It returns the point written, or nil if there was no new data.
func (u *Updater) UpdateLatestNode(
	ctx context.Context,
	token quantaq.Token,
	sn string,
) (p telemetry.DataPoint, err error) {
	timer := prometheus.NewTimer(metrics.UpdateDuration.WithLabelValues("latest"))
	defer timer.ObserveDuration()

	outcome := metrics.OutcomeOK
	defer func() {
		if err != nil {
			outcome = metrics.OutcomeError
		}
		metrics.LatestUpdates.WithLabelValues(outcome).Inc()
	}()

	attr := slog.String("sn", sn)

	var stored telemetry.DataPoint
	if _, err := u.store.Read(ctx, store.LatestPath(sn), &stored); err != nil {
		return nil, err
	}

	final, err := u.client.Newest(ctx, token, sn, quantaq.Final)
	if err != nil {
		return nil, err
	}
	if final == nil {
		u.log.Warn(ctx, "device has no final data", attr)
		outcome = metrics.OutcomeSkipped
		return nil, nil
	}
	if _, err := final.Time(); err != nil {
		return nil, err
	}

	if stored != nil {
		fresh, err := telemetry.NewDataIsAvailable(stored, final)
		if err != nil {
			return nil, err
		}
		if !fresh {
			u.log.Info(ctx, "no new data available", attr)
			outcome = metrics.OutcomeSkipped
			return nil, nil
		}
	}

	raw, err := u.client.Newest(ctx, token, sn, quantaq.Raw)
	if err != nil {
		return nil, err
	}

	p = telemetry.Restructure(final, raw)
	fields := map[string]any{"latest": p}
	fields["data/"+final.Timestamp()] = telemetry.TrimGeo(final)
	if err := u.store.Update(ctx, sn, fields); err != nil {
		return nil, err
	}

	u.log.Debug(ctx, "latest data point updated", attr,
		slog.String("timestamp", p.Timestamp()),
	)
	return p, nil
}

// Apply resolves the provided list of options.
func (o *Options) Apply(opts []Option, rest ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt.latest(o)
		}
	}
	for _, opt := range rest {
		if opt != nil {
			opt.latest(o)
		}
	}
}

func (o *Options) latest(opt *Options) {
	if o != nil {
		*opt = *o
	}
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) Option {
	return withLogger{logger}
}

func (o withLogger) latest(opt *Options) {
	opt.Logger = o.Logger
}
