// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package graph

import (
	"context"
	"log/slog"
	"time"

	"github.com/airpartners/ade/internal/log"
	"github.com/airpartners/ade/internal/metrics"
	"github.com/airpartners/ade/quantaq"
	"github.com/airpartners/ade/telemetry"
)

// Gap backfill thresholds.
const (
	// GapInterval is the spacing between the two newest points above which
	// the graph has a gap.
	GapInterval = 30 * time.Minute

	// GapSpacing is the minimum spacing between inserted points.
	GapSpacing = 20 * time.Minute

	// GapMargin is how much newer than the point preceding the gap an
	// inserted point must be.
	GapMargin = 10 * time.Minute
)

// GapFiller inserts final samples between the head of a graph and the point
// after it when the two are far apart.
type GapFiller struct {
	client *quantaq.Client
	pages  []quantaq.PageOption
	log    log.Logger
}

// NewGapFiller creates a gap filler searching the final data feed.
func NewGapFiller(client *quantaq.Client, opt ...Option) *GapFiller {
	var opts Options
	opts.Apply(opt)

	return &GapFiller{
		client: client,
		pages: []quantaq.PageOption{
			quantaq.WithPerPage(opts.PerPage),
			quantaq.WithLimit(opts.Limit),
			quantaq.WithDescending(true),
		},
		log: log.Wrap(opts.Logger),
	}
}

// Fill returns g with any samples found in the gap inserted after its head.
// Graphs without a gap are returned unchanged and without any request.
func (f *GapFiller) Fill(
	ctx context.Context,
	token quantaq.Token,
	sn string,
	g telemetry.Graph,
) (telemetry.Graph, error) {
	if len(g) < 2 {
		return g, nil
	}

	head, rest := g[0], g[1:]
	prev := rest[0]

	gap, err := telemetry.EnoughTimePassed(
		prev.Timestamp(),
		head.Timestamp(),
		GapInterval,
	)
	if err != nil || !gap {
		return g, err
	}
	bound, err := prev.Time()
	if err != nil {
		return nil, err
	}

	var inserted telemetry.Graph
	next := head
	pager := f.client.Pages(token, sn, quantaq.Final, f.pages...)

search:
	for pager.More() {
		page, err := pager.Next(ctx)
		if err != nil {
			return nil, err
		}
		if len(page.Data) == 0 {
			break
		}

		// Nothing newer than the point before the gap remains upstream.
		newest, err := page.Data[0].Time()
		if err != nil {
			return nil, err
		}
		if !newest.After(bound) {
			break
		}

		for _, p := range page.Data {
			ok, err := f.admit(prev, next, p)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			next = telemetry.NormalizeGraphPoint(p)
			inserted = append(inserted, next)

			open, err := telemetry.EnoughTimePassed(
				prev.Timestamp(),
				next.Timestamp(),
				GapInterval,
			)
			if err != nil {
				return nil, err
			}
			if !open {
				break search
			}
		}

		oldest, err := page.Data[len(page.Data)-1].Time()
		if err != nil {
			return nil, err
		}
		if !oldest.After(bound) {
			break
		}
	}

	f.log.Debug(ctx, "gap backfill finished",
		slog.String("sn", sn),
		slog.Int("inserted", len(inserted)),
		slog.Int("requests", pager.Requests()),
	)
	if len(inserted) == 0 {
		return g, nil
	}
	metrics.BackfilledPoints.WithLabelValues("gap").Add(float64(len(inserted)))

	filled := make(telemetry.Graph, 0, len(g)+len(inserted))
	filled = append(filled, head)
	filled = append(filled, inserted...)
	return append(filled, rest...), nil
}

// A sample fits the gap if it is GapSpacing older than the last point chained
// into the gap and GapMargin newer than the point before the gap.
func (*GapFiller) admit(prev, next, p telemetry.DataPoint) (bool, error) {
	older, err := telemetry.EnoughTimePassed(
		p.Timestamp(),
		next.Timestamp(),
		GapSpacing,
	)
	if err != nil || !older {
		return false, err
	}
	return telemetry.EnoughTimePassed(
		prev.Timestamp(),
		p.Timestamp(),
		GapMargin,
	)
}
