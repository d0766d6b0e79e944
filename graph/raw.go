// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package graph

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/airpartners/ade/internal/log"
	"github.com/airpartners/ade/internal/metrics"
	"github.com/airpartners/ade/quantaq"
	"github.com/airpartners/ade/telemetry"
)

type (
	// RawFiller joins raw samples into graph points that lack raw fields.
	RawFiller struct {
		client *quantaq.Client
		pages  []quantaq.PageOption
		log    log.Logger
	}

	// rawCursor holds the current page of a raw data search and the bounds
	// of its timestamps. The page is fetched on first use.
	rawCursor struct {
		pager   *quantaq.Pager
		data    telemetry.Graph
		newest  time.Time
		oldest  time.Time
		started bool
	}
)

// NewRawFiller creates a raw filler searching the raw data feed.
func NewRawFiller(client *quantaq.Client, opt ...Option) *RawFiller {
	var opts Options
	opts.Apply(opt)

	return &RawFiller{
		client: client,
		pages: []quantaq.PageOption{
			quantaq.WithPerPage(opts.PerPage),
			quantaq.WithLimit(opts.Limit),
		},
		log: log.Wrap(opts.Logger),
	}
}

// Fill walks g newest first and joins the raw sample with the same timestamp
// into each point missing raw fields. One page cursor is shared by the whole
// walk, so the graph must be ordered newest first. Points without a match are
// kept as they are.
func (f *RawFiller) Fill(
	ctx context.Context,
	token quantaq.Token,
	sn string,
	g telemetry.Graph,
) (telemetry.Graph, error) {
	cur := &rawCursor{pager: f.client.Pages(token, sn, quantaq.Raw, f.pages...)}
	filled := make(telemetry.Graph, 0, len(g))
	joined := 0

	for _, p := range g {
		if !telemetry.NeedsRawData(p) {
			filled = append(filled, p)
			continue
		}

		raw, err := cur.find(ctx, p)
		if err != nil {
			return nil, err
		}
		if raw != nil {
			p = telemetry.JoinRaw(p, raw)
			joined++
		}
		filled = append(filled, p)
	}

	f.log.Debug(ctx, "raw backfill finished",
		slog.String("sn", sn),
		slog.Int("joined", joined),
		slog.Int("requests", cur.pager.Requests()),
	)
	metrics.BackfilledPoints.WithLabelValues("raw").Add(float64(joined))
	return filled, nil
}

// Find returns the raw sample whose timestamp equals that of p, or nil if the
// feed does not have it within the budget.
func (c *rawCursor) find(
	ctx context.Context,
	p telemetry.DataPoint,
) (telemetry.DataPoint, error) {
	t, err := p.Time()
	if err != nil {
		return nil, err
	}

	if !c.started {
		c.started = true
		if err := c.advance(ctx); err != nil {
			return nil, err
		}
	}

	for len(c.data) > 0 {
		switch {
		case t.After(c.newest):
			// Not reported upstream yet.
			return nil, nil

		case t.Before(c.oldest):
			if !c.pager.More() {
				return nil, nil
			}
			if err := c.advance(ctx); err != nil {
				return nil, err
			}

		default:
			// In range; a missing timestamp was never reported.
			ts := p.Timestamp()
			for _, raw := range c.data {
				if raw.Timestamp() == ts {
					return raw, nil
				}
			}
			return nil, nil
		}
	}
	return nil, nil
}

// Advance loads the next page. An empty or missing page leaves the cursor
// without data, which ends every later search.
func (c *rawCursor) advance(ctx context.Context) error {
	page, err := c.pager.Next(ctx)
	switch {
	case errors.Is(err, quantaq.ErrBudgetExhausted),
		errors.Is(err, quantaq.ErrNoMorePages):
		c.data = nil
		return nil
	case err != nil:
		return err
	}

	c.data = page.Data
	if len(c.data) == 0 {
		return nil
	}
	if c.newest, err = c.data[0].Time(); err != nil {
		return err
	}
	if c.oldest, err = c.data[len(c.data)-1].Time(); err != nil {
		return err
	}
	return nil
}
