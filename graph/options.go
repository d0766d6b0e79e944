// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package graph

import (
	"log/slog"

	"github.com/airpartners/ade/quantaq"
)

type (
	// Option represents a single option for the graph updater and the
	// backfillers.
	Option interface{ graph(*Options) }

	// Options are the resolved graph options.
	Options struct {
		PerPage int
		Limit   int
		Logger  *slog.Logger
	}

	// WithPerPage sets the number of records fetched per backfill request.
	WithPerPage int

	// WithLimit sets the number of records a backfill search may cover.
	WithLimit int

	withLogger struct{ *slog.Logger }
)

// Apply resolves the provided list of options.
func (o *Options) Apply(opts []Option, rest ...Option) {
	if o.PerPage == 0 {
		o.PerPage = quantaq.DefaultPerPage
	}
	if o.Limit == 0 {
		o.Limit = quantaq.DefaultLimit
	}
	for _, opt := range opts {
		if opt != nil {
			opt.graph(o)
		}
	}
	for _, opt := range rest {
		if opt != nil {
			opt.graph(o)
		}
	}
}

func (o *Options) graph(opt *Options) {
	if o != nil {
		*opt = *o
	}
}

func (o WithPerPage) graph(opt *Options) {
	opt.PerPage = int(o)
}

func (o WithLimit) graph(opt *Options) {
	opt.Limit = int(o)
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) Option {
	return withLogger{logger}
}

func (o withLogger) graph(opt *Options) {
	opt.Logger = o.Logger
}
