// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/airpartners/ade/internal/wallclock"
)

// Schedule refreshes the latest node of every device each latestEvery and
// updates the graph node of every device each graphEvery, until ctx is done.
// A zero interval disables the corresponding update. Ticks arriving while a
// round is still running are dropped.
func (s *Service) Schedule(
	ctx context.Context,
	devices []string,
	graphEvery time.Duration,
	latestEvery time.Duration,
) {
	var graph, latest <-chan time.Time
	if graphEvery > 0 {
		t := wallclock.Instance.NewTicker(graphEvery)
		defer t.Stop()
		graph = t.C()
	}
	if latestEvery > 0 {
		t := wallclock.Instance.NewTicker(latestEvery)
		defer t.Stop()
		latest = t.C()
	}

	s.log.Info(ctx, "schedule started",
		slog.Int("devices", len(devices)),
		slog.Duration("graph", graphEvery),
		slog.Duration("latest", latestEvery),
	)

	for {
		select {
		case <-latest:
			s.round(ctx, devices, func(ctx context.Context, sn string) error {
				_, err := s.UpdateLatest(ctx, sn)
				return err
			})
		case <-graph:
			s.round(ctx, devices, func(ctx context.Context, sn string) error {
				_, err := s.Update(ctx, sn)
				return err
			})
		case <-ctx.Done():
			s.log.Info(ctx, "schedule stopped")
			return
		}
	}
}

// Round runs one update per device concurrently and waits for all of them.
// Failures are logged by the updates themselves.
func (s *Service) round(
	ctx context.Context,
	devices []string,
	update func(context.Context, string) error,
) {
	var wg sync.WaitGroup
	for _, sn := range devices {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = update(ctx, sn)
		}()
	}
	wg.Wait()
}
