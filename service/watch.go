// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/airpartners/ade/store"
)

// Watch updates the graph node of a device whenever its latest node is
// written, until ctx is done. Deletions are ignored.
func (s *Service) Watch(
	ctx context.Context,
	w store.Watcher,
	devices []string,
) error {
	var stops []func()
	defer func() {
		for _, stop := range stops {
			stop()
		}
	}()

	var wg sync.WaitGroup
	for _, sn := range devices {
		events, stop, err := w.Watch(ctx, store.LatestPath(sn))
		if err != nil {
			return err
		}
		stops = append(stops, stop)

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.follow(ctx, sn, events)
		}()
	}

	s.log.Info(ctx, "watching latest nodes", slog.Int("devices", len(devices)))
	<-ctx.Done()

	for _, stop := range stops {
		stop()
	}
	stops = nil
	wg.Wait()
	return nil
}

func (s *Service) follow(
	ctx context.Context,
	sn string,
	events <-chan store.Event,
) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Deleted {
				continue
			}
			_, _ = s.Update(ctx, sn)
		case <-ctx.Done():
			return
		}
	}
}
