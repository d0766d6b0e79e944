// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduled, change-driven, MQTT and HTTP triggers",
		Long: `Run the graph node service until interrupted.

The latest node of every configured device is refreshed on the latest
interval and its graph node on the graph interval. Graph nodes are also
updated whenever a latest node is written, on the MQTT update command and
on POST /devices/{sn}/update.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(
				cmd.Context(),
				os.Interrupt,
				syscall.SIGTERM,
			)
			defer stop()

			a, err := newApp(ctx, f)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.serve(ctx)
		},
	}
}

// Serve runs every trigger until ctx is done or one of them fails.
func (a *app) serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.listen(ctx); err != nil {
		return err
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.service.Schedule(
			ctx,
			a.cfg.Devices,
			a.cfg.Schedule.GraphInterval,
			a.cfg.Schedule.LatestInterval,
		)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.service.Watch(ctx, a.watcher, a.cfg.Devices); err != nil {
			errs <- fmt.Errorf("failed to watch latest nodes: %w", err)
		}
	}()

	if a.cfg.HTTP.Addr != "" {
		srv := &http.Server{
			Addr:              a.cfg.HTTP.Addr,
			Handler:           a.service.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			shutdown, cancel := context.WithTimeout(
				context.Background(),
				shutdownTimeout,
			)
			defer cancel()
			_ = srv.Shutdown(shutdown)
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			a.log.Info("listening", "addr", srv.Addr)
			err := srv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("HTTP server failed: %w", err)
			}
		}()
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errs:
	}

	a.log.Info("shutting down...")
	cancel()
	wg.Wait()
	return err
}
