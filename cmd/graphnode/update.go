// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"
)

func updateCmd(f *flags) *cobra.Command {
	var withLatest bool

	cmd := &cobra.Command{
		Use:   "update [sn...]",
		Short: "Update the graph node of the given devices once",
		Long: `Update the graph node of the given devices, or of every configured
device if none are given, and print the written graphs as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), f, cmd.OutOrStdout(), args,
				func(ctx context.Context, a *app, sn string) (any, error) {
					if withLatest {
						if _, err := a.service.UpdateLatest(ctx, sn); err != nil {
							return nil, err
						}
					}
					return a.service.Update(ctx, sn)
				},
			)
		},
	}
	cmd.Flags().BoolVarP(
		&withLatest, "latest", "l", false, "refresh the latest node first",
	)
	return cmd
}

func latestCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "latest [sn...]",
		Short: "Update the latest node of the given devices once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), f, cmd.OutOrStdout(), args,
				func(ctx context.Context, a *app, sn string) (any, error) {
					return a.service.UpdateLatest(ctx, sn)
				},
			)
		},
	}
}

// RunOnce runs the update for each device in turn, printing one JSON object
// per device. Every device is attempted; the errors are joined.
func runOnce(
	ctx context.Context,
	f *flags,
	out io.Writer,
	devices []string,
	update func(context.Context, *app, string) (any, error),
) error {
	a, err := newApp(ctx, f)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(devices) == 0 {
		devices = a.cfg.Devices
	}

	enc := json.NewEncoder(out)
	var errs []error
	for _, sn := range devices {
		res, err := update(ctx, a, sn)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := enc.Encode(map[string]any{"sn": sn, "result": res}); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}
