// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Command graphnode keeps the latest and graph nodes of air quality devices
// up to date with the QuantAQ device API.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var Version = "dev"

type flags struct {
	config string
	debug  bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "graphnode",
		Short:         "Maintain per-device latest and graph nodes",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(
		&f.config, "config", "c", "", "configuration file (yaml, json or toml)",
	)
	cmd.PersistentFlags().BoolVar(&f.debug, "debug", false, "log debug output")

	cmd.AddCommand(serveCmd(&f), updateCmd(&f), latestCmd(&f))
	return cmd
}

func (f *flags) logger() *slog.Logger {
	level := slog.LevelInfo
	if f.debug {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
}
