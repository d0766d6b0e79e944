// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Azure/iot-operations-sdks/go/mqtt"
	"github.com/Azure/iot-operations-sdks/go/protocol"
	"github.com/Azure/iot-operations-sdks/go/services/statestore"
	"github.com/airpartners/ade/graph"
	"github.com/airpartners/ade/internal/config"
	"github.com/airpartners/ade/latest"
	"github.com/airpartners/ade/quantaq"
	"github.com/airpartners/ade/service"
	"github.com/airpartners/ade/store"
)

// app holds the wired components. Without MQTT the nodes are kept in memory,
// which is only useful for trying the service out.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   store.Store
	watcher store.Watcher
	service *service.Service

	protocol   *protocol.Application
	mqttClient *mqtt.SessionClient
	stateStore *statestore.Client[string, []byte]
	executor   *protocol.CommandExecutor[service.UpdateRequest, service.UpdateResponse]
}

func newApp(ctx context.Context, f *flags) (*app, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: f.logger()}
	if err := a.connect(ctx); err != nil {
		a.Close()
		return nil, err
	}

	client := quantaq.NewClient(
		quantaq.WithBaseURL(cfg.QuantAQ.BaseURL),
		quantaq.WithTimeout(cfg.QuantAQ.Timeout),
		quantaq.WithLogger(a.log),
	)

	var opts []service.Option
	opts = append(opts, service.WithLogger(a.log))
	if a.mqttClient != nil {
		notifier, err := service.NewTelemetryNotifier(
			a.protocol,
			a.mqttClient,
			cfg.MQTT.TelemetryTopic,
			protocol.WithLogger(a.log),
		)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create telemetry sender: %w", err)
		}
		opts = append(opts, service.WithNotifier(notifier))
	}

	a.service = service.New(
		a.store,
		graph.NewUpdater(a.store, client, graph.WithLogger(a.log)),
		latest.NewUpdater(a.store, client, latest.WithLogger(a.log)),
		a.token(),
		opts...,
	)
	return a, nil
}

func (a *app) connect(ctx context.Context) error {
	if !a.cfg.MQTT.Enabled {
		a.log.Warn("MQTT disabled, keeping device nodes in memory")
		mem := store.NewMemory()
		a.store, a.watcher = mem, mem
		return nil
	}

	var err error
	a.protocol, err = protocol.NewApplication(protocol.WithLogger(a.log))
	if err != nil {
		return fmt.Errorf("failed to create protocol application: %w", err)
	}

	a.mqttClient, err = mqtt.NewSessionClientFromEnv(mqtt.WithLogger(a.log))
	if err != nil {
		return fmt.Errorf("failed to create MQTT client: %w", err)
	}

	a.stateStore, err = statestore.New[string, []byte](
		a.protocol,
		a.mqttClient,
		statestore.WithLogger(a.log),
	)
	if err != nil {
		return fmt.Errorf("failed to create state store client: %w", err)
	}

	if err := a.mqttClient.Start(); err != nil {
		return fmt.Errorf("failed to start MQTT connection: %w", err)
	}
	if err := a.stateStore.Start(ctx); err != nil {
		return fmt.Errorf("failed to start state store client: %w", err)
	}

	ss := store.NewStateStore(a.stateStore, store.WithLogger(a.log))
	a.store, a.watcher = ss, ss
	return nil
}

// The API key comes from a mounted secret file if one is configured.
func (a *app) token() quantaq.TokenProvider {
	if a.cfg.QuantAQ.KeyFile != "" {
		return quantaq.FileKey(a.cfg.QuantAQ.KeyFile)
	}
	return quantaq.EnvKey(a.cfg.QuantAQ.KeyEnv)
}

// Listen starts the update command executor, if MQTT is enabled.
func (a *app) listen(ctx context.Context) error {
	if a.mqttClient == nil {
		return nil
	}

	var err error
	a.executor, err = service.NewCommandExecutor(
		a.protocol,
		a.mqttClient,
		a.cfg.MQTT.CommandTopic,
		a.service,
		protocol.WithLogger(a.log),
	)
	if err != nil {
		return fmt.Errorf("failed to create command executor: %w", err)
	}
	return a.executor.Start(ctx)
}

func (a *app) Close() {
	if a.executor != nil {
		a.executor.Close()
	}
	if a.stateStore != nil {
		a.stateStore.Close()
	}
}
