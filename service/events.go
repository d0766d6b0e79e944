// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package service

import (
	"context"

	"github.com/Azure/iot-operations-sdks/go/protocol"
	"github.com/airpartners/ade/telemetry"
)

type (
	// GraphEvent announces a written graph.
	GraphEvent struct {
		Run          string              `json:"run"`
		SerialNumber string              `json:"sn"`
		Points       int                 `json:"points"`
		Head         telemetry.DataPoint `json:"head"`
	}

	// TelemetryNotifier publishes graph events as MQTT telemetry. The topic
	// pattern may use the {sn} token.
	TelemetryNotifier struct {
		sender *protocol.TelemetrySender[*GraphEvent]
	}
)

// GraphEventEncoding is the payload encoding of graph events.
var GraphEventEncoding = protocol.JSON[*GraphEvent]{}

func newGraphEvent(run, sn string, g telemetry.Graph) *GraphEvent {
	ev := &GraphEvent{Run: run, SerialNumber: sn, Points: len(g)}
	if len(g) > 0 {
		ev.Head = g[0].Clone()
	}
	return ev
}

// NewTelemetryNotifier creates a notifier sending on the given topic.
func NewTelemetryNotifier(
	app *protocol.Application,
	client protocol.MqttClient,
	topic string,
	opt ...protocol.TelemetrySenderOption,
) (*TelemetryNotifier, error) {
	sender, err := protocol.NewTelemetrySender(
		app,
		client,
		GraphEventEncoding,
		topic,
		opt...,
	)
	if err != nil {
		return nil, err
	}
	return &TelemetryNotifier{sender: sender}, nil
}

// GraphUpdated implements Notifier.
func (n *TelemetryNotifier) GraphUpdated(
	ctx context.Context,
	ev *GraphEvent,
) error {
	return n.sender.Send(ctx, ev, protocol.WithTopicTokens{
		"sn": ev.SerialNumber,
	})
}
