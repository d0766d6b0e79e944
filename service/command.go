// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package service

import (
	"context"
	"time"

	"github.com/Azure/iot-operations-sdks/go/protocol"
)

type (
	// UpdateRequest is the payload of an update command or HTTP request.
	UpdateRequest struct {
		// Latest refreshes the latest node before the graph node.
		Latest bool `json:"latest,omitempty"`
	}

	// UpdateResponse reports the outcome of an update.
	UpdateResponse struct {
		SerialNumber string `json:"sn"`
		Updated      bool   `json:"updated"`
		Points       int    `json:"points"`
		Head         string `json:"head,omitempty"`
	}
)

// CommandTimeout bounds the execution of an update command.
const CommandTimeout = 2 * time.Minute

var (
	UpdateRequestEncoding  = protocol.JSON[UpdateRequest]{}
	UpdateResponseEncoding = protocol.JSON[UpdateResponse]{}
)

// NewCommandExecutor creates an executor running updates on the command
// topic. The topic pattern must use the {sn} token to name the device.
func NewCommandExecutor(
	app *protocol.Application,
	client protocol.MqttClient,
	topic string,
	s *Service,
	opt ...protocol.CommandExecutorOption,
) (*protocol.CommandExecutor[UpdateRequest, UpdateResponse], error) {
	var opts protocol.CommandExecutorOptions
	opts.Apply(opt)
	if opts.Timeout == 0 {
		opts.Timeout = CommandTimeout
	}

	return protocol.NewCommandExecutor(
		app,
		client,
		UpdateRequestEncoding,
		UpdateResponseEncoding,
		topic,
		s.HandleCommand,
		&opts,
		protocol.WithIdempotent(true),
	)
}

// HandleCommand runs the update requested by an update command.
func (s *Service) HandleCommand(
	ctx context.Context,
	req *protocol.CommandRequest[UpdateRequest],
) (*protocol.CommandResponse[UpdateResponse], error) {
	sn := req.TopicTokens["sn"]
	if sn == "" {
		return nil, protocol.InvocationError{
			Message:      "command topic does not name a device",
			PropertyName: "sn",
		}
	}

	res, err := s.trigger(ctx, sn, req.Payload)
	if err != nil {
		return nil, err
	}
	return protocol.Respond(res)
}

// Trigger runs the update requested by a command or HTTP request.
func (s *Service) trigger(
	ctx context.Context,
	sn string,
	req UpdateRequest,
) (UpdateResponse, error) {
	res := UpdateResponse{SerialNumber: sn}

	if req.Latest {
		if _, err := s.UpdateLatest(ctx, sn); err != nil {
			return res, err
		}
	}

	g, err := s.Update(ctx, sn)
	if err != nil {
		return res, err
	}
	if g != nil {
		res.Updated = true
		res.Points = len(g)
		res.Head = g[0].Timestamp()
	}
	return res, nil
}
