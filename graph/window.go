// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package graph maintains the bounded 24 hour window of data points kept per
// device for charting, and enriches it from the QuantAQ device API.
package graph

import "github.com/airpartners/ade/telemetry"

// BuildNewGraph admits latest as the new head of current if it is at least
// telemetry.AdmissionInterval newer than the current head, evicting every
// point more than telemetry.WindowSize older than latest. Otherwise current
// is returned unchanged.
func BuildNewGraph(
	current telemetry.Graph,
	latest telemetry.DataPoint,
) (telemetry.Graph, error) {
	if len(current) == 0 {
		return telemetry.Graph{latest}, nil
	}

	admit, err := telemetry.EnoughTimePassed(
		current[0].Timestamp(),
		latest.Timestamp(),
		telemetry.AdmissionInterval,
	)
	if err != nil || !admit {
		return current, err
	}

	head, err := latest.Time()
	if err != nil {
		return nil, err
	}

	next := make(telemetry.Graph, 0, len(current)+1)
	next = append(next, latest)
	for _, p := range current {
		t, err := p.Time()
		if err != nil {
			return nil, err
		}
		if head.Sub(t) <= telemetry.WindowSize {
			next = append(next, p)
		}
	}
	return next, nil
}
