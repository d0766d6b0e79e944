// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package telemetry holds the device data model shared by the graph and
// latest node updaters: data points, field sets, and the pure functions that
// normalize, compare and join them.
package telemetry

import "maps"

type (
	// DataPoint is a single device record keyed by field name. Values are the
	// types produced by encoding/json (float64, string, bool, nil,
	// map[string]any and []any).
	DataPoint map[string]any

	// Graph is the bounded window of data points kept for charting, ordered
	// newest first.
	Graph []DataPoint
)

// Well-known field names.
const (
	FieldTimestamp      = "timestamp"
	FieldTimestampLocal = "timestamp_local"
	FieldSerialNumber   = "sn"
	FieldGeo            = "geo"
	FieldLastRaw        = "lastRaw"
)

// Timestamp returns the timestamp field, or "" if it is missing or not a
// string.
func (p DataPoint) Timestamp() string {
	ts, _ := p[FieldTimestamp].(string)
	return ts
}

// Clone returns a deep copy of the data point.
func (p DataPoint) Clone() DataPoint {
	if p == nil {
		return nil
	}
	out := make(DataPoint, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

// Clone returns a deep copy of the graph.
func (g Graph) Clone() Graph {
	if g == nil {
		return nil
	}
	out := make(Graph, len(g))
	for i, p := range g {
		out[i] = p.Clone()
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := maps.Clone(val)
		for k, nested := range out {
			out[k] = cloneValue(nested)
		}
		return out
	case DataPoint:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, nested := range val {
			out[i] = cloneValue(nested)
		}
		return out
	default:
		return v
	}
}
