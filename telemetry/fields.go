// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package telemetry

import "slices"

// Fields is an ordered set of data point field names.
type Fields []string

var (
	// PollutantFields are the concentration fields that must never be
	// negative.
	PollutantFields = Fields{"co", "no", "no2", "o3", "pm25"}

	// RawFields are the high-resolution particle bin counts reported on the
	// raw data feed.
	RawFields = Fields{
		"bin0", "bin1", "bin2", "bin3", "bin4", "bin5",
		"bin6", "bin7", "bin8", "bin9", "bin10", "bin11",
		"bin12", "bin13", "bin14", "bin15", "bin16", "bin17",
		"bin18", "bin19", "bin20", "bin21", "bin22", "bin23",
	}

	// GraphFields are the fields kept on graph points.
	GraphFields = Fields{
		"co", "no", "no2", "o3", "pm25",
		FieldSerialNumber, FieldTimestamp, FieldTimestampLocal,
	}.With(RawFields)

	// LatestFields are the fields kept on the latest point. It is a superset
	// of GraphFields.
	LatestFields = GraphFields.With(Fields{
		"rh_manifold", "temp_manifold", "wind_dir", "wind_speed",
		FieldGeo, FieldLastRaw,
	})
)

// Contains reports whether the set includes the field.
func (f Fields) Contains(field string) bool {
	return slices.Contains(f, field)
}

// With returns a new set holding f followed by every field of more that is
// not already present.
func (f Fields) With(more ...Fields) Fields {
	out := slices.Clone(f)
	for _, m := range more {
		for _, field := range m {
			if !out.Contains(field) {
				out = append(out, field)
			}
		}
	}
	return out
}
