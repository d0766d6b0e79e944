// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package telemetry

import "maps"

// JoinRaw merges a raw sample into a final sample. When both carry the same
// timestamp the raw fields are copied onto the final sample directly;
// otherwise they are attached under lastRaw together with the raw sample's
// timestamp and timestamp_local (nil when absent). A nil raw sample leaves
// the final sample as it is.
func JoinRaw(final, raw DataPoint) DataPoint {
	out := maps.Clone(final)
	if out == nil {
		out = DataPoint{}
	}
	if raw == nil {
		return out
	}

	ft, fok := final[FieldTimestamp].(string)
	rt, rok := raw[FieldTimestamp].(string)
	if fok && rok && ft == rt {
		for _, field := range RawFields {
			if v, ok := raw[field]; ok {
				out[field] = v
			}
		}
		return out
	}

	lastRaw := map[string]any{
		FieldTimestamp:      raw[FieldTimestamp],
		FieldTimestampLocal: raw[FieldTimestampLocal],
	}
	for _, field := range RawFields {
		if v, ok := raw[field]; ok {
			lastRaw[field] = v
		}
	}
	out[FieldLastRaw] = lastRaw
	return out
}

// NeedsRawData reports whether any raw field is missing from p.
func NeedsRawData(p DataPoint) bool {
	for _, field := range RawFields {
		if _, ok := p[field]; !ok {
			return true
		}
	}
	return false
}
