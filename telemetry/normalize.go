// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package telemetry

import (
	"maps"
	"math"
	"strconv"
)

const geoPrecision = 1e3

// RemoveUnusedData returns a new data point holding only the fields of p that
// are listed in keep. Listed fields missing from p are skipped.
func RemoveUnusedData(p DataPoint, keep Fields) DataPoint {
	out := make(DataPoint, len(keep))
	for _, field := range keep {
		if v, ok := p[field]; ok {
			out[field] = v
		}
	}
	return out
}

// FixNegativeConcentrations returns a copy of p in which every numeric field
// listed in fix is raised to zero if negative. Absent and non-numeric values
// pass through unchanged.
func FixNegativeConcentrations(p DataPoint, fix Fields) DataPoint {
	out := maps.Clone(p)
	for _, field := range fix {
		v, ok := out[field]
		if !ok {
			continue
		}
		out[field] = clampZero(v)
	}
	return out
}

func clampZero(v any) any {
	switch n := v.(type) {
	case float64:
		return max(n, 0)
	case float32:
		return max(n, 0)
	case int:
		return max(n, 0)
	case int64:
		return max(n, 0)
	default:
		return v
	}
}

// TrimGeo returns a copy of p with geo.lat and geo.lon rounded to three
// decimal places. Points without a geo object are returned unchanged.
func TrimGeo(p DataPoint) DataPoint {
	geo, ok := p[FieldGeo].(map[string]any)
	if !ok {
		return p
	}

	trimmed := maps.Clone(geo)
	for _, coord := range []string{"lat", "lon"} {
		if f, ok := asFloat(trimmed[coord]); ok {
			trimmed[coord] = math.Round(f*geoPrecision) / geoPrecision
		}
	}

	out := maps.Clone(p)
	out[FieldGeo] = trimmed
	return out
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Restructure prepares a final sample for the latest node: the raw sample is
// joined in, the result is restricted to LatestFields, pollutant
// concentrations are clamped and the location is trimmed, in that order.
func Restructure(final, raw DataPoint) DataPoint {
	p := JoinRaw(final, raw)
	p = RemoveUnusedData(p, LatestFields)
	p = FixNegativeConcentrations(p, PollutantFields)
	return TrimGeo(p)
}

// NormalizeGraphPoint restricts p to GraphFields, clamps pollutant
// concentrations and trims the location.
func NormalizeGraphPoint(p DataPoint) DataPoint {
	p = RemoveUnusedData(p, GraphFields)
	p = FixNegativeConcentrations(p, PollutantFields)
	return TrimGeo(p)
}
