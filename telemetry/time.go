// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package telemetry

import (
	"time"

	"github.com/relvacode/iso8601"
)

// Thresholds used when comparing data point timestamps.
const (
	// AdmissionInterval is the minimum spacing between graph points.
	AdmissionInterval = 15 * time.Minute

	// FreshnessInterval is how much newer a final sample must be to replace
	// the stored latest point.
	FreshnessInterval = time.Minute

	// WindowSize is the maximum age of a graph point relative to the head.
	WindowSize = 24 * time.Hour
)

// ParseTimestamp parses an ISO 8601 date-time. Timestamps without a zone are
// taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, &TimestampError{Value: s}
	}
	t, err := iso8601.ParseString(s)
	if err != nil {
		return time.Time{}, &TimestampError{Value: s, Err: err}
	}
	return t, nil
}

// Time parses the timestamp field of the data point.
func (p DataPoint) Time() (time.Time, error) {
	return ParseTimestamp(p.Timestamp())
}

// EnoughTimePassed reports whether latest is at least threshold after head.
// Unparseable timestamps are an error, not a negative answer.
func EnoughTimePassed(
	head string,
	latest string,
	threshold time.Duration,
) (bool, error) {
	h, err := ParseTimestamp(head)
	if err != nil {
		return false, err
	}
	l, err := ParseTimestamp(latest)
	if err != nil {
		return false, err
	}
	return l.Sub(h) >= threshold, nil
}

// NewDataIsAvailable reports whether latest is at least a minute newer than
// head.
func NewDataIsAvailable(head, latest DataPoint) (bool, error) {
	return EnoughTimePassed(
		head.Timestamp(),
		latest.Timestamp(),
		FreshnessInterval,
	)
}
