// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package telemetry

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrInvalidTimestamp indicates a timestamp that could not be parsed as an
// ISO 8601 date-time.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// TimestampError carries the offending timestamp value.
type TimestampError struct {
	Value string
	Err   error
}

func (e *TimestampError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %q", ErrInvalidTimestamp, e.Value)
	}
	return fmt.Sprintf("%s: %q: %s", ErrInvalidTimestamp, e.Value, e.Err)
}

func (e *TimestampError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidTimestamp}
	}
	return []error{ErrInvalidTimestamp, e.Err}
}

// Attrs exposes the timestamp for structured logging.
func (e *TimestampError) Attrs() []slog.Attr {
	return []slog.Attr{slog.String("timestamp", e.Value)}
}
