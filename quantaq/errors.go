// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package quantaq

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrUpstream indicates a failed request to the device API, including
	// transport failures, unexpected status codes and malformed payloads.
	ErrUpstream = errors.New("upstream fetch failed")

	// ErrBudgetExhausted is returned by Pager.Next once the request budget
	// has been spent. It ends a search; it is not a failure.
	ErrBudgetExhausted = errors.New("request budget exhausted")

	// ErrNoMorePages is returned by Pager.Next once the API stops returning a
	// next page cursor. It ends a search; it is not a failure.
	ErrNoMorePages = errors.New("no more pages")
)

// UpstreamError describes a failed device API request.
type UpstreamError struct {
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: GET %s: status %d: %s",
			ErrUpstream, e.URL, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: GET %s: %s", ErrUpstream, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s: GET %s: %s", ErrUpstream, e.URL, e.Message)
	}
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Err}
}

// Attrs exposes the request details for structured logging.
func (e *UpstreamError) Attrs() []slog.Attr {
	a := []slog.Attr{slog.String("url", e.URL)}
	if e.StatusCode != 0 {
		a = append(a, slog.Int("status_code", e.StatusCode))
	}
	return a
}
