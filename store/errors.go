// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package store

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrPersistence indicates a failed read or write against the store.
var ErrPersistence = errors.New("persistence error")

// Error describes a failed store operation.
type Error struct {
	Operation string
	Path      string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s %s: %s", ErrPersistence, e.Operation, e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// Attrs exposes the operation for structured logging.
func (e *Error) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("operation", e.Operation),
		slog.String("path", e.Path),
	}
}
