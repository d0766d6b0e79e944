// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package store defines the per-device persisted state used by the updaters
// and provides an in-memory implementation and one backed by the Azure IoT
// Operations state store. Values are stored as JSON under slash-separated
// paths rooted at the device serial number.
package store

import "context"

type (
	// Store reads and writes JSON values by path.
	Store interface {
		// Read decodes the value at path into v. It reports false, and leaves
		// v untouched, if no value is stored.
		Read(ctx context.Context, path string, v any) (bool, error)

		// Write replaces the value at path.
		Write(ctx context.Context, path string, v any) error

		// Update writes each field as a child of path, leaving other
		// children untouched.
		Update(ctx context.Context, path string, fields map[string]any) error
	}

	// Watcher notifies about changes to a path.
	Watcher interface {
		// Watch starts delivering change events for path. The returned
		// function stops the watch and closes the channel.
		Watch(ctx context.Context, path string) (<-chan Event, func(), error)
	}

	// Event describes a change to a watched path.
	Event struct {
		Path    string
		Deleted bool
	}
)

// LatestPath is where the latest point of a device is stored.
func LatestPath(sn string) string {
	return sn + "/latest"
}

// GraphPath is where the graph of a device is stored.
func GraphPath(sn string) string {
	return sn + "/graph"
}

// DataPath is where an archived sample of a device is stored.
func DataPath(sn, timestamp string) string {
	return sn + "/data/" + timestamp
}
