// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// Memory is an in-process Store and Watcher. Values round-trip through JSON
// so readers observe the same types they would from a remote store.
type Memory struct {
	mu       sync.RWMutex
	values   map[string][]byte
	watchers map[string]map[chan Event]struct{}
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		values:   map[string][]byte{},
		watchers: map[string]map[chan Event]struct{}{},
	}
}

// Read implements Store.
func (m *Memory) Read(_ context.Context, path string, v any) (bool, error) {
	m.mu.RLock()
	data, ok := m.values[path]
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, &Error{Operation: "read", Path: path, Err: err}
	}
	return true, nil
}

// Write implements Store.
func (m *Memory) Write(ctx context.Context, path string, v any) error {
	if path == "" {
		return &Error{Operation: "write", Err: errors.New("empty path")}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return &Error{Operation: "write", Path: path, Err: err}
	}

	m.mu.Lock()
	m.values[path] = data
	m.mu.Unlock()

	m.notify(ctx, Event{Path: path})
	return nil
}

// Update implements Store.
func (m *Memory) Update(
	ctx context.Context,
	path string,
	fields map[string]any,
) error {
	for field, v := range fields {
		if err := m.Write(ctx, path+"/"+field, v); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the value at path.
func (m *Memory) Delete(ctx context.Context, path string) {
	m.mu.Lock()
	_, ok := m.values[path]
	delete(m.values, path)
	m.mu.Unlock()

	if ok {
		m.notify(ctx, Event{Path: path, Deleted: true})
	}
}

// Watch implements Watcher.
func (m *Memory) Watch(
	_ context.Context,
	path string,
) (<-chan Event, func(), error) {
	ch := make(chan Event, 1)

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.watchers[path]
	if !ok {
		w = map[chan Event]struct{}{}
		m.watchers[path] = w
	}
	w[ch] = struct{}{}

	return ch, sync.OnceFunc(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		delete(w, ch)
		if len(w) == 0 {
			delete(m.watchers, path)
		}
		close(ch)
	}), nil
}

// Events are dropped for watchers that are not keeping up, as with the
// remote store.
func (m *Memory) notify(ctx context.Context, ev Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for ch := range m.watchers[ev.Path] {
		select {
		case ch <- ev:
		case <-ctx.Done():
			return
		default:
		}
	}
}
