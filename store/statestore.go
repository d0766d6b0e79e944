// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Azure/iot-operations-sdks/go/services/statestore"
	"github.com/airpartners/ade/internal/log"
)

type (
	// StateStore adapts a state store client to the Store and Watcher
	// interfaces.
	StateStore struct {
		client  *statestore.Client[string, []byte]
		timeout statestore.WithTimeout
		log     log.Logger
	}

	// StateStoreOption represents a single option for the adapter.
	StateStoreOption interface{ stateStore(*StateStoreOptions) }

	// StateStoreOptions are the resolved options for the adapter.
	StateStoreOptions struct {
		Timeout time.Duration
		Logger  *slog.Logger
	}

	// WithTimeout bounds each state store request.
	WithTimeout time.Duration

	withLogger struct{ *slog.Logger }
)

var errNotSet = errors.New("value was not set")

// NewStateStore wraps a started state store client.
func NewStateStore(
	client *statestore.Client[string, []byte],
	opt ...StateStoreOption,
) *StateStore {
	var opts StateStoreOptions
	opts.Apply(opt)

	return &StateStore{
		client:  client,
		timeout: statestore.WithTimeout(opts.Timeout),
		log:     log.Wrap(opts.Logger),
	}
}

// Read implements Store.
func (s *StateStore) Read(
	ctx context.Context,
	path string,
	v any,
) (bool, error) {
	res, err := s.client.Get(ctx, path, s.timeout)
	if err != nil {
		return false, &Error{Operation: "read", Path: path, Err: err}
	}

	// A missing key is a fully zero response.
	if len(res.Value) == 0 && res.Version.IsZero() {
		return false, nil
	}
	if err := json.Unmarshal(res.Value, v); err != nil {
		return false, &Error{Operation: "read", Path: path, Err: err}
	}
	return true, nil
}

// Write implements Store.
func (s *StateStore) Write(ctx context.Context, path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &Error{Operation: "write", Path: path, Err: err}
	}

	res, err := s.client.Set(ctx, path, data, s.timeout)
	if err != nil {
		return &Error{Operation: "write", Path: path, Err: err}
	}
	if !res.Value {
		return &Error{Operation: "write", Path: path, Err: errNotSet}
	}

	s.log.Debug(ctx, "value written",
		slog.String("path", path),
		slog.Int("size", len(data)),
	)
	return nil
}

// Update implements Store.
func (s *StateStore) Update(
	ctx context.Context,
	path string,
	fields map[string]any,
) error {
	for field, v := range fields {
		if err := s.Write(ctx, path+"/"+field, v); err != nil {
			return err
		}
	}
	return nil
}

// Watch implements Watcher. Notifications are best-effort; the state store
// does not queue them while disconnected.
func (s *StateStore) Watch(
	ctx context.Context,
	path string,
) (<-chan Event, func(), error) {
	kn, rm := s.client.Notify(path)
	if err := s.client.KeyNotify(ctx, path, s.timeout); err != nil {
		rm()
		return nil, nil, &Error{Operation: "watch", Path: path, Err: err}
	}

	out := make(chan Event, 1)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for n := range kn {
			ev := Event{Path: n.Key, Deleted: n.Operation == "DELETE"}
			select {
			case out <- ev:
			case <-done:
				return
			}
		}
	}()

	return out, sync.OnceFunc(func() {
		close(done)
		rm()

		// The watch context may already be done at this point.
		stop, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.client.KeyNotifyStop(stop, path, s.timeout); err != nil {
			s.log.Err(ctx, "failed to stop key notifications", err,
				slog.String("path", path),
			)
		}
	}), nil
}

// Apply resolves the provided list of options.
func (o *StateStoreOptions) Apply(
	opts []StateStoreOption,
	rest ...StateStoreOption,
) {
	for _, opt := range opts {
		if opt != nil {
			opt.stateStore(o)
		}
	}
	for _, opt := range rest {
		if opt != nil {
			opt.stateStore(o)
		}
	}
}

func (o *StateStoreOptions) stateStore(opt *StateStoreOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithTimeout) stateStore(opt *StateStoreOptions) {
	opt.Timeout = time.Duration(o)
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) StateStoreOption {
	return withLogger{logger}
}

func (o withLogger) stateStore(opt *StateStoreOptions) {
	opt.Logger = o.Logger
}
