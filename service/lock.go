// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package service

import (
	"context"
	"sync"
)

type (
	// keyedMutex holds one lock per key, created on demand and dropped once
	// nobody holds or waits for it.
	keyedMutex struct {
		mu    sync.Mutex
		locks map[string]*keyLock
	}

	keyLock struct {
		ch   chan struct{}
		refs int
	}
)

// Lock blocks until the key is free or ctx is done, and returns the function
// releasing it.
func (m *keyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return sync.OnceFunc(func() {
			<-l.ch
			m.release(key, l)
		}), nil
	case <-ctx.Done():
		m.release(key, l)
		return nil, ctx.Err()
	}
}

func (m *keyedMutex) release(key string, l *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
}
