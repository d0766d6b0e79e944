// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package wallclock

import "time"

type (
	// WallClock abstracts the subset of package time used by the scheduler
	// and the loggers.
	WallClock interface {
		Now() time.Time
		NewTicker(d time.Duration) Ticker
	}

	// Ticker abstracts the functionality of time.Ticker.
	Ticker interface {
		C() <-chan time.Time
		Reset(d time.Duration)
		Stop()
	}

	wallClock struct{}

	ticker struct {
		*time.Ticker
	}
)

// Now indirects time.Now.
func (wallClock) Now() time.Time {
	return time.Now()
}

// NewTicker indirects time.NewTicker.
func (wallClock) NewTicker(d time.Duration) Ticker {
	return ticker{Ticker: time.NewTicker(d)}
}

// C indirects time.Ticker.C.
func (t ticker) C() <-chan time.Time {
	return t.Ticker.C
}

// Instance is a WallClock singleton used for indirect time-based references to
// package time. Test code can set the instance to interpose on functions and
// control apparent time.
var Instance WallClock = wallClock{}
