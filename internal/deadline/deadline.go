// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package deadline bounds the total time a single call may spend parked.
package deadline

import (
	"sync"
	"time"
)

// This implementation relies on [Go 1.23+ behavior] for stopping and
// resetting timers, so pooled timers never deliver stale values.
//
// [Go 1.23+ behavior]: https://pkg.go.dev/time#NewTimer
var timers = sync.Pool{
	New: func() any {
		t := time.NewTimer(time.Hour)
		t.Stop()
		return t
	},
}

// A Deadline is fixed once, when it is created, and is never extended by
// spurious wakeups. The nil *Deadline never expires.
type Deadline struct {
	at    time.Time
	timer *time.Timer
}

// After returns a Deadline that expires d from now. Callers must call
// [Deadline.Stop] when they no longer need it.
func After(d time.Duration) *Deadline {
	// at is read before the timer is armed so that the deadline has always
	// passed by the time the timer fires.
	at := time.Now().Add(d)
	t := timers.Get().(*time.Timer)
	t.Reset(d)
	return &Deadline{
		at:    at,
		timer: t,
	}
}

// C returns a channel that delivers a value once the deadline passes, or nil
// for the nil Deadline.
func (d *Deadline) C() <-chan time.Time {
	if d == nil {
		return nil
	}
	return d.timer.C
}

// Remaining returns the budget left before the deadline, recomputed on every
// call. It is never negative.
func (d *Deadline) Remaining() time.Duration {
	if d == nil {
		return time.Duration(1<<63 - 1)
	}
	return max(0, time.Until(d.at))
}

// Expired reports whether the deadline has passed.
func (d *Deadline) Expired() bool {
	return d != nil && d.Remaining() == 0
}

// Stop releases the underlying timer. The Deadline must not be used again.
func (d *Deadline) Stop() {
	if d == nil || d.timer == nil {
		return
	}
	d.timer.Stop()
	timers.Put(d.timer)
	d.timer = nil
}
