// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package cond provides a condition variable whose waits can be abandoned.
//
// [sync.Cond] cannot be combined with a context or a timer, so a goroutine
// parked in [sync.Cond.Wait] can only leave once another goroutine signals it.
// Cond instead hands each generation of waiters a channel that
// [Cond.Broadcast] closes, which lets [Cond.Wait] select on cancellation and
// expiry as well.
package cond

import (
	"context"
	"sync"
	"time"
)

// Cond is a broadcast-only condition variable associated with the Locker L.
// L must be held when calling [Cond.Wait] and [Cond.Broadcast]. The zero value
// is not usable until L is set, and a Cond must not be copied after first use.
type Cond struct {
	L sync.Locker

	// Closed by Broadcast to release the current generation of waiters.
	// Created lazily so that broadcasting with nobody parked costs nothing.
	ch      chan struct{}
	waiting int
}

// Wait atomically unlocks c.L and suspends the calling goroutine until
// Broadcast is called, ctx is done, or expired delivers a value. A nil expired
// channel never fires. c.L is locked again before Wait returns, whatever the
// outcome.
//
// Returning nil does not imply that the awaited predicate holds: the caller
// must re-check it in a loop. A non-nil return is ctx.Err().
func (c *Cond) Wait(ctx context.Context, expired <-chan time.Time) error {
	if c.ch == nil {
		c.ch = make(chan struct{})
	}
	ch := c.ch
	c.waiting++

	c.L.Unlock()
	var err error
	select {
	case <-ch:
	case <-expired:
	case <-ctx.Done():
		err = ctx.Err()
	}
	c.L.Lock()

	c.waiting--
	return err
}

// Broadcast wakes every goroutine currently parked in Wait.
func (c *Cond) Broadcast() {
	if c.ch != nil {
		close(c.ch)
		c.ch = nil
	}
}

// Waiting returns the number of goroutines parked in Wait, including any that
// have been released but have not yet re-acquired c.L.
func (c *Cond) Waiting() int {
	return c.waiting
}
