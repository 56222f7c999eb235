// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package bq

import (
	"context"
	"time"

	"github.com/djandrewd/blocking-queue/internal/cond"
	"github.com/djandrewd/blocking-queue/internal/deadline"
)

// wait describes how long an operation may stay parked.
type wait struct {
	ctx   context.Context
	block bool
	dl    *deadline.Deadline // nil means no deadline
}

// immediate never parks.
func immediate() wait {
	return wait{ctx: context.Background()}
}

// forever parks until ctx is done.
func forever(ctx context.Context) wait {
	return wait{ctx: ctx, block: true}
}

// within parks for at most timeout in total. The returned wait must be
// released.
func within(ctx context.Context, timeout time.Duration) wait {
	if timeout <= 0 {
		return wait{ctx: ctx}
	}
	return wait{ctx: ctx, block: true, dl: deadline.After(timeout)}
}

func (w wait) release() {
	w.dl.Stop()
}

// await parks on c until ready reports true, re-checking after every wake. c.L
// must be held and stays held on return.
//
// It returns true once the caller may proceed; false with a nil error when w
// does not allow waiting any longer; ErrClosed when closed reports true (at
// any point for inserts, and only while not ready for removals); or ctx.Err()
// when the context ends first.
func await(w wait, c *cond.Cond, insert bool, ready, closed func() bool) (bool, error) {
	if err := w.ctx.Err(); err != nil {
		return false, err
	}
	for {
		if insert && closed() {
			return false, ErrClosed
		}
		if ready() {
			return true, nil
		}
		if !insert && closed() {
			return false, ErrClosed
		}
		if !w.block || w.dl.Expired() {
			return false, nil
		}
		if err := c.Wait(w.ctx, w.dl.C()); err != nil {
			return false, err
		}
	}
}
