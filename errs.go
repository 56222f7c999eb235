// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package bq

type constError string

func (e constError) Error() string {
	return string(e)
}

// ErrClosed is returned by inserts into a closed queue and by blocking
// removals from a queue that is closed and empty.
const ErrClosed = constError("queue closed")

// ErrFull is returned by Add when the queue has no remaining capacity.
const ErrFull = constError("queue full")

// ErrDrainToSelf is returned when a queue is asked to drain into itself.
const ErrDrainToSelf = constError("queue cannot be drained into itself")

// ErrNotBlocking is returned by [NewBlockingQueue] for a discipline that has
// no blocking operations.
const ErrNotBlocking = constError("discipline does not support blocking operations")
