// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package bq

import (
	"context"
	"math"
	"time"
)

// Unbounded is the capacity of a queue that never reports itself full.
const Unbounded = math.MaxInt

// Queue is the non-blocking contract shared by every discipline. Elements must
// be comparable so that [Queue.Contains] can match them with ==.
type Queue[T comparable] interface {
	// Offer appends item if the queue has room, reporting whether it did.
	// Offer never blocks.
	Offer(item T) bool

	// Poll removes and returns the head of the queue. The boolean is false if
	// the queue was empty.
	Poll() (T, bool)

	// Peek returns the head of the queue without removing it.
	Peek() (T, bool)

	// Len returns the number of queued elements.
	Len() int

	// Cap returns the capacity fixed at construction.
	Cap() int

	// RemainingCapacity returns Cap() - Len().
	RemainingCapacity() int

	// Contains reports whether item is queued.
	Contains(item T) bool

	// Snapshot returns a copy of the queued elements, head first.
	Snapshot() []T
}

// BlockingQueue adds operations that wait for room or for an element.
//
// Blocking operations fail with ctx.Err() when ctx is done, including when it
// is already done on entry, and then leave the queue unchanged. Timed
// operations compute their deadline once; a timeout of zero or less never
// waits.
//
// Once closed, inserts fail with [ErrClosed] (or false), and goroutines
// blocked in any operation are released. Removals continue to succeed while
// elements remain; blocking removals fail with [ErrClosed] once the queue is
// empty.
type BlockingQueue[T comparable] interface {
	Queue[T]

	// Add appends item if the queue has room. It returns [ErrFull] if not and
	// [ErrClosed] if the queue is closed. Add makes every BlockingQueue a
	// [Sink].
	Add(item T) error

	// Put appends item, waiting as long as necessary for room.
	Put(ctx context.Context, item T) error

	// Take removes and returns the head, waiting as long as necessary for an
	// element.
	Take(ctx context.Context) (T, error)

	// OfferTimeout appends item, waiting up to timeout for room. It reports
	// false with a nil error if the timeout passed while the queue was full.
	OfferTimeout(ctx context.Context, item T, timeout time.Duration) (bool, error)

	// PollTimeout removes and returns the head, waiting up to timeout for an
	// element. It reports false with a nil error if the timeout passed while
	// the queue was empty.
	PollTimeout(ctx context.Context, timeout time.Duration) (T, bool, error)

	// AddAll appends all items or none of them. It reports false if they would
	// not all fit or the queue is closed.
	AddAll(items ...T) bool

	// Remove deletes the first queued element equal to item.
	Remove(item T) bool

	// Clear removes every queued element.
	Clear()

	// DrainTo moves every element queued at the time of the call into sink,
	// in FIFO order, and returns how many it moved. If sink refuses an
	// element, that element stays at the head and the sink's error is
	// returned.
	DrainTo(sink Sink[T]) (int, error)

	// DrainToN is DrainTo limited to maxElements.
	DrainToN(sink Sink[T], maxElements int) (int, error)

	// Close marks the queue closed and releases every blocked goroutine.
	// Calling Close more than once has no additional effect.
	Close()

	// Closed reports whether Close has been called.
	Closed() bool
}

var (
	_ Queue[int]         = (*LockQueue[int])(nil)
	_ BlockingQueue[int] = (*MonitorQueue[int])(nil)
	_ BlockingQueue[int] = (*TwoLockQueue[int])(nil)
)

func checkCapacity(capacity int) {
	if capacity < 1 {
		panic("capacity must be positive")
	}
}
