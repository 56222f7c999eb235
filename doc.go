// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package bq provides bounded, goroutine-safe FIFO queues with blocking,
// timed, and immediate producer and consumer operations. The same contract is
// offered under three locking disciplines that trade simplicity for
// contention:
//
//   - [LockQueue] guards everything with one mutex and never blocks. Readers
//     serialize with writers, [LockQueue.Peek] included.
//   - [MonitorQueue] adds blocking operations using one mutex and one
//     condition shared by producers and consumers.
//   - [TwoLockQueue] confines producers to an enqueue-side lock and consumers
//     to a dequeue-side lock so that they only interact when the queue is
//     empty or full. An atomic element count is the point at which each
//     insert or removal takes effect.
//
// Callers that do not care which discipline backs a queue can select one by
// name with [Config], [NewQueue], and [NewBlockingQueue], and program against
// the [Queue] and [BlockingQueue] interfaces.
//
// A wake-up is only broadcast when an operation moves the queue off the
// boundary that the other side waits on: an insert into an empty queue, or a
// removal from a full one. Every woken goroutine re-checks its own predicate.
//
// Blocking operations take a [context.Context]. Cancelling it releases the
// caller with ctx.Err() and without any effect on the queue. [BlockingQueue]
// values can also be closed, which fails later inserts and releases every
// blocked goroutine; elements already queued can still be removed.
package bq
