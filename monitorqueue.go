// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package bq

import (
	"context"
	"sync"
	"time"

	"github.com/djandrewd/blocking-queue/internal/cond"
	"github.com/gammazero/deque"
)

// MonitorQueue is a blocking FIFO queue guarded by one mutex and one
// condition. Producers waiting for room and consumers waiting for an element
// park on the same condition, so every wake-up is a broadcast and every woken
// goroutine re-checks its own predicate.
//
// MonitorQueue must be created with [NewMonitorQueue] or
// [NewUnboundedMonitorQueue].
type MonitorQueue[T comparable] struct {
	capacity int

	mu     sync.Mutex
	cond   cond.Cond
	items  deque.Deque[T]
	closed bool
}

// NewMonitorQueue returns an empty MonitorQueue that holds at most capacity
// elements. It panics if capacity is less than one.
func NewMonitorQueue[T comparable](capacity int) *MonitorQueue[T] {
	checkCapacity(capacity)
	q := &MonitorQueue[T]{capacity: capacity}
	q.cond.L = &q.mu
	return q
}

// NewUnboundedMonitorQueue returns an empty MonitorQueue with capacity
// [Unbounded].
func NewUnboundedMonitorQueue[T comparable]() *MonitorQueue[T] {
	return NewMonitorQueue[T](Unbounded)
}

func (q *MonitorQueue[T]) hasRoom() bool    { return q.items.Len() < q.capacity }
func (q *MonitorQueue[T]) hasElement() bool { return q.items.Len() > 0 }
func (q *MonitorQueue[T]) isClosed() bool   { return q.closed }

// insert appends item once w allows it. Wakes waiters if the queue was empty.
func (q *MonitorQueue[T]) insert(w wait, item T) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ok, err := await(w, &q.cond, true, q.hasRoom, q.isClosed)
	if !ok {
		return false, err
	}
	wasEmpty := q.items.Len() == 0
	q.items.PushBack(item)
	if wasEmpty {
		q.cond.Broadcast()
	}
	return true, nil
}

// remove takes the head once w allows it. Wakes waiters if the queue was
// full.
func (q *MonitorQueue[T]) remove(w wait) (T, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ok, err := await(w, &q.cond, false, q.hasElement, q.isClosed)
	if !ok {
		return *new(T), false, err
	}
	wasFull := q.items.Len() == q.capacity
	item := q.items.PopFront()
	if wasFull {
		q.cond.Broadcast()
	}
	return item, true, nil
}

func (q *MonitorQueue[T]) Offer(item T) bool {
	ok, _ := q.insert(immediate(), item)
	return ok
}

func (q *MonitorQueue[T]) Add(item T) error {
	ok, err := q.insert(immediate(), item)
	if err != nil {
		return err
	}
	if !ok {
		return ErrFull
	}
	return nil
}

func (q *MonitorQueue[T]) Put(ctx context.Context, item T) error {
	_, err := q.insert(forever(ctx), item)
	return err
}

func (q *MonitorQueue[T]) OfferTimeout(ctx context.Context, item T, timeout time.Duration) (bool, error) {
	w := within(ctx, timeout)
	defer w.release()
	return q.insert(w, item)
}

func (q *MonitorQueue[T]) Poll() (T, bool) {
	item, ok, _ := q.remove(immediate())
	return item, ok
}

func (q *MonitorQueue[T]) Take(ctx context.Context) (T, error) {
	item, _, err := q.remove(forever(ctx))
	return item, err
}

func (q *MonitorQueue[T]) PollTimeout(ctx context.Context, timeout time.Duration) (T, bool, error) {
	w := within(ctx, timeout)
	defer w.release()
	return q.remove(w)
}

func (q *MonitorQueue[T]) Peek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() == 0 {
		return *new(T), false
	}
	return q.items.Front(), true
}

func (q *MonitorQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

func (q *MonitorQueue[T]) Cap() int {
	return q.capacity
}

func (q *MonitorQueue[T]) RemainingCapacity() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.capacity - q.items.Len()
}

func (q *MonitorQueue[T]) Contains(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Index(func(v T) bool { return v == item }) >= 0
}

func (q *MonitorQueue[T]) Snapshot() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	return snapshotDeque(&q.items)
}

func (q *MonitorQueue[T]) AddAll(items ...T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || len(items) > q.capacity-q.items.Len() {
		return false
	}
	if len(items) == 0 {
		return true
	}
	wasEmpty := q.items.Len() == 0
	for _, item := range items {
		q.items.PushBack(item)
	}
	if wasEmpty {
		q.cond.Broadcast()
	}
	return true
}

func (q *MonitorQueue[T]) Remove(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.items.Index(func(v T) bool { return v == item })
	if i < 0 {
		return false
	}
	wasFull := q.items.Len() == q.capacity
	q.items.Remove(i)
	if wasFull {
		q.cond.Broadcast()
	}
	return true
}

func (q *MonitorQueue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	wasFull := q.items.Len() == q.capacity
	q.items.Clear()
	if wasFull {
		q.cond.Broadcast()
	}
}

func (q *MonitorQueue[T]) DrainTo(sink Sink[T]) (int, error) {
	return q.DrainToN(sink, Unbounded)
}

func (q *MonitorQueue[T]) DrainToN(sink Sink[T], maxElements int) (int, error) {
	if isSelf[T](q, sink) {
		return 0, ErrDrainToSelf
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	wasFull := q.items.Len() == q.capacity
	n := min(maxElements, q.items.Len())
	var err error
	moved := 0
	for ; moved < n; moved++ {
		if err = sink.Add(q.items.Front()); err != nil {
			break
		}
		q.items.PopFront()
	}
	if wasFull && moved > 0 {
		q.cond.Broadcast()
	}
	return moved, err
}

func (q *MonitorQueue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		q.cond.Broadcast()
	}
}

func (q *MonitorQueue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
