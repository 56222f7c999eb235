// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package bq

import (
	"sync"

	"github.com/gammazero/deque"
)

// LockQueue is a FIFO queue guarded by a single mutex that is held for the
// full duration of every operation. It has no blocking operations: [LockQueue.Offer]
// fails immediately when the queue is full and [LockQueue.Poll] when it is
// empty.
//
// LockQueue must be created with [NewLockQueue] or [NewUnboundedLockQueue].
type LockQueue[T comparable] struct {
	capacity int

	mu    sync.Mutex
	items deque.Deque[T]
}

// NewLockQueue returns an empty LockQueue that holds at most capacity
// elements. It panics if capacity is less than one.
func NewLockQueue[T comparable](capacity int) *LockQueue[T] {
	checkCapacity(capacity)
	return &LockQueue[T]{capacity: capacity}
}

// NewUnboundedLockQueue returns an empty LockQueue with capacity [Unbounded].
func NewUnboundedLockQueue[T comparable]() *LockQueue[T] {
	return NewLockQueue[T](Unbounded)
}

func (q *LockQueue[T]) Offer(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() >= q.capacity {
		return false
	}
	q.items.PushBack(item)
	return true
}

func (q *LockQueue[T]) Poll() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() == 0 {
		return *new(T), false
	}
	return q.items.PopFront(), true
}

func (q *LockQueue[T]) Peek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() == 0 {
		return *new(T), false
	}
	return q.items.Front(), true
}

func (q *LockQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

func (q *LockQueue[T]) Cap() int {
	return q.capacity
}

func (q *LockQueue[T]) RemainingCapacity() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.capacity - q.items.Len()
}

func (q *LockQueue[T]) Contains(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Index(func(v T) bool { return v == item }) >= 0
}

func (q *LockQueue[T]) Snapshot() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	return snapshotDeque(&q.items)
}

func snapshotDeque[T any](d *deque.Deque[T]) []T {
	out := make([]T, d.Len())
	for i := range out {
		out[i] = d.At(i)
	}
	return out
}
