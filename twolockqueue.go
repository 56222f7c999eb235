// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package bq

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/djandrewd/blocking-queue/internal/cond"
)

// TwoLockQueue is a blocking FIFO queue that separates producers and
// consumers onto independent locks. Producers hold enqMu, wait on notFull, and
// only ever touch the tail of the list. Consumers hold deqMu, wait on
// notEmpty, and only ever touch the head. A producer and a consumer therefore
// run concurrently unless the queue is empty or full.
//
// The element count is the only state shared between the two sides. It is
// updated atomically in the same critical section as the list mutation it
// accounts for, and it is where each insert or removal takes effect: a
// consumer that observes count > 0 is guaranteed to find the corresponding
// node linked, because the producer linked it before incrementing.
//
// Lock hierarchy: an operation that moves the count off a boundary wakes the
// other side by acquiring that side's lock only after releasing its own, so
// neither side ever waits for the other's lock while holding its own.
// Operations that need a consistent view of the whole list hold both locks,
// always acquiring enqMu before deqMu.
//
// TwoLockQueue must be created with [NewTwoLockQueue] or
// [NewUnboundedTwoLockQueue].
type TwoLockQueue[T comparable] struct {
	capacity int64
	count    atomic.Int64
	closed   atomic.Bool

	enqMu   sync.Mutex
	notFull cond.Cond
	tail    *node[T] // last node; guarded by enqMu

	deqMu    sync.Mutex
	notEmpty cond.Cond
	head     *node[T] // dummy whose next is the first element; guarded by deqMu
}

type node[T any] struct {
	value T
	next  *node[T]
}

// NewTwoLockQueue returns an empty TwoLockQueue that holds at most capacity
// elements. It panics if capacity is less than one.
func NewTwoLockQueue[T comparable](capacity int) *TwoLockQueue[T] {
	checkCapacity(capacity)
	dummy := &node[T]{}
	q := &TwoLockQueue[T]{
		capacity: int64(capacity),
		head:     dummy,
		tail:     dummy,
	}
	q.notFull.L = &q.enqMu
	q.notEmpty.L = &q.deqMu
	return q
}

// NewUnboundedTwoLockQueue returns an empty TwoLockQueue with capacity
// [Unbounded].
func NewUnboundedTwoLockQueue[T comparable]() *TwoLockQueue[T] {
	return NewTwoLockQueue[T](Unbounded)
}

func (q *TwoLockQueue[T]) hasRoom() bool    { return q.count.Load() < q.capacity }
func (q *TwoLockQueue[T]) hasElement() bool { return q.count.Load() > 0 }
func (q *TwoLockQueue[T]) isClosed() bool   { return q.closed.Load() }

// linkLast appends a node and returns the count before the append. enqMu must
// be held.
func (q *TwoLockQueue[T]) linkLast(item T) int64 {
	n := &node[T]{value: item}
	q.tail.next = n
	q.tail = n
	return q.count.Add(1) - 1
}

// unlinkFirst removes the first element and returns it along with the count
// before the removal. deqMu must be held and the count must be positive.
func (q *TwoLockQueue[T]) unlinkFirst() (T, int64) {
	first := q.head.next
	item := first.value
	// first becomes the new dummy; drop its value so it can be collected.
	first.value = *new(T)
	q.head.next = nil
	q.head = first
	return item, q.count.Add(-1) + 1
}

// signalNotEmpty wakes consumers after an insert into an empty queue. It must
// be called without holding enqMu.
func (q *TwoLockQueue[T]) signalNotEmpty() {
	q.deqMu.Lock()
	q.notEmpty.Broadcast()
	q.deqMu.Unlock()
}

// signalNotFull wakes producers after a removal from a full queue. It must be
// called without holding deqMu.
func (q *TwoLockQueue[T]) signalNotFull() {
	q.enqMu.Lock()
	q.notFull.Broadcast()
	q.enqMu.Unlock()
}

func (q *TwoLockQueue[T]) fullyLock() {
	q.enqMu.Lock()
	q.deqMu.Lock()
}

func (q *TwoLockQueue[T]) fullyUnlock() {
	q.deqMu.Unlock()
	q.enqMu.Unlock()
}

func (q *TwoLockQueue[T]) insert(w wait, item T) (bool, error) {
	prev, err := func() (int64, error) {
		q.enqMu.Lock()
		defer q.enqMu.Unlock()

		ok, err := await(w, &q.notFull, true, q.hasRoom, q.isClosed)
		if !ok {
			return -1, err
		}
		return q.linkLast(item), nil
	}()
	if prev < 0 {
		return false, err
	}
	if prev == 0 {
		q.signalNotEmpty()
	}
	return true, nil
}

func (q *TwoLockQueue[T]) remove(w wait) (T, bool, error) {
	var item T
	prev, err := func() (int64, error) {
		q.deqMu.Lock()
		defer q.deqMu.Unlock()

		ok, err := await(w, &q.notEmpty, false, q.hasElement, q.isClosed)
		if !ok {
			return -1, err
		}
		var prev int64
		item, prev = q.unlinkFirst()
		return prev, nil
	}()
	if prev < 0 {
		return item, false, err
	}
	if prev == q.capacity {
		q.signalNotFull()
	}
	return item, true, nil
}

func (q *TwoLockQueue[T]) Offer(item T) bool {
	ok, _ := q.insert(immediate(), item)
	return ok
}

func (q *TwoLockQueue[T]) Add(item T) error {
	ok, err := q.insert(immediate(), item)
	if err != nil {
		return err
	}
	if !ok {
		return ErrFull
	}
	return nil
}

func (q *TwoLockQueue[T]) Put(ctx context.Context, item T) error {
	_, err := q.insert(forever(ctx), item)
	return err
}

func (q *TwoLockQueue[T]) OfferTimeout(ctx context.Context, item T, timeout time.Duration) (bool, error) {
	w := within(ctx, timeout)
	defer w.release()
	return q.insert(w, item)
}

func (q *TwoLockQueue[T]) Poll() (T, bool) {
	item, ok, _ := q.remove(immediate())
	return item, ok
}

func (q *TwoLockQueue[T]) Take(ctx context.Context) (T, error) {
	item, _, err := q.remove(forever(ctx))
	return item, err
}

func (q *TwoLockQueue[T]) PollTimeout(ctx context.Context, timeout time.Duration) (T, bool, error) {
	w := within(ctx, timeout)
	defer w.release()
	return q.remove(w)
}

func (q *TwoLockQueue[T]) Peek() (T, bool) {
	q.deqMu.Lock()
	defer q.deqMu.Unlock()

	if q.count.Load() == 0 {
		return *new(T), false
	}
	return q.head.next.value, true
}

func (q *TwoLockQueue[T]) Len() int {
	return int(q.count.Load())
}

func (q *TwoLockQueue[T]) Cap() int {
	return int(q.capacity)
}

func (q *TwoLockQueue[T]) RemainingCapacity() int {
	return int(q.capacity - q.count.Load())
}

func (q *TwoLockQueue[T]) Contains(item T) bool {
	q.fullyLock()
	defer q.fullyUnlock()

	for n := q.head.next; n != nil; n = n.next {
		if n.value == item {
			return true
		}
	}
	return false
}

func (q *TwoLockQueue[T]) Snapshot() []T {
	q.fullyLock()
	defer q.fullyUnlock()

	out := make([]T, 0, q.count.Load())
	for n := q.head.next; n != nil; n = n.next {
		out = append(out, n.value)
	}
	return out
}

func (q *TwoLockQueue[T]) AddAll(items ...T) bool {
	prev, ok := func() (int64, bool) {
		q.enqMu.Lock()
		defer q.enqMu.Unlock()

		// Consumers can only lower the count while enqMu is held, so a batch
		// that fits now still fits after it is linked.
		if q.closed.Load() || int64(len(items)) > q.capacity-q.count.Load() {
			return 0, false
		}
		if len(items) == 0 {
			return -1, true
		}
		for _, item := range items {
			n := &node[T]{value: item}
			q.tail.next = n
			q.tail = n
		}
		return q.count.Add(int64(len(items))) - int64(len(items)), true
	}()
	if ok && prev == 0 {
		q.signalNotEmpty()
	}
	return ok
}

func (q *TwoLockQueue[T]) Remove(item T) bool {
	q.fullyLock()
	defer q.fullyUnlock()

	for p := q.head; p.next != nil; p = p.next {
		if p.next.value != item {
			continue
		}
		if p.next == q.tail {
			q.tail = p
		}
		p.next = p.next.next
		// enqMu is already held, so producers can be woken directly.
		if q.count.Add(-1)+1 == q.capacity {
			q.notFull.Broadcast()
		}
		return true
	}
	return false
}

func (q *TwoLockQueue[T]) Clear() {
	q.fullyLock()
	defer q.fullyUnlock()

	q.head.next = nil
	q.tail = q.head
	if q.count.Swap(0) == q.capacity {
		q.notFull.Broadcast()
	}
}

func (q *TwoLockQueue[T]) DrainTo(sink Sink[T]) (int, error) {
	return q.DrainToN(sink, Unbounded)
}

func (q *TwoLockQueue[T]) DrainToN(sink Sink[T], maxElements int) (int, error) {
	if isSelf[T](q, sink) {
		return 0, ErrDrainToSelf
	}

	moved, prev, err := func() (int64, int64, error) {
		q.deqMu.Lock()
		defer q.deqMu.Unlock()

		// Only elements counted at entry are drained. Producers may link more
		// while this runs; those stay queued and remain counted.
		n := min(int64(maxElements), q.count.Load())
		var err error
		var moved int64
		for ; moved < n; moved++ {
			first := q.head.next
			if err = sink.Add(first.value); err != nil {
				break
			}
			first.value = *new(T)
			q.head.next = nil
			q.head = first
		}
		if moved == 0 {
			return 0, 0, err
		}
		return moved, q.count.Add(-moved) + moved, err
	}()
	if moved > 0 && prev == q.capacity {
		q.signalNotFull()
	}
	return int(moved), err
}

func (q *TwoLockQueue[T]) Close() {
	if !q.closed.CompareAndSwap(false, true) {
		return
	}
	// Each waiter checks the flag while holding its side's lock before
	// parking, so taking that lock here orders the broadcast after any such
	// check.
	q.signalNotFull()
	q.signalNotEmpty()
}

func (q *TwoLockQueue[T]) Closed() bool {
	return q.closed.Load()
}
