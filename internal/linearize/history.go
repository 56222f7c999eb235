// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package linearize records concurrent queue histories and checks them for
// FIFO consistency.
//
// Time is a logical clock shared by every recorded operation. An operation's
// invocation is stamped before it calls into the queue and its response after
// it returns, so if one operation's response precedes another's invocation,
// the first really did finish before the second started.
package linearize

import (
	"sync"
	"sync/atomic"
)

type Kind int

const (
	Enqueue Kind = iota
	Dequeue
)

func (k Kind) String() string {
	switch k {
	case Enqueue:
		return "enqueue"
	case Dequeue:
		return "dequeue"
	default:
		return "unknown"
	}
}

// Op is one completed, successful queue operation.
type Op[T comparable] struct {
	Kind     Kind
	Value    T
	Invoke   int64
	Response int64
}

// Recorder collects a history from any number of goroutines.
type Recorder[T comparable] struct {
	clock atomic.Int64
	mu    sync.Mutex
	ops   []Op[T]
}

// Begin stamps an invocation.
func (r *Recorder[T]) Begin() int64 {
	return r.clock.Add(1)
}

// End stamps the response of an operation begun at invoke and records it.
// Operations that did not take effect, such as a failed Offer, must not be
// recorded.
func (r *Recorder[T]) End(kind Kind, value T, invoke int64) {
	op := Op[T]{
		Kind:     kind,
		Value:    value,
		Invoke:   invoke,
		Response: r.clock.Add(1),
	}
	r.mu.Lock()
	r.ops = append(r.ops, op)
	r.mu.Unlock()
}

// History returns a copy of everything recorded so far.
func (r *Recorder[T]) History() []Op[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op[T](nil), r.ops...)
}

// Len returns the number of recorded operations.
func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ops)
}
