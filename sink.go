// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package bq

// A Sink receives elements drained from a queue. Add returns a non-nil error
// to refuse an element. Every [BlockingQueue] is a Sink.
type Sink[T any] interface {
	Add(item T) error
}

// SliceSink is a Sink that appends to a slice and never refuses.
type SliceSink[T any] []T

func (s *SliceSink[T]) Add(item T) error {
	*s = append(*s, item)
	return nil
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc[T any] func(item T) error

func (f SinkFunc[T]) Add(item T) error {
	return f(item)
}

func isSelf[T comparable](q BlockingQueue[T], sink Sink[T]) bool {
	s, ok := sink.(BlockingQueue[T])
	return ok && s == q
}
