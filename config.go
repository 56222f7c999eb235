// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package bq

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Locking disciplines selectable through [Config].
const (
	SingleLock = "single-lock"
	Monitor    = "monitor"
	TwoLock    = "two-lock"
)

// Config selects a queue implementation by name.
type Config struct {
	// Discipline is one of [SingleLock], [Monitor], or [TwoLock].
	Discipline string `validate:"oneof=single-lock monitor two-lock"`

	// Capacity is the maximum number of queued elements. Zero means
	// [Unbounded].
	Capacity int `validate:"min=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports whether c names a known discipline and a usable capacity.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid queue config: %w", err)
	}
	return nil
}

func (c Config) capacity() int {
	if c.Capacity == 0 {
		return Unbounded
	}
	return c.Capacity
}

// NewQueue returns an empty queue of any discipline.
func NewQueue[T comparable](c Config) (Queue[T], error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Discipline == SingleLock {
		return NewLockQueue[T](c.capacity()), nil
	}
	return NewBlockingQueue[T](c)
}

// NewBlockingQueue returns an empty blocking queue. It returns
// [ErrNotBlocking] if c selects [SingleLock].
func NewBlockingQueue[T comparable](c Config) (BlockingQueue[T], error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Discipline {
	case Monitor:
		return NewMonitorQueue[T](c.capacity()), nil
	case TwoLock:
		return NewTwoLockQueue[T](c.capacity()), nil
	default:
		return nil, ErrNotBlocking
	}
}
