// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package state holds small lock-free bookkeeping types shared by the
// long-running components.
package state

import (
	"sync/atomic"
)

// InFlightCounter counts goroutines occupying a bounded set of slots.
type InFlightCounter struct {
	Name string
	v    atomic.Int64
}

// IncrementIfUnder takes a slot if fewer than limit are in use and reports
// whether it did.
func (c *InFlightCounter) IncrementIfUnder(limit int) bool {
	// Tentatively increment the counter and check against limit. If over limit,
	// remove the tentative increment and try again if we notice that another
	// goroutine has made room between the increment and decrement.
	for c.v.Add(1) > int64(limit) {
		if c.v.Add(-1) >= int64(limit) {
			return false
		}
	}
	return true
}

// Decrement releases a slot and reports whether none remain in use.
func (c *InFlightCounter) Decrement() bool {
	newValue := c.v.Add(-1)
	if newValue < 0 {
		panic(c.Name + ": no slots in use")
	}
	return newValue == 0
}

// Load returns the number of slots in use.
func (c *InFlightCounter) Load() int {
	return int(c.v.Load())
}
