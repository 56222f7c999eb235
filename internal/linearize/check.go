// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package linearize

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/addrummond/heap"
)

type Rule string

const (
	DuplicateEnqueue Rule = "duplicate-enqueue"
	NeverEnqueued    Rule = "never-enqueued"
	DuplicateRemoval Rule = "duplicate-removal"
	EarlyDequeue     Rule = "early-dequeue"
	Lost             Rule = "lost"
	Reordered        Rule = "reordered"
)

// Violation is one way in which a history is not FIFO-consistent.
type Violation struct {
	Rule   Rule
	Detail string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Rule, v.Detail)
}

type life[T comparable] struct {
	value    T
	enqueued bool
	removed  bool
	enqInv   int64
	enqResp  int64
	deqInv   int64
	deqResp  int64
}

type pending[T comparable] struct {
	at int64
	l  *life[T]
}

func (a *pending[T]) Cmp(b *pending[T]) int {
	return cmp.Compare(a.at, b.at)
}

// Check returns every violation found in history, given the elements still
// queued at the end (head first). Enqueued values must be distinct.
//
// A history is accepted when every enqueued value leaves the queue exactly
// once, never before its enqueue was invoked, and no value overtakes another
// whose enqueue completed before its own began. Values still queued count as
// leaving, in order, after everything in the history.
func Check[T comparable](history []Op[T], remaining []T) []Violation {
	var violations []Violation
	report := func(rule Rule, format string, args ...any) {
		violations = append(violations, Violation{Rule: rule, Detail: fmt.Sprintf(format, args...)})
	}

	lives := make(map[T]*life[T], len(history))
	get := func(v T) *life[T] {
		l, ok := lives[v]
		if !ok {
			l = &life[T]{value: v}
			lives[v] = l
		}
		return l
	}

	var horizon int64
	for _, op := range history {
		horizon = max(horizon, op.Response)
		if op.Kind != Enqueue {
			continue
		}
		l := get(op.Value)
		if l.enqueued {
			report(DuplicateEnqueue, "%v", op.Value)
			continue
		}
		l.enqueued = true
		l.enqInv = op.Invoke
		l.enqResp = op.Response
	}

	remove := func(v T, inv, resp int64) {
		l := get(v)
		switch {
		case !l.enqueued:
			report(NeverEnqueued, "%v", v)
		case l.removed:
			report(DuplicateRemoval, "%v", v)
		case resp < l.enqInv:
			report(EarlyDequeue, "%v dequeued at %d before its enqueue was invoked at %d", v, resp, l.enqInv)
		}
		if l.removed || !l.enqueued {
			return
		}
		l.removed = true
		l.deqInv = inv
		l.deqResp = resp
	}
	for _, op := range history {
		if op.Kind == Dequeue {
			remove(op.Value, op.Invoke, op.Response)
		}
	}
	for i, v := range remaining {
		at := horizon + 1 + int64(i)
		remove(v, at, at)
	}

	var sweep []*life[T]
	for _, l := range lives {
		if !l.enqueued {
			continue
		}
		if !l.removed {
			report(Lost, "%v enqueued at %d", l.value, l.enqResp)
			continue
		}
		sweep = append(sweep, l)
	}
	slices.SortFunc(sweep, func(a, b *life[T]) int {
		return cmp.Compare(a.enqInv, b.enqInv)
	})

	// For each b in order of enqueue invocation, every a whose enqueue
	// responded before b's was invoked must leave before b. The a that leaves
	// latest is the only one that needs comparing.
	var completed heap.Heap[pending[T], heap.Min]
	for _, l := range sweep {
		heap.PushOrderable(&completed, pending[T]{at: l.enqResp, l: l})
	}
	var latest *life[T]
	latestInv := int64(math.MinInt64)
	for _, b := range sweep {
		for {
			p, ok := heap.Peek(&completed)
			if !ok || p.at >= b.enqInv {
				break
			}
			_, _ = heap.PopOrderable(&completed)
			if p.l.deqInv > latestInv {
				latest, latestInv = p.l, p.l.deqInv
			}
		}
		if latest != nil && latestInv > b.deqResp {
			report(Reordered, "%v left before %v although %v was enqueued first", b.value, latest.value, latest.value)
		}
	}

	return violations
}
