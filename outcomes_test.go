// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package bq_test

import (
	"context"
	"sync"
	"testing"

	bq "github.com/djandrewd/blocking-queue"
	"github.com/stretchr/testify/require"
)

// race runs actors concurrently from a common start and waits for all of them.
func race(actors ...func()) {
	var start, done sync.WaitGroup
	start.Add(1)
	for _, actor := range actors {
		done.Add(1)
		go func() {
			defer done.Done()
			start.Wait()
			actor()
		}()
	}
	start.Done()
	done.Wait()
}

// Two producers each offer into an empty queue and then peek. Both peeks must
// see the same head, whichever insert took effect first.
func TestRacingOffersPeekSameHead(t *testing.T) {
	forEachDiscipline(t, func(t *testing.T, d discipline) {
		chk := require.New(t)
		for range scaled(2000) {
			q := d.new(4)
			var a, b int
			var okA, okB bool
			race(
				func() { q.Offer(1); a, okA = q.Peek() },
				func() { q.Offer(2); b, okB = q.Peek() },
			)
			chk.True(okA)
			chk.True(okB)
			chk.Equal(a, b)
			chk.Contains([]int{1, 2}, a)
		}
	})
}

// Two producers each offer into an empty queue and then read the length.
// Whoever reads last must see both inserts.
func TestRacingOffersSize(t *testing.T) {
	forEachDiscipline(t, func(t *testing.T, d discipline) {
		chk := require.New(t)
		for range scaled(2000) {
			q := d.new(4)
			var a, b int
			race(
				func() { q.Offer(1); a = q.Len() },
				func() { q.Offer(2); b = q.Len() },
			)
			chk.Equal(2, max(a, b))
			chk.Contains([]int{1, 2}, min(a, b))
			chk.Equal(2, q.Len())
		}
	})
}

// Two producers race to add the same value; Contains must see it afterwards
// from either side.
func TestRacingAddsContain(t *testing.T) {
	forEachBlockingDiscipline(t, func(t *testing.T, d blockingDiscipline) {
		chk := require.New(t)
		for range scaled(2000) {
			q := d.new(1)
			var errA, errB error
			var seenA, seenB bool
			race(
				func() { errA = q.Add(7); seenA = q.Contains(7) },
				func() { errB = q.Add(7); seenB = q.Contains(7) },
			)
			chk.True(seenA)
			chk.True(seenB)
			// Exactly one of the two fits.
			chk.True((errA == nil) != (errB == nil))
			if errA != nil {
				chk.ErrorIs(errA, bq.ErrFull)
			} else {
				chk.ErrorIs(errB, bq.ErrFull)
			}
			chk.Equal(1, q.Len())
		}
	})
}

// A capacity-one queue holding 1: a blocked Put(2) completes exactly when a
// Take removes 1.
func TestPutTakeHandOff(t *testing.T) {
	forEachBlockingDiscipline(t, func(t *testing.T, d blockingDiscipline) {
		chk := require.New(t)
		ctx := context.Background()
		for range scaled(500) {
			q := d.new(1)
			chk.True(q.Offer(1))
			var putErr, takeErr error
			var took int
			race(
				func() { putErr = q.Put(ctx, 2) },
				func() { took, takeErr = q.Take(ctx) },
			)
			chk.NoError(putErr)
			chk.NoError(takeErr)
			chk.Equal(1, took)
			chk.Equal([]int{2}, q.Snapshot())
		}
	})
}
