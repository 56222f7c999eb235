// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package bq_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	bq "github.com/djandrewd/blocking-queue"
	"github.com/djandrewd/blocking-queue/internal/linearize"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func scaled(n int) int {
	if testing.Short() {
		return max(1, n/10)
	}
	return n
}

// runHistory runs producers and consumers against q until every produced
// value has been consumed and returns the recorded history.
func runHistory(t *testing.T, q bq.BlockingQueue[int], producers, consumers, perProducer int) []linearize.Op[int] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var rec linearize.Recorder[int]
	var consumed atomic.Int64
	total := int64(producers * perProducer)

	g, ctx := errgroup.WithContext(ctx)
	for p := range producers {
		g.Go(func() error {
			for i := range perProducer {
				v := p*perProducer + i
				inv := rec.Begin()
				if i%2 == 0 {
					if err := q.Put(ctx, v); err != nil {
						return err
					}
				} else {
					for {
						ok, err := q.OfferTimeout(ctx, v, time.Millisecond)
						if err != nil {
							return err
						}
						if ok {
							break
						}
					}
				}
				rec.End(linearize.Enqueue, v, inv)
			}
			return nil
		})
	}
	for range consumers {
		g.Go(func() error {
			for consumed.Load() < total {
				inv := rec.Begin()
				v, ok, err := q.PollTimeout(ctx, time.Millisecond)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				rec.End(linearize.Dequeue, v, inv)
				consumed.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	return rec.History()
}

func TestConcurrentHistoryIsFIFO(t *testing.T) {
	forEachBlockingDiscipline(t, func(t *testing.T, d blockingDiscipline) {
		for _, capacity := range []int{1, 2, 16} {
			q := d.new(capacity)
			h := runHistory(t, q, 4, 4, scaled(500))
			require.Empty(t, linearize.Check(h, q.Snapshot()), "capacity %d", capacity)
			require.Equal(t, 0, q.Len())
		}
	})
}

func TestSingleProducerOrderIsPreserved(t *testing.T) {
	forEachBlockingDiscipline(t, func(t *testing.T, d blockingDiscipline) {
		chk := require.New(t)
		ctx := context.Background()
		q := d.new(3)
		n := scaled(5000)

		var g errgroup.Group
		g.Go(func() error {
			for i := range n {
				if err := q.Put(ctx, i); err != nil {
					return err
				}
			}
			return nil
		})
		got := make([]int, 0, n)
		g.Go(func() error {
			for range n {
				v, err := q.Take(ctx)
				if err != nil {
					return err
				}
				got = append(got, v)
			}
			return nil
		})
		chk.NoError(g.Wait())
		for i, v := range got {
			chk.Equal(i, v)
		}
	})
}

func TestCapacityIsNeverExceeded(t *testing.T) {
	forEachBlockingDiscipline(t, func(t *testing.T, d blockingDiscipline) {
		chk := require.New(t)
		const capacity = 4
		q := d.new(capacity)
		ctx, cancel := context.WithCancel(context.Background())

		var watcher sync.WaitGroup
		var violations atomic.Int64
		watcher.Add(1)
		go func() {
			defer watcher.Done()
			for ctx.Err() == nil {
				if n := q.Len(); n < 0 || n > capacity {
					violations.Add(1)
				}
				if r := q.RemainingCapacity(); r < 0 || r > capacity {
					violations.Add(1)
				}
			}
		}()

		h := runHistory(t, q, 3, 3, scaled(1000))
		cancel()
		watcher.Wait()

		chk.Zero(violations.Load())
		chk.Empty(linearize.Check(h, q.Snapshot()))
	})
}

// Producers and consumers of a capacity-one queue alternate strictly, so any
// lost wake-up shows up as a deadlock.
func TestCapacityOneTerminates(t *testing.T) {
	forEachBlockingDiscipline(t, func(t *testing.T, d blockingDiscipline) {
		chk := require.New(t)
		q := d.new(1)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		const actors = 4
		per := scaled(1000)
		g, ctx := errgroup.WithContext(ctx)
		var sum atomic.Int64
		for p := range actors {
			g.Go(func() error {
				for i := range per {
					if err := q.Put(ctx, p*per+i); err != nil {
						return err
					}
				}
				return nil
			})
			g.Go(func() error {
				for range per {
					v, err := q.Take(ctx)
					if err != nil {
						return err
					}
					sum.Add(int64(v))
				}
				return nil
			})
		}
		chk.NoError(g.Wait())

		n := int64(actors * per)
		chk.Equal(n*(n-1)/2, sum.Load())
		chk.Equal(0, q.Len())
	})
}

func TestPeekIsStableWithoutRemovals(t *testing.T) {
	forEachBlockingDiscipline(t, func(t *testing.T, d blockingDiscipline) {
		chk := require.New(t)
		q := d.unbounded()
		chk.True(q.Offer(-1))
		ctx, cancel := context.WithCancel(context.Background())

		var producers sync.WaitGroup
		for p := range 2 {
			producers.Add(1)
			go func() {
				defer producers.Done()
				for i := 0; i < 100_000 && ctx.Err() == nil; i++ {
					q.Offer(p*1_000_000 + i)
				}
			}()
		}

		for range scaled(2000) {
			v, ok := q.Peek()
			chk.True(ok)
			chk.Equal(-1, v)
		}
		cancel()
		producers.Wait()
	})
}

func TestDrainIsAtomicWithConcurrentProducers(t *testing.T) {
	forEachBlockingDiscipline(t, func(t *testing.T, d blockingDiscipline) {
		chk := require.New(t)
		q := d.unbounded()
		per := scaled(20_000)

		var rec linearize.Recorder[int]
		var producers errgroup.Group
		var producing atomic.Int64
		for p := range 3 {
			producing.Add(1)
			producers.Go(func() error {
				defer producing.Add(-1)
				for i := range per {
					v := p*per + i
					inv := rec.Begin()
					if err := q.Add(v); err != nil {
						return err
					}
					rec.End(linearize.Enqueue, v, inv)
				}
				return nil
			})
		}

		drain := func() {
			var sink bq.SliceSink[int]
			inv := rec.Begin()
			_, err := q.DrainTo(&sink)
			chk.NoError(err)
			// Each drained element leaves within the drain's window, in
			// order.
			for _, v := range sink {
				rec.End(linearize.Dequeue, v, inv)
			}
		}
		for producing.Load() > 0 {
			drain()
		}
		chk.NoError(producers.Wait())
		drain()

		chk.Equal(0, q.Len())
		chk.Empty(linearize.Check(rec.History(), q.Snapshot()))
		chk.Equal(3*per, rec.Len()/2)
	})
}
