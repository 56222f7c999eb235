// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package stress drives a queue with concurrent producers and consumers and
// checks the recorded history.
package stress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	bq "github.com/djandrewd/blocking-queue"
	"github.com/djandrewd/blocking-queue/internal/linearize"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Queue     bq.Config
	Producers int `validate:"min=1"`
	Consumers int `validate:"min=1"`

	// Items is the number of values each producer inserts.
	Items int `validate:"min=1"`

	// Timeout bounds the whole run.
	Timeout time.Duration `validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{
		Queue:     bq.Config{Discipline: bq.TwoLock, Capacity: 16},
		Producers: 4,
		Consumers: 4,
		Items:     10_000,
		Timeout:   time.Minute,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

type Report struct {
	Config     Config
	Enqueued   int
	Dequeued   int
	Remaining  int
	Duration   time.Duration
	MaxLen     int
	Violations []linearize.Violation
}

func (r Report) OK() bool {
	return len(r.Violations) == 0
}

func (r Report) Print(w io.Writer) {
	fmt.Fprintf(w, "discipline:  %s\n", r.Config.Queue.Discipline)
	fmt.Fprintf(w, "capacity:    %d\n", r.Config.Queue.Capacity)
	fmt.Fprintf(w, "actors:      %d producers, %d consumers\n", r.Config.Producers, r.Config.Consumers)
	fmt.Fprintf(w, "enqueued:    %d\n", r.Enqueued)
	fmt.Fprintf(w, "dequeued:    %d\n", r.Dequeued)
	fmt.Fprintf(w, "remaining:   %d\n", r.Remaining)
	fmt.Fprintf(w, "max length:  %d\n", r.MaxLen)
	fmt.Fprintf(w, "duration:    %v\n", r.Duration)
	if r.Duration > 0 {
		fmt.Fprintf(w, "throughput:  %.0f ops/sec\n", float64(r.Enqueued+r.Dequeued)/r.Duration.Seconds())
	}
	fmt.Fprintf(w, "violations:  %d\n", len(r.Violations))
	for _, v := range r.Violations {
		fmt.Fprintf(w, "  %v\n", v)
	}
}

// capacityExceeded marks a length observation outside [0, capacity].
const capacityExceeded linearize.Rule = "capacity-exceeded"

// Run drives a fresh queue and checks what happened. Producers cycle through
// Put, OfferTimeout, and Offer; consumers cycle through Take, PollTimeout,
// and Poll; a watcher samples the length throughout.
func Run(ctx context.Context, c Config, logger *zap.Logger) (Report, error) {
	if err := validate.Struct(c); err != nil {
		return Report{}, fmt.Errorf("invalid stress config: %w", err)
	}
	q, err := bq.NewBlockingQueue[int](c.Queue)
	if err != nil {
		return Report{}, err
	}
	logger = logger.With(zap.String("component", "stress"), zap.String("discipline", c.Queue.Discipline))

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	var rec linearize.Recorder[int]
	total := int64(c.Producers * c.Items)
	var consumed atomic.Int64
	var maxLen atomic.Int64
	var overCapacity atomic.Int64

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for p := range c.Producers {
		g.Go(func() error {
			return produce(gctx, q, &rec, p*c.Items, c.Items)
		})
	}
	for range c.Consumers {
		g.Go(func() error {
			return consume(gctx, q, &rec, &consumed, total)
		})
	}

	watchCtx, stopWatch := context.WithCancel(gctx)
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		for watchCtx.Err() == nil {
			n := int64(q.Len())
			if n < 0 || n > int64(q.Cap()) {
				overCapacity.Add(1)
			}
			for {
				m := maxLen.Load()
				if n <= m || maxLen.CompareAndSwap(m, n) {
					break
				}
			}
		}
	}()

	err = g.Wait()
	stopWatch()
	<-watched
	duration := time.Since(start)
	if err != nil {
		logger.Error("Stress run aborted", zap.Error(err), zap.Int64("consumed", consumed.Load()))
		return Report{}, fmt.Errorf("stress run aborted: %w", err)
	}

	history := rec.History()
	remaining := q.Snapshot()
	report := Report{
		Config:     c,
		Remaining:  len(remaining),
		Duration:   duration,
		MaxLen:     int(maxLen.Load()),
		Violations: linearize.Check(history, remaining),
	}
	for _, op := range history {
		if op.Kind == linearize.Enqueue {
			report.Enqueued++
		} else {
			report.Dequeued++
		}
	}
	if n := overCapacity.Load(); n > 0 {
		report.Violations = append(report.Violations, linearize.Violation{
			Rule:   capacityExceeded,
			Detail: fmt.Sprintf("%d length observations outside [0, %d]", n, q.Cap()),
		})
	}

	logger.Info("Stress run finished",
		zap.Int("enqueued", report.Enqueued),
		zap.Int("dequeued", report.Dequeued),
		zap.Duration("duration", duration),
		zap.Int("violations", len(report.Violations)))
	return report, nil
}

func produce(ctx context.Context, q bq.BlockingQueue[int], rec *linearize.Recorder[int], first, n int) error {
	for i := range n {
		v := first + i
		for {
			inv := rec.Begin()
			var ok bool
			var err error
			switch i % 3 {
			case 0:
				err = q.Put(ctx, v)
				ok = err == nil
			case 1:
				ok, err = q.OfferTimeout(ctx, v, time.Millisecond)
			default:
				ok = q.Offer(v)
			}
			if err != nil {
				return err
			}
			if ok {
				rec.End(linearize.Enqueue, v, inv)
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

func consume(ctx context.Context, q bq.BlockingQueue[int], rec *linearize.Recorder[int], consumed *atomic.Int64, total int64) error {
	for i := 0; consumed.Load() < total; i++ {
		inv := rec.Begin()
		var v int
		var ok bool
		var err error
		switch i % 3 {
		case 0:
			v, err = q.Take(ctx)
			ok = err == nil
		case 1:
			v, ok, err = q.PollTimeout(ctx, time.Millisecond)
		default:
			v, ok = q.Poll()
		}
		if errors.Is(err, bq.ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if ok {
			rec.End(linearize.Dequeue, v, inv)
			// The last value is out, so nothing more will arrive. Closing
			// releases consumers still parked in Take.
			if consumed.Add(1) == total {
				q.Close()
			}
		}
	}
	return nil
}
