// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package pubsub fans messages published to a blocking queue out to a fixed
// budget of consumer goroutines.
//
// Each registered consumer runs in its own goroutine, repeatedly polling the
// shared queue and handing every message it receives to its handler. A message
// is delivered to exactly one consumer. Closing the broker rejects further
// publishing, lets the consumers finish whatever is already queued, and waits
// for them to exit.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	bq "github.com/djandrewd/blocking-queue"
	"github.com/djandrewd/blocking-queue/internal/cerr"
	"github.com/djandrewd/blocking-queue/internal/state"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/djandrewd/blocking-queue/pubsub"

// ErrBrokerClosed is returned when publishing to or registering with a closed
// broker.
const ErrBrokerClosed = cerr.Error("broker closed")

// ErrTooManyConsumers is returned by Register once MaxConsumers consumers are
// registered.
const ErrTooManyConsumers = cerr.Error("too many consumers")

// A Handler processes one message. A panicking handler is logged and counted,
// and its consumer moves on to the next message.
type Handler[T any] func(ctx context.Context, msg T)

// Broker delivers published messages to registered consumers.
type Broker[T comparable] struct {
	config Config
	queue  bq.BlockingQueue[T]

	logger    *zap.Logger
	tracer    trace.Tracer
	published metric.Int64Counter
	delivered metric.Int64Counter
	failed    metric.Int64Counter
	depth     metric.Registration

	consumers state.InFlightCounter
	open      atomic.Bool

	// mu orders registrations against Close so that no worker starts after
	// Close has begun waiting.
	mu sync.Mutex
	wg sync.WaitGroup
}

// New returns an open Broker with no consumers.
func New[T comparable](config Config, opts ...Option) (*Broker[T], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	queue, err := bq.NewBlockingQueue[T](config.Queue)
	if err != nil {
		return nil, fmt.Errorf("creating broker queue: %w", err)
	}

	o := newOptions(opts)
	meter := o.meterProvider.Meter(instrumentationName)
	b := &Broker[T]{
		config:    config,
		queue:     queue,
		logger:    o.logger,
		tracer:    o.tracerProvider.Tracer(instrumentationName),
		consumers: state.InFlightCounter{Name: "pubsub consumers"},
	}
	b.published, _ = meter.Int64Counter("pubsub.published",
		metric.WithDescription("Messages accepted by the broker"))
	b.delivered, _ = meter.Int64Counter("pubsub.delivered",
		metric.WithDescription("Messages handled without panicking"))
	b.failed, _ = meter.Int64Counter("pubsub.failed",
		metric.WithDescription("Messages whose handler panicked"))
	depth, _ := meter.Int64ObservableGauge("pubsub.queue.depth",
		metric.WithDescription("Messages waiting for a consumer"))
	b.depth, _ = meter.RegisterCallback(func(_ context.Context, obs metric.Observer) error {
		obs.ObserveInt64(depth, int64(queue.Len()))
		return nil
	}, depth)

	b.open.Store(true)
	return b, nil
}

// Register starts a consumer that passes every message it receives to
// handler. The name identifies the consumer in logs, spans, and metrics.
func (b *Broker[T]) Register(name string, handler Handler[T]) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open.Load() {
		return ErrBrokerClosed
	}
	if !b.consumers.IncrementIfUnder(b.config.MaxConsumers) {
		return ErrTooManyConsumers
	}
	b.wg.Add(1)
	go b.consume(name, handler)
	return nil
}

// Consumers returns the number of running consumers.
func (b *Broker[T]) Consumers() int {
	return b.consumers.Load()
}

// Pending returns the number of published messages not yet taken by a
// consumer.
func (b *Broker[T]) Pending() int {
	return b.queue.Len()
}

// Publish queues msg, waiting for room if the queue is bounded and full.
func (b *Broker[T]) Publish(ctx context.Context, msg T) error {
	if !b.open.Load() {
		return ErrBrokerClosed
	}
	if err := b.queue.Put(ctx, msg); err != nil {
		if errors.Is(err, bq.ErrClosed) {
			return ErrBrokerClosed
		}
		return err
	}
	b.accepted(ctx, msg)
	return nil
}

// TryPublish queues msg only if there is room, reporting whether it did.
func (b *Broker[T]) TryPublish(msg T) bool {
	if !b.open.Load() || !b.queue.Offer(msg) {
		return false
	}
	b.accepted(context.Background(), msg)
	return true
}

func (b *Broker[T]) accepted(ctx context.Context, msg T) {
	b.published.Add(ctx, 1)
	b.logger.Debug("Published message",
		zap.String("component", "pubsub"),
		zap.Any("message", msg))
}

// Close stops accepting messages, waits for the consumers to handle what is
// already queued, and waits for them to exit. Calling Close more than once
// has no additional effect.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	if !b.open.CompareAndSwap(true, false) {
		b.mu.Unlock()
		return
	}
	b.queue.Close()
	b.mu.Unlock()

	b.wg.Wait()
	if b.depth != nil {
		_ = b.depth.Unregister()
	}
	b.logger.Debug("Broker closed", zap.String("component", "pubsub"))
}

func (b *Broker[T]) consume(name string, handler Handler[T]) {
	defer b.wg.Done()
	defer b.consumers.Decrement()

	logger := b.logger.With(
		zap.String("component", "pubsub"),
		zap.String("consumer", name))
	logger.Debug("Consumer started")

	for {
		msg, ok, err := b.queue.PollTimeout(context.Background(), b.config.PollTimeout)
		if err != nil {
			logger.Debug("Consumer exiting", zap.Error(err))
			return
		}
		if !ok {
			continue
		}
		b.deliver(logger, name, handler, msg)
	}
}

func (b *Broker[T]) deliver(logger *zap.Logger, name string, handler Handler[T], msg T) {
	attrs := attribute.NewSet(attribute.String("consumer", name))
	ctx, span := b.tracer.Start(context.Background(), "pubsub.deliver",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attrs.ToSlice()...))
	defer span.End()

	logger.Debug("Received message", zap.Any("message", msg))

	startTime := time.Now()
	didPanic := true
	defer func() {
		duration := time.Since(startTime)
		if !didPanic {
			b.delivered.Add(ctx, 1, metric.WithAttributeSet(attrs))
			return
		}
		r := recover()
		b.failed.Add(ctx, 1, metric.WithAttributeSet(attrs))
		span.SetStatus(codes.Error, fmt.Sprint(r))
		logger.Error("Handler panicked",
			zap.Any("message", msg),
			zap.Any("panic", r),
			zap.Duration("duration", duration))
	}()

	handler(ctx, msg)
	didPanic = false
}
