// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package pubsub

import (
	"fmt"
	"time"

	bq "github.com/djandrewd/blocking-queue"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultMaxConsumers = 10
	DefaultPollTimeout  = 2 * time.Second
)

// Config sizes a [Broker].
type Config struct {
	// Queue selects the queue that buffers published messages. Its
	// discipline must support blocking operations.
	Queue bq.Config

	// MaxConsumers bounds the number of registered consumers.
	MaxConsumers int `validate:"min=1"`

	// PollTimeout is how long an idle consumer waits for a message before
	// polling again.
	PollTimeout time.Duration `validate:"gt=0"`
}

// DefaultConfig returns a Config backed by an unbounded two-lock queue.
func DefaultConfig() Config {
	return Config{
		Queue:        bq.Config{Discipline: bq.TwoLock},
		MaxConsumers: DefaultMaxConsumers,
		PollTimeout:  DefaultPollTimeout,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid pubsub config: %w", err)
	}
	return nil
}

type options struct {
	logger         *zap.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option customizes a [Broker].
type Option func(*options)

// WithLogger sets the logger. The default is [zap.L] at the time New is
// called.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTracerProvider sets the source of delivery spans. The default is the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithMeterProvider sets the source of message counters. The default is the
// global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:         zap.L(),
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
