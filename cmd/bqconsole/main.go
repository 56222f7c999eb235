// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Command bqconsole publishes every whitespace-separated word read from
// standard input to a set of consumers, each of which prints what it
// receives. It stops at "exit" or end of input.
//
// Usage:
//
//	go run ./cmd/bqconsole -consumers 2 -discipline two-lock
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"

	bq "github.com/djandrewd/blocking-queue"
	"github.com/djandrewd/blocking-queue/internal/cli"
	"github.com/djandrewd/blocking-queue/pubsub"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "bqconsole:", err)
		os.Exit(1)
	}
}

// lockedWriter serializes writes from concurrent consumers.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format, args...)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	config := pubsub.DefaultConfig()
	logConfig := cli.DefaultLogConfig()
	consumers := 2
	tracing := false

	flags := flag.NewFlagSet("bqconsole", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&config.Queue.Discipline, "discipline", bq.TwoLock, "queue discipline: monitor or two-lock")
	flags.IntVar(&config.Queue.Capacity, "capacity", 0, "queue capacity, 0 for unbounded")
	flags.IntVar(&consumers, "consumers", consumers, "number of consumers to register")
	flags.DurationVar(&config.PollTimeout, "poll-timeout", config.PollTimeout, "how long an idle consumer waits before polling again")
	flags.StringVar(&logConfig.Level, "log-level", logConfig.Level, "debug, info, warn, or error")
	flags.StringVar(&logConfig.File, "log-file", "", "write the log to this file, rotating it as it grows")
	flags.BoolVar(&tracing, "trace", false, "print delivery spans to standard error")
	if err := flags.Parse(args); err != nil {
		return err
	}
	config.MaxConsumers = max(consumers, 1)

	logger, closeLog, err := cli.NewLogger(logConfig, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	opts := []pubsub.Option{pubsub.WithLogger(logger)}
	var tp *trace.TracerProvider
	if tracing {
		if tp, err = cli.NewTracerProvider(stderr); err != nil {
			return err
		}
		otel.SetTracerProvider(tp)
		opts = append(opts, pubsub.WithTracerProvider(tp))
	}

	broker, err := pubsub.New[string](config, opts...)
	if err != nil {
		return errors.Wrap(err, "starting broker")
	}

	out := &lockedWriter{w: stdout}
	for i := 1; i <= consumers; i++ {
		name := fmt.Sprintf("consumer %d", i)
		err := broker.Register(name, func(_ context.Context, msg string) {
			out.Printf("Message received in %s: %s\n", name, msg)
		})
		if err != nil {
			broker.Close()
			return errors.Wrapf(err, "registering %s", name)
		}
	}

	err = publishWords(ctx, broker, stdin, logger)
	broker.Close()
	if shutdownErr := cli.Shutdown(context.Background(), tp); err == nil {
		err = shutdownErr
	}
	return err
}

func publishWords(ctx context.Context, broker *pubsub.Broker[string], stdin io.Reader, logger *zap.Logger) error {
	scanner := bufio.NewScanner(stdin)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		word := scanner.Text()
		if word == "exit" {
			logger.Info("Exit requested")
			return nil
		}
		if err := broker.Publish(ctx, word); err != nil {
			return errors.Wrapf(err, "publishing %q", word)
		}
	}
	return errors.Wrap(scanner.Err(), "reading input")
}
