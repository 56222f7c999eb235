// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Command bqstress runs concurrent producers and consumers against a queue
// and checks that the result is consistent with a FIFO queue.
//
// Usage:
//
//	go run ./cmd/bqstress -discipline two-lock -capacity 1 -producers 8 -consumers 8
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/djandrewd/blocking-queue/internal/cli"
	"github.com/djandrewd/blocking-queue/internal/stress"
	"github.com/pkg/errors"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "bqstress:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := stress.DefaultConfig()
	logConfig := cli.DefaultLogConfig()

	flags := flag.NewFlagSet("bqstress", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&c.Queue.Discipline, "discipline", c.Queue.Discipline, "queue discipline: monitor or two-lock")
	flags.IntVar(&c.Queue.Capacity, "capacity", c.Queue.Capacity, "queue capacity, 0 for unbounded")
	flags.IntVar(&c.Producers, "producers", c.Producers, "number of producer goroutines")
	flags.IntVar(&c.Consumers, "consumers", c.Consumers, "number of consumer goroutines")
	flags.IntVar(&c.Items, "items", c.Items, "values inserted by each producer")
	flags.DurationVar(&c.Timeout, "timeout", c.Timeout, "abort the run after this long")
	flags.StringVar(&logConfig.Level, "log-level", logConfig.Level, "debug, info, warn, or error")
	if err := flags.Parse(args); err != nil {
		return err
	}

	logger, closeLog, err := cli.NewLogger(logConfig, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	report, err := stress.Run(ctx, c, logger)
	if err != nil {
		return errors.Wrap(err, "running stress test")
	}
	report.Print(stdout)
	if !report.OK() {
		return errors.Errorf("%d violations found", len(report.Violations))
	}
	return nil
}
