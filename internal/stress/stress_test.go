// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package stress_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	bq "github.com/djandrewd/blocking-queue"
	"github.com/djandrewd/blocking-queue/internal/stress"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRunPassesForEveryBlockingDiscipline(t *testing.T) {
	items := 2000
	if testing.Short() {
		items = 200
	}
	for _, discipline := range []string{bq.Monitor, bq.TwoLock} {
		for _, capacity := range []int{0, 1, 8} {
			c := stress.Config{
				Queue:     bq.Config{Discipline: discipline, Capacity: capacity},
				Producers: 3,
				Consumers: 3,
				Items:     items,
				Timeout:   time.Minute,
			}
			report, err := stress.Run(context.Background(), c, zaptest.NewLogger(t))
			require.NoError(t, err, "%s/%d", discipline, capacity)
			require.True(t, report.OK(), "%s/%d: %v", discipline, capacity, report.Violations)
			require.Equal(t, 3*items, report.Enqueued)
			require.Equal(t, 3*items, report.Dequeued)
			require.Zero(t, report.Remaining)
			if capacity > 0 {
				require.LessOrEqual(t, report.MaxLen, capacity)
			}
		}
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	chk := require.New(t)
	logger := zaptest.NewLogger(t)

	c := stress.DefaultConfig()
	c.Producers = 0
	_, err := stress.Run(context.Background(), c, logger)
	chk.ErrorContains(err, "invalid stress config")

	c = stress.DefaultConfig()
	c.Queue.Discipline = bq.SingleLock
	_, err = stress.Run(context.Background(), c, logger)
	chk.ErrorIs(err, bq.ErrNotBlocking)
}

func TestReportPrint(t *testing.T) {
	chk := require.New(t)
	var buf bytes.Buffer
	stress.Report{
		Config:   stress.DefaultConfig(),
		Enqueued: 10,
		Dequeued: 10,
		Duration: time.Second,
	}.Print(&buf)

	out := buf.String()
	chk.Contains(out, "discipline:  two-lock")
	chk.Contains(out, "throughput:  20 ops/sec")
	chk.Contains(out, "violations:  0")
}
