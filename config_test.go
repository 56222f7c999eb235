// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package bq_test

import (
	"testing"

	bq "github.com/djandrewd/blocking-queue"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func TestNewQueue(t *testing.T) {
	tests := []struct {
		name    string
		config  bq.Config
		wantCap int
		check   func(*require.Assertions, bq.Queue[int])
	}{
		{
			name:    "single-lock",
			config:  bq.Config{Discipline: bq.SingleLock, Capacity: 3},
			wantCap: 3,
			check: func(chk *require.Assertions, q bq.Queue[int]) {
				chk.IsType(&bq.LockQueue[int]{}, q)
			},
		},
		{
			name:    "monitor",
			config:  bq.Config{Discipline: bq.Monitor, Capacity: 2},
			wantCap: 2,
			check: func(chk *require.Assertions, q bq.Queue[int]) {
				chk.IsType(&bq.MonitorQueue[int]{}, q)
			},
		},
		{
			name:    "two-lock unbounded",
			config:  bq.Config{Discipline: bq.TwoLock},
			wantCap: bq.Unbounded,
			check: func(chk *require.Assertions, q bq.Queue[int]) {
				chk.IsType(&bq.TwoLockQueue[int]{}, q)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chk := require.New(t)
			q, err := bq.NewQueue[int](tt.config)
			chk.NoError(err)
			chk.Equal(tt.wantCap, q.Cap())
			tt.check(chk, q)
		})
	}
}

func TestNewQueueRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config bq.Config
		field  string
	}{
		{name: "unknown discipline", config: bq.Config{Discipline: "spin", Capacity: 1}, field: "Discipline"},
		{name: "empty discipline", config: bq.Config{Capacity: 1}, field: "Discipline"},
		{name: "negative capacity", config: bq.Config{Discipline: bq.Monitor, Capacity: -1}, field: "Capacity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chk := require.New(t)
			q, err := bq.NewQueue[int](tt.config)
			chk.Nil(q)
			chk.ErrorContains(err, "invalid queue config")

			var verrs validator.ValidationErrors
			chk.ErrorAs(err, &verrs)
			chk.Len(verrs, 1)
			chk.Equal(tt.field, verrs[0].Field())

			bqueue, err := bq.NewBlockingQueue[int](tt.config)
			chk.Nil(bqueue)
			chk.Error(err)
		})
	}
}

func TestNewBlockingQueue(t *testing.T) {
	chk := require.New(t)

	q, err := bq.NewBlockingQueue[string](bq.Config{Discipline: bq.TwoLock, Capacity: 8})
	chk.NoError(err)
	chk.Equal(8, q.Cap())
	chk.NoError(q.Add("a"))

	q, err = bq.NewBlockingQueue[string](bq.Config{Discipline: bq.Monitor})
	chk.NoError(err)
	chk.Equal(bq.Unbounded, q.Cap())

	q, err = bq.NewBlockingQueue[string](bq.Config{Discipline: bq.SingleLock, Capacity: 8})
	chk.ErrorIs(err, bq.ErrNotBlocking)
	chk.Nil(q)
}
