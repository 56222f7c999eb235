// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/djandrewd/blocking-queue/internal/cli"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerWritesToFallback(t *testing.T) {
	chk := require.New(t)
	var buf bytes.Buffer
	logger, closeLog, err := cli.NewLogger(cli.DefaultLogConfig(), &buf)
	chk.NoError(err)

	logger.Debug("hidden")
	logger.Info("shown", zap.Int("n", 7))
	closeLog()

	chk.NotContains(buf.String(), "hidden")
	chk.Contains(buf.String(), "shown")
	chk.Contains(buf.String(), `"n"`)
}

func TestNewLoggerWritesToFile(t *testing.T) {
	chk := require.New(t)
	path := filepath.Join(t.TempDir(), "console.log")
	c := cli.DefaultLogConfig()
	c.Level = "debug"
	c.File = path

	var fallback bytes.Buffer
	logger, closeLog, err := cli.NewLogger(c, &fallback)
	chk.NoError(err)
	logger.Debug("to file")
	closeLog()

	data, err := os.ReadFile(path)
	chk.NoError(err)
	chk.Contains(string(data), "to file")
	chk.Zero(fallback.Len())
}

func TestNewLoggerRejectsBadConfig(t *testing.T) {
	chk := require.New(t)

	c := cli.DefaultLogConfig()
	c.Level = "loud"
	_, _, err := cli.NewLogger(c, &bytes.Buffer{})
	chk.ErrorContains(err, "invalid log config")

	c = cli.DefaultLogConfig()
	c.MaxSizeMB = 0
	_, _, err = cli.NewLogger(c, &bytes.Buffer{})
	chk.Error(err)
}

func TestTracerProviderExportsOnShutdown(t *testing.T) {
	chk := require.New(t)
	var buf bytes.Buffer
	tp, err := cli.NewTracerProvider(&buf)
	chk.NoError(err)

	_, span := tp.Tracer("test").Start(context.Background(), "unit-of-work")
	span.End()
	chk.NoError(cli.Shutdown(context.Background(), tp))
	chk.Contains(buf.String(), `"unit-of-work"`)

	chk.NoError(cli.Shutdown(context.Background(), nil))
}
