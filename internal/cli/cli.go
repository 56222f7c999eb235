// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package cli holds the logging and tracing bootstrap shared by the commands.
package cli

import (
	"context"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/natefinch/lumberjack"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig selects where and how verbosely a command logs.
type LogConfig struct {
	Level string `validate:"oneof=debug info warn error"`

	// File, if set, receives the log instead of the fallback writer and is
	// rotated once it reaches MaxSizeMB.
	File       string
	MaxSizeMB  int `validate:"min=1"`
	MaxBackups int `validate:"min=0"`
}

func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 3,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewLogger builds a console-encoded logger writing to c.File or, if that is
// empty, to fallback. The returned function flushes and releases the log.
func NewLogger(c LogConfig, fallback io.Writer) (*zap.Logger, func(), error) {
	if err := validate.Struct(c); err != nil {
		return nil, nil, errors.Wrap(err, "invalid log config")
	}
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parsing log level")
	}

	var sink zapcore.WriteSyncer
	closeSink := func() error { return nil }
	if c.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
		}
		sink = zapcore.AddSync(rotator)
		closeSink = rotator.Close
	} else {
		sink = zapcore.Lock(zapcore.AddSync(fallback))
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), sink, level)
	logger := zap.New(core)

	return logger, func() {
		_ = logger.Sync()
		_ = closeSink()
	}, nil
}

// NewTracerProvider returns a provider that exports spans to w as indented
// JSON.
func NewTracerProvider(w io.Writer) (*trace.TracerProvider, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating span exporter")
	}
	return trace.NewTracerProvider(
		trace.WithSampler(trace.AlwaysSample()),
		trace.WithBatcher(exporter),
	), nil
}

// Shutdown flushes and stops tp, ignoring a nil provider.
func Shutdown(ctx context.Context, tp *trace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return errors.Wrap(tp.Shutdown(ctx), "shutting down tracer provider")
}
