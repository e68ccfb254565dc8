package observability

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ofi-Services/unified-backend/internal/config"
	"github.com/Ofi-Services/unified-backend/model"
)

// NewLogger returns a JSON logger writing to stderr; stdout carries command
// output. An unknown log level falls back to info.
//
// Levels:
//   - error: store failures, recovered panics, 5xx responses
//   - warn:  4xx responses, failed cases, cache backend errors
//   - info:  requests, generation progress and summaries, analytics runs
//   - debug: cache hits and misses
func NewLogger(cfg config.ObservabilityConfig) (*zap.Logger, error) {
	return newLogger(cfg, zapcore.Lock(os.Stderr)), nil
}

func newLogger(cfg config.ObservabilityConfig, out zapcore.WriteSyncer) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	})
	return zap.New(zapcore.NewCore(enc, out, level),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
	)
}

// RequestLogger returns base with the request id, method, path and, when
// the request is traced, the trace and span ids.
func RequestLogger(ctx context.Context, base *zap.Logger) *zap.Logger {
	rctx := model.RequestContextFrom(ctx)
	if rctx == nil {
		return base
	}
	fields := []zap.Field{
		zap.String("request_id", rctx.RequestID),
		zap.String("method", rctx.Method),
		zap.String("path", rctx.Path),
	}
	if rctx.TraceID != "" {
		fields = append(fields, zap.String("trace_id", rctx.TraceID), zap.String("span_id", rctx.SpanID))
	}
	return base.With(fields...)
}
