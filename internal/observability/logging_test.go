package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ofi-Services/unified-backend/internal/config"
	"github.com/Ofi-Services/unified-backend/model"
)

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestNewLogger_levels(t *testing.T) {
	tests := []struct {
		level      string
		enabled    zapcore.Level
		suppressed zapcore.Level
	}{
		{"error", zapcore.ErrorLevel, zapcore.WarnLevel},
		{"debug", zapcore.DebugLevel, zapcore.InvalidLevel},
		{"", zapcore.InfoLevel, zapcore.DebugLevel},
		{"loud", zapcore.InfoLevel, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := NewLogger(config.ObservabilityConfig{LogLevel: tt.level})
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			if !logger.Core().Enabled(tt.enabled) {
				t.Errorf("%s not enabled", tt.enabled)
			}
			if tt.suppressed != zapcore.InvalidLevel && logger.Core().Enabled(tt.suppressed) {
				t.Errorf("%s enabled", tt.suppressed)
			}
		})
	}
}

func TestNewLogger_generationSummaryFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.ObservabilityConfig{LogLevel: "info"}, zapcore.AddSync(&buf))

	logger.Info("generation finished", zap.Int("generated", 10), zap.Int("failed", 1))

	entry := decodeLogLine(t, &buf)
	if entry["msg"] != "generation finished" || entry["level"] != "info" {
		t.Errorf("entry = %v", entry)
	}
	if entry["generated"] != float64(10) || entry["failed"] != float64(1) {
		t.Errorf("counters = %v, %v", entry["generated"], entry["failed"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := newLogger(config.ObservabilityConfig{LogLevel: "debug"}, zapcore.AddSync(&buf))

	ctx := model.WithRequestContext(context.Background(), &model.RequestContext{
		RequestID: "req-1",
		Method:    "GET",
		Path:      "/api/case/7/bill",
		TraceID:   "0af7651916cd43dd8448eb211c80319c",
		SpanID:    "b7ad6b7169203331",
	})
	RequestLogger(ctx, base).Warn("request failed")

	entry := decodeLogLine(t, &buf)
	for key, want := range map[string]string{
		"request_id": "req-1",
		"method":     "GET",
		"path":       "/api/case/7/bill",
		"trace_id":   "0af7651916cd43dd8448eb211c80319c",
		"span_id":    "b7ad6b7169203331",
	} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %q", key, entry[key], want)
		}
	}
}

func TestRequestLogger_untraced(t *testing.T) {
	var buf bytes.Buffer
	base := newLogger(config.ObservabilityConfig{}, zapcore.AddSync(&buf))

	ctx := model.WithRequestContext(context.Background(), &model.RequestContext{RequestID: "req-2", Method: "GET", Path: "/api/KPI"})
	RequestLogger(ctx, base).Info("request")

	entry := decodeLogLine(t, &buf)
	if _, ok := entry["trace_id"]; ok {
		t.Error("trace_id logged for an untraced request")
	}
	if entry["request_id"] != "req-2" {
		t.Errorf("request_id = %v", entry["request_id"])
	}
}

func TestRequestLogger_outsideRequest(t *testing.T) {
	base := zap.NewNop()
	if got := RequestLogger(context.Background(), base); got != base {
		t.Error("expected the base logger outside a request")
	}
}
