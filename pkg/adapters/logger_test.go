// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-objlifecycle.
//
// go-objlifecycle is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("LogLevel.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSlogLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(&buf, true).WithFields(Field{Key: "run_id", Value: "r1"})

	logger.Info(context.Background(), "Rule evaluated", Field{Key: "rule", Value: "archive-logs"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "Rule evaluated" {
		t.Errorf("expected msg, got %v", entry["msg"])
	}
	if entry["run_id"] != "r1" || entry["rule"] != "archive-logs" {
		t.Errorf("expected fields in entry, got %v", entry)
	}
}

func TestSlogLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(&buf, false)
	ctx := context.Background()

	logger.Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at info level, got %q", buf.String())
	}

	logger.SetLevel(DebugLevel)
	logger.Debug(ctx, "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected debug output, got %q", buf.String())
	}

	buf.Reset()
	logger.SetLevel(ErrorLevel)
	logger.Warn(ctx, "hidden warn")
	logger.Error(ctx, "visible error")
	if strings.Contains(buf.String(), "hidden warn") || !strings.Contains(buf.String(), "visible error") {
		t.Errorf("unexpected output at error level: %q", buf.String())
	}
	if logger.GetLevel() != ErrorLevel {
		t.Errorf("expected ErrorLevel, got %v", logger.GetLevel())
	}
}

func TestSlogLoggerNilContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(&buf, false).WithContext(context.Background())
	//nolint:staticcheck // nil context is tolerated
	logger.Info(nil, "no context")
	if !strings.Contains(buf.String(), "no context") {
		t.Errorf("expected output, got %q", buf.String())
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewSlogLogger(&buf, true)
	_ = parent.WithFields(Field{Key: "child", Value: true})

	parent.Info(context.Background(), "parent")
	if strings.Contains(buf.String(), "child") {
		t.Errorf("parent logger picked up child fields: %q", buf.String())
	}
}

func TestZerologLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, false).WithFields(Field{Key: "bucket", Value: "b"})
	logger.Warn(context.Background(), "Lifecycle action failed", Field{Key: "key", Value: "logs/a.log"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry["level"] != "warn" {
		t.Errorf("expected warn level, got %v", entry["level"])
	}
	if entry["message"] != "Lifecycle action failed" {
		t.Errorf("unexpected message: %v", entry["message"])
	}
	if entry["bucket"] != "b" || entry["key"] != "logs/a.log" {
		t.Errorf("expected fields, got %v", entry)
	}
}

func TestZerologLoggerConsoleAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, true)
	ctx := context.Background()

	logger.Debug(ctx, "hidden")
	logger.Info(ctx, "Rule 'tmp': 3 object(s) matched")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug should be filtered, got %q", out)
	}
	if !strings.Contains(out, "3 object(s) matched") {
		t.Errorf("expected console output, got %q", out)
	}
	if logger.WithContext(ctx) != logger {
		t.Error("WithContext should return the same logger")
	}
}

func TestNoOpLogger(t *testing.T) {
	logger := NewNoOpLogger()
	ctx := context.Background()
	logger.Debug(ctx, "x")
	logger.Info(ctx, "x")
	logger.Warn(ctx, "x")
	logger.Error(ctx, "x")
	if logger.WithFields(Field{Key: "k", Value: 1}) != logger {
		t.Error("WithFields should return the same no-op logger")
	}
	logger.SetLevel(DebugLevel)
	if logger.GetLevel() != DebugLevel {
		t.Errorf("expected DebugLevel, got %v", logger.GetLevel())
	}
}
