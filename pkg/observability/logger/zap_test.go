package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func newBufferLogger(t *testing.T, level LogLevel) (*ZapLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log, err := NewZapLogger(Config{Level: level, Format: JSONFormat, Output: &buf})
	if err != nil {
		t.Fatalf("NewZapLogger() error = %v", err)
	}
	return log, &buf
}

func decodeEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestZapLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name     string
		level    LogLevel
		logFunc  func(Logger)
		expected bool
	}{
		{name: "debug level logs debug", level: DebugLevel, logFunc: func(l Logger) { l.Debug("m") }, expected: true},
		{name: "info level drops debug", level: InfoLevel, logFunc: func(l Logger) { l.Debug("m") }, expected: false},
		{name: "info level logs info", level: InfoLevel, logFunc: func(l Logger) { l.Info("m") }, expected: true},
		{name: "warn level drops info", level: WarnLevel, logFunc: func(l Logger) { l.Info("m") }, expected: false},
		{name: "warn level logs warn", level: WarnLevel, logFunc: func(l Logger) { l.Warn("m") }, expected: true},
		{name: "error level drops warn", level: ErrorLevel, logFunc: func(l Logger) { l.Warn("m") }, expected: false},
		{name: "error level logs error", level: ErrorLevel, logFunc: func(l Logger) { l.Error("m") }, expected: true},
		{name: "unknown level behaves as info", level: "verbose", logFunc: func(l Logger) { l.Debug("m") }, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := newBufferLogger(t, tt.level)
			tt.logFunc(log)
			_ = log.Sync()
			if got := buf.Len() > 0; got != tt.expected {
				t.Fatalf("logged = %v, want %v (output %q)", got, tt.expected, buf.String())
			}
		})
	}
}

func TestZapLogger_StructuredFields(t *testing.T) {
	log, buf := newBufferLogger(t, InfoLevel)
	log.With("collection", "Customer").Error("insert failed", "error", "boom")

	entries := decodeEntries(t, buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	for _, key := range []string{"timestamp", "level", "message", "caller"} {
		if _, ok := entry[key]; !ok {
			t.Fatalf("missing %q in %v", key, entry)
		}
	}
	if entry["collection"] != "Customer" || entry["error"] != "boom" || entry["level"] != "error" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestZapLogger_WithContext(t *testing.T) {
	log, buf := newBufferLogger(t, InfoLevel)

	ctx := ContextWithCorrelationID(context.Background(), "run-42")
	log.WithContext(ctx).Info("with id")
	log.WithContext(context.Background()).Info("without id")
	//nolint:staticcheck // nil context is tolerated
	log.WithContext(nil).Info("nil context")

	entries := decodeEntries(t, buf)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0]["correlation_id"] != "run-42" {
		t.Fatalf("expected correlation_id, got %v", entries[0])
	}
	if _, ok := entries[1]["correlation_id"]; ok {
		t.Fatalf("unexpected correlation_id in %v", entries[1])
	}
}

func TestZapLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewZapLogger(Config{Level: InfoLevel, Format: TextFormat, Output: &buf})
	if err != nil {
		t.Fatalf("NewZapLogger() error = %v", err)
	}
	log.Info("plain message", "k", "v")
	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Fatalf("expected console output, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "plain message") {
		t.Fatalf("message missing from %q", buf.String())
	}
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.Error("discarded", "k", 1)
	if log.With("a", 1) == nil || log.WithContext(context.Background()) == nil {
		t.Fatal("nop logger must return usable children")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{input: "debug", want: DebugLevel},
		{input: "INFO", want: InfoLevel},
		{input: "", want: InfoLevel},
		{input: "warning", want: WarnLevel},
		{input: " error ", want: ErrorLevel},
		{input: "invalid", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseLogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLogFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    LogFormat
		wantErr bool
	}{
		{input: "json", want: JSONFormat},
		{input: "", want: JSONFormat},
		{input: "text", want: TextFormat},
		{input: "console", want: TextFormat},
		{input: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLogFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseLogFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}
