package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf)
	logger.SetLevel(LevelWarn)

	// Debug and Info should be filtered out
	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()

	if strings.Contains(output, "DEBUG") {
		t.Error("DEBUG message should be filtered out")
	}
	if strings.Contains(output, "INFO") {
		t.Error("INFO message should be filtered out")
	}
	if !strings.Contains(output, "WARN") {
		t.Error("WARN message should be present")
	}
	if !strings.Contains(output, "ERROR") {
		t.Error("ERROR message should be present")
	}
}

func TestLoggerFormatting(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf)
	logger.SetLevel(LevelDebug)

	logger.Info("found %d files in %s", 3, "pods")

	output := buf.String()
	if !strings.Contains(output, "[INFO]") {
		t.Error("expected [INFO] prefix")
	}
	if !strings.Contains(output, "found 3 files in pods") {
		t.Errorf("expected formatted message, got: %s", output)
	}
}

func TestLoggerWithField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf)
	logger.SetLevel(LevelDebug)

	logger.WithField("file", "audit.log").Info("parsing file")

	output := buf.String()
	if !strings.Contains(output, "file=audit.log") {
		t.Errorf("expected field in output, got: %s", output)
	}
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf)
	logger.SetLevel(LevelDebug)

	fields := map[string]any{
		"matched": 42,
		"source":  "audit",
	}
	logger.WithFields(fields).Info("processing")

	output := buf.String()
	if !strings.Contains(output, "matched=42") {
		t.Errorf("expected matched field, got: %s", output)
	}
	if !strings.Contains(output, "source=audit") {
		t.Errorf("expected source field, got: %s", output)
	}
}

func TestLoggerFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf)

	logger.WithFields(map[string]any{
		"zeta":  3,
		"alpha": 1,
		"mid":   2,
	}).Info("sorted")

	if !strings.Contains(buf.String(), "[alpha=1 mid=2 zeta=3]") {
		t.Errorf("fields should be sorted by key, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" warn ", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggerChainedWithField(t *testing.T) {
	var buf bytes.Buffer
	NewWithOutput(&buf).WithField("source", "pods").WithField("files", 2).Warn("no timestamp")

	for _, want := range []string{"[WARN]", "source=pods", "files=2", "no timestamp"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("missing %q in %q", want, buf.String())
		}
	}
}

func TestNopLogger(t *testing.T) {
	// NopLogger should not panic and should return itself for chaining
	nop := NopLogger{}

	nop.Debug("test")
	nop.Info("test")
	nop.Warn("test")
	nop.Error("test")

	// Should return same nop logger for chaining
	chained := nop.WithField("key", "value")
	if _, ok := chained.(NopLogger); !ok {
		t.Error("WithField should return NopLogger")
	}

	chained = nop.WithFields(map[string]any{"key": "value"})
	if _, ok := chained.(NopLogger); !ok {
		t.Error("WithFields should return NopLogger")
	}

	// Should not panic
	nop.SetLevel(LevelDebug)
	nop.SetOutput(&bytes.Buffer{})
}

func TestDefaultLogger(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var buf bytes.Buffer
	l := NewWithOutput(&buf)
	l.SetLevel(LevelDebug)
	SetDefault(l)

	tests := []struct {
		log  func(string, ...any)
		want string
	}{
		{Debug, "[DEBUG] discovered audit.log"},
		{Info, "[INFO] discovered audit.log"},
		{Warn, "[WARN] discovered audit.log"},
		{Error, "[ERROR] discovered audit.log"},
	}
	for _, tt := range tests {
		buf.Reset()
		tt.log("discovered %s", "audit.log")
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("got %q, want %q", buf.String(), tt.want)
		}
	}
}

func TestLoggerImmutability(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithOutput(&buf)
	base.SetLevel(LevelDebug)

	// Create derived logger with field
	derived := base.WithField("source", "derived")

	// Log from base - should NOT have the field
	buf.Reset()
	base.Info("base message")
	if strings.Contains(buf.String(), "source=derived") {
		t.Error("base logger should not have derived field")
	}

	// Log from derived - should have the field
	buf.Reset()
	derived.Info("derived message")
	if !strings.Contains(buf.String(), "source=derived") {
		t.Error("derived logger should have field")
	}
}
