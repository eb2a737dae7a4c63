package zlog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func newBufferLogger(t *testing.T, cfg *Config) (Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger, err := New(cfg, WithWriter(buf))
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return logger, buf
}

func TestJSONOutput(t *testing.T) {
	logger, buf := newBufferLogger(t, &Config{Level: "info", Format: "json", Service: "payroll"})

	logger.Info("salary computed", String("employee", "e-1001"), Int("amount", 8800))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid json: %v", err)
	}
	if entry["msg"] != "salary computed" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if entry["service"] != "payroll" {
		t.Fatalf("expected service field, got %v", entry["service"])
	}
	if entry["employee"] != "e-1001" {
		t.Fatalf("expected employee field, got %v", entry["employee"])
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(t, &Config{Level: "warn", Format: "json"})

	logger.Debug("should not appear")
	logger.Info("should not appear either")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Fatalf("low-level logs leaked: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn log missing: %s", out)
	}
}

func TestSetLevel(t *testing.T) {
	logger, buf := newBufferLogger(t, &Config{Level: "error", Format: "json"})

	logger.Info("hidden")
	if err := logger.SetLevel("debug"); err != nil {
		t.Fatalf("set level failed: %v", err)
	}
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatal("info log should be filtered before SetLevel")
	}
	if !strings.Contains(out, "shown") {
		t.Fatal("info log should pass after SetLevel")
	}
}

func TestWithFields(t *testing.T) {
	logger, buf := newBufferLogger(t, &Config{Level: "info", Format: "json"})

	child := logger.With(String("component", "idem"))
	child.Info("hello")

	if !strings.Contains(buf.String(), `"component":"idem"`) {
		t.Fatalf("preset field missing: %s", buf.String())
	}
}

func TestInvalidConfig(t *testing.T) {
	if _, err := New(&Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for bad level")
	}
	if _, err := New(&Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for bad format")
	}
}

func TestDiscard(t *testing.T) {
	// 仅验证不 panic
	logger := Discard()
	logger.Info("ignored", Error(nil))
	logger.With(String("a", "b")).Error("ignored")
}
