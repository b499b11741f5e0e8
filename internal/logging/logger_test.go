package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_WritesStructuredJSONWithComponentField(t *testing.T) {
	var buf bytes.Buffer
	log := New("mergetrain", &buf)

	log.Info("job enqueued", "job", "build")

	var line map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if line["component"] != "mergetrain" {
		t.Errorf("component = %v, want mergetrain", line["component"])
	}
	if line["job"] != "build" {
		t.Errorf("job field = %v, want build", line["job"])
	}
	if line["msg"] != "job enqueued" {
		t.Errorf("msg = %v, want %q", line["msg"], "job enqueued")
	}
}

func TestWith_AddsFieldsToSubsequentLogLines(t *testing.T) {
	var buf bytes.Buffer
	log := New("orchestrator", &buf).With("plan", "p1")

	log.Warn("retrying")

	var line map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("unexpected JSON parse error: %v", err)
	}
	if line["plan"] != "p1" {
		t.Errorf("plan field = %v, want p1", line["plan"])
	}
}

func TestFieldsFrom_OddKeyValuesIgnoresTrailingKey(t *testing.T) {
	fields := fieldsFrom([]interface{}{"a", 1, "b"})
	if len(fields) != 1 || fields["a"] != 1 {
		t.Fatalf("fieldsFrom = %v, want map with only a=1", fields)
	}
}

func TestRenderPretty_SortsKeys(t *testing.T) {
	fields := fieldsFrom([]interface{}{"zeta", 1, "alpha", 2})
	got := renderPretty(fields)
	if !strings.HasPrefix(got, "alpha=2") {
		t.Fatalf("renderPretty = %q, want alpha first", got)
	}
}

func TestDiscard_NeverPanics(t *testing.T) {
	log := Discard()
	log.Info("hello")
	log.Warn("hello")
	log.Error("hello")
	log.Debug("hello")
	log.With("k", "v").Info("hello")
}
