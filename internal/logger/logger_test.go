package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONFormatAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Format: "json", Level: "debug", Output: &buf})
	runLog, id := log.Component("rfm").WithRun()
	runLog.WithError(errors.New("boom")).Debug("scored")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("not json: %v (%s)", err, buf.String())
	}
	if entry["component"] != "rfm" || entry["run_id"] != id || entry["error"] != "boom" {
		t.Fatalf("missing fields: %v", entry)
	}
	if entry["level"] != "debug" {
		t.Fatalf("level = %v", entry["level"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Output: &buf})
	log.Info("hidden")
	log.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output: %s", out)
	}
}
