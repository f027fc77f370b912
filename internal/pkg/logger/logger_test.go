package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lgr := New(Config{Level: WarnLevel, Output: &buf})

	lgr.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	lgr.Warn().Int64("courseId", 7).Msg("visible")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "visible" || entry["courseId"] != float64(7) {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(" DEBUG ", "Text")
	if cfg.Level != DebugLevel || !cfg.Pretty {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if ConfigFrom("info", "json").Pretty {
		t.Fatal("json format must not be pretty")
	}
}
