package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestJSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Service: "test", Out: &buf})
	log.WithField("kind", "Title").WithError(errors.New("boom")).Warn("write failed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	want := map[string]any{"service": "test", "kind": "Title", "error": "boom", "message": "write failed", "level": "warn"}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "error", Format: "json", Out: &buf})
	log.Info("hidden")
	log.Debugf("hidden %d", 1)
	if buf.Len() != 0 {
		t.Errorf("unexpected output %q", buf.String())
	}
	log.Errorf("shown %d", 2)
	if buf.Len() == 0 {
		t.Error("error entry missing")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARNING": zerolog.WarnLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := parseLevel(in); got != want {
				t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
			}
		})
	}
}
