package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DebugLevel,
		" WARN ":  WarnLevel,
		"error":   ErrorLevel,
		"":        InfoLevel,
		"verbose": InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestIsPretty(t *testing.T) {
	if !IsPretty("console") || !IsPretty("text") {
		t.Error("Expected console and text to be pretty")
	}
	if IsPretty("json") {
		t.Error("Expected json not to be pretty")
	}
}

func TestConfigureJSONOutput(t *testing.T) {
	defer Configure(Config{Level: InfoLevel, Pretty: true, Output: os.Stdout})

	var buf bytes.Buffer
	Configure(Config{Level: InfoLevel, Output: &buf, Service: "exchange-intake"})

	catalogLog := WithComponent("catalog")
	catalogLog.Info().Str("source", "static").Msg("Catalog refreshed")
	Debug().Msg("dropped below level")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("Expected 1 log line, got %d: %s", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("Expected JSON output, got %v", err)
	}
	if entry["service"] != "exchange-intake" || entry["component"] != "catalog" || entry["message"] != "Catalog refreshed" {
		t.Errorf("Unexpected entry: %v", entry)
	}
}
