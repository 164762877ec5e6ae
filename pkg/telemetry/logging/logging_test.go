package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer

	logger, err := New(Config{Level: "info", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("policy loaded", "name", "authz.rego")

	out := buf.String()
	if !strings.Contains(out, "policy loaded") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "name=authz.rego") {
		t.Errorf("output missing attribute: %q", out)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer

	logger, err := New(Config{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("policy loaded", "name", "authz.rego")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if record["msg"] != "policy loaded" {
		t.Errorf("msg = %v, want %q", record["msg"], "policy loaded")
	}
	if record["name"] != "authz.rego" {
		t.Errorf("name = %v, want %q", record["name"], "authz.rego")
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger, err := New(Config{Level: "warn", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("info record should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "emitted") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestNew_Defaults(t *testing.T) {
	var buf bytes.Buffer

	logger, err := New(Config{}, &buf)
	if err != nil {
		t.Fatalf("New() with zero config error = %v", err)
	}

	if logger.Enabled(nil, slog.LevelDebug) {
		t.Error("default level should be info, debug enabled")
	}
	if !logger.Enabled(nil, slog.LevelInfo) {
		t.Error("default level should be info, info disabled")
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}, nil); err == nil {
		t.Error("New() should reject an invalid level")
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	if _, err := New(Config{Format: "xml"}, nil); err == nil {
		t.Error("New() should reject an invalid format")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := parseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
