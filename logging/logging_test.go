package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseVerbosity(t *testing.T) {
	tests := []struct {
		in      string
		want    Verbosity
		wantErr bool
	}{
		{"", VerbosityNone, false},
		{"none", VerbosityNone, false},
		{" Basic ", VerbosityBasic, false},
		{"FULL", VerbosityFull, false},
		{"loud", VerbosityNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVerbosity(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseVerbosity(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		v     Verbosity
		debug bool
		trace bool
	}{
		{VerbosityNone, false, false},
		{VerbosityBasic, true, false},
		{VerbosityFull, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.v), func(t *testing.T) {
			var buf bytes.Buffer
			l := New(&buf, tt.v)
			l.Info("info line")
			l.Warn("warn line")
			l.Debug("debug line")
			l.Log(context.Background(), LevelTrace, "trace line")
			out := buf.String()
			if !strings.Contains(out, "info line") || !strings.Contains(out, "warn line") {
				t.Errorf("info or warn missing: %s", out)
			}
			if strings.Contains(out, "debug line") != tt.debug {
				t.Errorf("debug shown = %v, want %v", !tt.debug, tt.debug)
			}
			if strings.Contains(out, "trace line") != tt.trace {
				t.Errorf("trace shown = %v, want %v", !tt.trace, tt.trace)
			}
			if tt.trace && !strings.Contains(out, "level=TRACE") {
				t.Errorf("trace level not named: %s", out)
			}
		})
	}
}

func TestSafeFilename(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tests := map[string]string{
		"Harbour walk":         "Harbour_walk_2026-03-01",
		` A/B: "quoted"  map? `: "AB_quoted_map_2026-03-01",
		"":                     "storymap_2026-03-01",
	}
	for in, want := range tests {
		if got := SafeFilename(in, now); got != want {
			t.Errorf("SafeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDebugPaths(t *testing.T) {
	dir := t.TempDir()
	logPath, jsonPath := DebugPaths("walk", dir)
	if filepath.Base(logPath) != "walk.txt" || filepath.Base(jsonPath) != "walk.json" {
		t.Fatalf("paths = %s %s", logPath, jsonPath)
	}
	os.WriteFile(jsonPath, nil, 0o644)
	logPath, _ = DebugPaths("walk", dir)
	if filepath.Base(logPath) != "walk_2.txt" {
		t.Errorf("second log path = %s", logPath)
	}
	os.WriteFile(logPath, nil, 0o644)
	logPath, _ = DebugPaths("walk", dir)
	if filepath.Base(logPath) != "walk_3.txt" {
		t.Errorf("third log path = %s", logPath)
	}
}

func TestStart(t *testing.T) {
	var console bytes.Buffer
	s, err := Start(&console, VerbosityBasic, "Walk", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if s.LogPath != "" || s.WriteJSON([]byte("{}")) != nil {
		t.Error("basic session should not use files")
	}
	s.Close()

	dir := filepath.Join(t.TempDir(), "debug")
	s, err = Start(&console, VerbosityFull, "Walk", dir)
	if err != nil {
		t.Fatal(err)
	}
	s.Logger.Info("hello", slog.String("k", "v"))
	if err := s.WriteJSON([]byte(`{"nodes":{}}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	log, err := os.ReadFile(s.LogPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(log), "Title: Walk") || !strings.Contains(string(log), "msg=hello") {
		t.Errorf("log file = %s", log)
	}
	if !strings.Contains(console.String(), "msg=hello") {
		t.Error("console did not get the log line")
	}
	if data, _ := os.ReadFile(s.JSONPath); string(data) != `{"nodes":{}}` {
		t.Errorf("json = %s", data)
	}
}
