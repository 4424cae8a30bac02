// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"  error  ", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLevel_Ordering(t *testing.T) {
	if !(LevelDebug < LevelInfo && LevelInfo < LevelWarn && LevelWarn < LevelError) {
		t.Error("levels are not ordered Debug < Info < Warn < Error")
	}
}

// =============================================================================
// Destination Tests
// =============================================================================

func TestNew_TapReceivesRecords(t *testing.T) {
	buf := NewRecordBuffer()
	logger := New(Config{Quiet: true, Service: "unit", Tap: buf})
	defer logger.Close()

	logger.Info("solve finished", "queries", 42)

	entries := buf.Entries()
	if len(entries) != 1 {
		t.Fatalf("captured %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Message != "solve finished" {
		t.Errorf("Message = %q, want %q", e.Message, "solve finished")
	}
	if e.Level != slog.LevelInfo {
		t.Errorf("Level = %v, want Info", e.Level)
	}
	if got, ok := e.Attrs["queries"].(int64); !ok || got != 42 {
		t.Errorf("Attrs[queries] = %v, want 42", e.Attrs["queries"])
	}
	if e.Attrs["service"] != "unit" {
		t.Errorf("Attrs[service] = %v, want unit", e.Attrs["service"])
	}
	if e.Time.IsZero() {
		t.Error("entry time is zero")
	}
}

func TestNew_LevelFiltersAllDestinations(t *testing.T) {
	buf := NewRecordBuffer()
	logger := New(Config{Level: LevelWarn, Quiet: true, Tap: buf})
	defer logger.Close()

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")
	logger.Error("kept as well")

	entries := buf.Entries()
	if len(entries) != 2 {
		t.Fatalf("captured %d entries, want 2", len(entries))
	}
	if entries[0].Message != "kept" || entries[1].Message != "kept as well" {
		t.Errorf("unexpected messages: %q, %q", entries[0].Message, entries[1].Message)
	}
}

func TestNew_FileDestination(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{Quiet: true, Service: "filetest", LogDir: dir})

	logger.Info("first", "n", 1)
	logger.Warn("second")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	name := "filetest_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("log file has %d lines, want 2", len(lines))
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("file line is not JSON: %v", err)
	}
	if rec["msg"] != "first" {
		t.Errorf("msg = %v, want first", rec["msg"])
	}
	if rec["service"] != "filetest" {
		t.Errorf("service = %v, want filetest", rec["service"])
	}
}

func TestNew_FileAppendsAcrossLoggers(t *testing.T) {
	dir := t.TempDir()

	l1 := New(Config{Quiet: true, Service: "appender", LogDir: dir})
	l1.Info("from first logger")
	l1.Close()

	l2 := New(Config{Quiet: true, Service: "appender", LogDir: dir})
	l2.Info("from second logger")
	l2.Close()

	name := "appender_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Errorf("log file has %d lines, want 2 (append mode)", len(lines))
	}
}

func TestNew_BadLogDirDegrades(t *testing.T) {
	// A file where the directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	buf := NewRecordBuffer()
	logger := New(Config{Quiet: true, LogDir: filepath.Join(blocker, "logs"), Tap: buf})
	defer logger.Close()

	logger.Info("still works")

	entries := buf.Entries()
	if len(entries) != 2 {
		t.Fatalf("captured %d entries, want warning plus message", len(entries))
	}
	if entries[0].Level != slog.LevelWarn {
		t.Errorf("first entry level = %v, want Warn", entries[0].Level)
	}
	if entries[1].Message != "still works" {
		t.Errorf("second entry = %q, want the logged message", entries[1].Message)
	}
}

func TestNew_QuietWithoutDestinationsIsSilent(t *testing.T) {
	stderr := captureStderr(t)

	logger := New(Config{Quiet: true})
	logger.Info("nobody hears this")
	logger.Error("or this")
	logger.Close()

	if out := stderr(); out != "" {
		t.Errorf("stderr not empty: %q", out)
	}
}

func TestNew_StderrFormats(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		stderr := captureStderr(t)
		logger := New(Config{Service: "fmt-test"})
		logger.Info("hello text")
		logger.Close()

		out := stderr()
		if !strings.Contains(out, "hello text") {
			t.Errorf("stderr missing message: %q", out)
		}
		if strings.HasPrefix(strings.TrimSpace(out), "{") {
			t.Errorf("text mode produced JSON: %q", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		stderr := captureStderr(t)
		logger := New(Config{Service: "fmt-test", JSON: true})
		logger.Info("hello json")
		logger.Close()

		var rec map[string]any
		if err := json.Unmarshal([]byte(strings.TrimSpace(stderr())), &rec); err != nil {
			t.Fatalf("stderr line is not JSON: %v", err)
		}
		if rec["msg"] != "hello json" {
			t.Errorf("msg = %v, want hello json", rec["msg"])
		}
	})
}

// =============================================================================
// Logger Method Tests
// =============================================================================

func TestWith_ChildAttrsReachTap(t *testing.T) {
	buf := NewRecordBuffer()
	logger := New(Config{Quiet: true, Tap: buf})
	defer logger.Close()

	child := logger.With("run_id", "r-77")
	child.Info("probing")

	entries := buf.Entries()
	if len(entries) != 1 {
		t.Fatalf("captured %d entries, want 1", len(entries))
	}
	if entries[0].Attrs["run_id"] != "r-77" {
		t.Errorf("Attrs[run_id] = %v, want r-77", entries[0].Attrs["run_id"])
	}
}

func TestSlog_ReturnsUsableLogger(t *testing.T) {
	buf := NewRecordBuffer()
	logger := New(Config{Quiet: true, Tap: buf})
	defer logger.Close()

	sl := logger.Slog()
	if sl == nil {
		t.Fatal("Slog() returned nil")
	}
	sl.Warn("via slog")

	entries := buf.Entries()
	if len(entries) != 1 || entries[0].Message != "via slog" {
		t.Errorf("record did not flow through: %+v", entries)
	}
}

func TestInstall_SetsProcessDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	buf := NewRecordBuffer()
	logger := New(Config{Quiet: true, Tap: buf})
	defer logger.Close()
	logger.Install()

	slog.Info("library-style call")

	entries := buf.Entries()
	if len(entries) != 1 || entries[0].Message != "library-style call" {
		t.Errorf("default slog call did not reach the tap: %+v", entries)
	}
}

func TestClose_Idempotent(t *testing.T) {
	logger := New(Config{Quiet: true, LogDir: t.TempDir()})
	logger.Info("one line")

	if err := logger.Close(); err != nil {
		t.Errorf("first Close() = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
}

func TestClose_NoFileIsNil(t *testing.T) {
	logger := New(Config{Quiet: true})
	if err := logger.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}

func TestDefault_Constructs(t *testing.T) {
	stderr := captureStderr(t)
	logger := Default()
	logger.Info("default logger")
	logger.Close()

	if !strings.Contains(stderr(), "default logger") {
		t.Error("default logger did not write to stderr")
	}
}

// =============================================================================
// RecordBuffer Tests
// =============================================================================

func TestRecordBuffer_EntriesIsACopy(t *testing.T) {
	buf := NewRecordBuffer()
	logger := New(Config{Quiet: true, Tap: buf})
	defer logger.Close()

	logger.Info("a")
	got := buf.Entries()
	got[0].Message = "mutated"

	if buf.Entries()[0].Message != "a" {
		t.Error("mutating the returned slice changed the buffer")
	}
}

func TestRecordBuffer_Reset(t *testing.T) {
	buf := NewRecordBuffer()
	logger := New(Config{Quiet: true, Tap: buf})
	defer logger.Close()

	logger.Info("a")
	logger.Info("b")
	buf.Reset()
	logger.Info("c")

	entries := buf.Entries()
	if len(entries) != 1 || entries[0].Message != "c" {
		t.Errorf("after Reset got %+v, want only c", entries)
	}
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~/.sonar/logs", filepath.Join(home, ".sonar/logs")},
		{"~", home},
		{"/var/log/sonar", "/var/log/sonar"},
		{"relative/logs", "relative/logs"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := expandHome(tt.in); got != tt.want {
			t.Errorf("expandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// captureStderr swaps os.Stderr for a pipe and returns a function that
// restores it and yields everything written in between.
func captureStderr(t *testing.T) func() string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	orig := os.Stderr
	os.Stderr = w

	return func() string {
		w.Close()
		os.Stderr = orig
		data, _ := io.ReadAll(r)
		r.Close()
		return string(data)
	}
}
