// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging builds the structured logger used by the sonar CLI and
// the oracle server.
//
// Output always goes to stderr so that stdout stays clean for JSON
// payloads and shell pipelines. A second, always-JSON destination can be
// added by pointing Config.LogDir at a directory; entries then land in a
// per-day file named {service}_{date}.log alongside the stderr stream.
//
// The package wraps log/slog rather than replacing it. Call Install on
// the constructed logger to make it the process default, so that library
// packages which log through the bare slog functions (the oracle, the
// history store, the HTTP layer) share the same destinations and level
// filter as the command layer:
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.ParseLevel(cfg.Level),
//	    LogDir:  "~/.sonar/logs",
//	    Service: "cli",
//	})
//	logger.Install()
//	defer logger.Close()
//
// Nothing here redacts attribute values. Secrets never belong in log
// attributes; log their presence or length, not the value.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level is the minimum severity a record needs to be written.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level. Unknown or empty input
// falls back to LevelInfo so a typo in the config file cannot silence
// the logger.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config selects destinations and the severity floor.
//
// The zero value is usable: text on stderr, Info and up, no file.
type Config struct {
	// Level is the minimum severity written anywhere. Records below it
	// are dropped before reaching any destination, including the Tap.
	Level Level

	// Service is attached to every record as the "service" attribute
	// and names the log file. Empty means "sonar".
	Service string

	// LogDir enables the per-day JSON file. A leading ~ expands to the
	// user's home directory. The directory is created on demand; if
	// that fails the logger degrades to stderr only and says so once.
	LogDir string

	// JSON switches the stderr stream from text to JSON. The file
	// destination is JSON regardless.
	JSON bool

	// Quiet drops the stderr stream. With no LogDir and no Tap this
	// leaves the logger fully silent.
	Quiet bool

	// Tap receives every surviving record in addition to the normal
	// destinations. Tests use a RecordBuffer here to assert on output
	// without touching stderr.
	Tap slog.Handler
}

// Logger is a slog.Logger bound to the configured destinations plus the
// file handle that needs closing at shutdown.
type Logger struct {
	sl      *slog.Logger
	service string
	file    *os.File

	closeOnce sync.Once
	closeErr  error
}

// New assembles the destinations described by cfg. It never fails: a
// broken LogDir is reported on the remaining destinations and file
// logging is skipped for this run.
func New(cfg Config) *Logger {
	service := cfg.Service
	if service == "" {
		service = "sonar"
	}
	min := cfg.Level.slogLevel()
	opts := &slog.HandlerOptions{Level: min}

	l := &Logger{service: service}
	var outs []slog.Handler
	if !cfg.Quiet {
		if cfg.JSON {
			outs = append(outs, slog.NewJSONHandler(os.Stderr, opts))
		} else {
			outs = append(outs, slog.NewTextHandler(os.Stderr, opts))
		}
	}

	var dirErr error
	if cfg.LogDir != "" {
		f, err := openDailyFile(expandHome(cfg.LogDir), service)
		if err != nil {
			dirErr = err
		} else {
			l.file = f
			outs = append(outs, slog.NewJSONHandler(f, opts))
		}
	}
	if cfg.Tap != nil {
		outs = append(outs, cfg.Tap)
	}

	var h slog.Handler
	if len(outs) == 0 {
		h = slog.DiscardHandler
	} else {
		h = &fanout{min: min, outs: outs}
	}
	l.sl = slog.New(h.WithAttrs([]slog.Attr{slog.String("service", service)}))
	if dirErr != nil {
		l.Warn("File logging disabled", "dir", cfg.LogDir, "error", dirErr)
	}
	return l
}

// Default returns a text-to-stderr logger at Info level.
func Default() *Logger {
	return New(Config{})
}

// Install makes this logger the process-wide slog default. Packages
// that log through the top-level slog functions then share its
// destinations and level filter.
func (l *Logger) Install() {
	slog.SetDefault(l.sl)
}

func (l *Logger) Debug(msg string, args ...any) { l.sl.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.sl.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.sl.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.sl.Error(msg, args...) }

// With returns a child logger carrying extra attributes. The child
// shares the parent's destinations and file handle; closing either
// closes the shared file.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{sl: l.sl.With(args...), service: l.service, file: l.file}
}

// Slog exposes the underlying slog.Logger for callers that need the
// raw API, such as the history store's database logger hook.
func (l *Logger) Slog() *slog.Logger {
	return l.sl
}

// Close flushes and closes the log file, if one is open. Safe to call
// more than once; later calls return the first result.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() {
		if l.file == nil {
			return
		}
		if err := l.file.Sync(); err != nil {
			l.closeErr = fmt.Errorf("sync log file: %w", err)
		}
		if err := l.file.Close(); err != nil && l.closeErr == nil {
			l.closeErr = fmt.Errorf("close log file: %w", err)
		}
	})
	return l.closeErr
}

func openDailyFile(dir, service string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%s_%s.log", service, time.Now().Format("2006-01-02"))
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
}

// expandHome rewrites a leading ~ to the user's home directory. Paths
// without one pass through untouched.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// fanout dispatches one record to every destination. The severity gate
// lives here so a single check covers stderr, the file, and the Tap.
type fanout struct {
	min  slog.Level
	outs []slog.Handler
}

func (f *fanout) Enabled(_ context.Context, level slog.Level) bool {
	return level >= f.min
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f.outs {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	outs := make([]slog.Handler, len(f.outs))
	for i, h := range f.outs {
		outs[i] = h.WithAttrs(attrs)
	}
	return &fanout{min: f.min, outs: outs}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	outs := make([]slog.Handler, len(f.outs))
	for i, h := range f.outs {
		outs[i] = h.WithGroup(name)
	}
	return &fanout{min: f.min, outs: outs}
}

// Entry is one record captured by a RecordBuffer, with attributes
// flattened into a map for easy assertions.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// RecordBuffer is a slog.Handler that keeps every record it sees in
// memory. Point Config.Tap at one in tests:
//
//	buf := logging.NewRecordBuffer()
//	logger := logging.New(logging.Config{Quiet: true, Tap: buf})
type RecordBuffer struct {
	mu      sync.Mutex
	entries []Entry
}

func NewRecordBuffer() *RecordBuffer {
	return &RecordBuffer{}
}

func (b *RecordBuffer) Enabled(context.Context, slog.Level) bool { return true }

func (b *RecordBuffer) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})
	b.mu.Lock()
	b.entries = append(b.entries, Entry{Time: r.Time, Level: r.Level, Message: r.Message, Attrs: attrs})
	b.mu.Unlock()
	return nil
}

func (b *RecordBuffer) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &boundBuffer{buf: b, attrs: attrs}
}

func (b *RecordBuffer) WithGroup(string) slog.Handler { return b }

// Entries returns a copy of everything captured so far.
func (b *RecordBuffer) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Reset discards all captured entries.
func (b *RecordBuffer) Reset() {
	b.mu.Lock()
	b.entries = nil
	b.mu.Unlock()
}

// boundBuffer carries attributes added via WithAttrs back into the
// shared buffer, so logger.With chains stay visible to assertions.
type boundBuffer struct {
	buf   *RecordBuffer
	attrs []slog.Attr
}

func (t *boundBuffer) Enabled(context.Context, slog.Level) bool { return true }

func (t *boundBuffer) Handle(ctx context.Context, r slog.Record) error {
	r2 := r.Clone()
	r2.AddAttrs(t.attrs...)
	return t.buf.Handle(ctx, r2)
}

func (t *boundBuffer) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(t.attrs)+len(attrs))
	merged = append(merged, t.attrs...)
	merged = append(merged, attrs...)
	return &boundBuffer{buf: t.buf, attrs: merged}
}

func (t *boundBuffer) WithGroup(string) slog.Handler { return t }
