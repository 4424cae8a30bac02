// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package oracle

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// SecretWatcher rotates a Local oracle whenever its secret file changes.
//
// Description:
//
//	Watches the secret file and calls Rotate with the trimmed file
//	contents on every write. A file the oracle rejects (wrong
//	alphabet, too long, empty) is logged and skipped; the previous
//	secret keeps serving. The parent directory is watched rather than
//	the file itself so atomic replaces, where editors rename a temp
//	file over the target, keep being seen.
//
// Thread Safety: Safe for concurrent use. Close stops the watch goroutine.
type SecretWatcher struct {
	oracle  *Local
	path    string
	watcher *fsnotify.Watcher
}

// NewSecretWatcher starts watching path and rotating o on changes.
//
// Inputs:
//
//	o - The oracle to rotate. Must not be nil.
//	path - The secret file. Its directory must exist; the file itself
//	       may appear later.
//
// Outputs:
//
//	*SecretWatcher - Running watcher. Call Close when done.
//	error - Non-nil if the watcher cannot be created or the directory
//	        cannot be watched.
func NewSecretWatcher(o *Local, path string) (*SecretWatcher, error) {
	if o == nil {
		return nil, fmt.Errorf("%w: watcher requires an oracle", ErrOracleClosed)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving secret file path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(absPath), err)
	}

	w := &SecretWatcher{
		oracle:  o,
		path:    absPath,
		watcher: watcher,
	}
	go w.watchLoop()

	slog.Info("Watching secret file", "path", absPath)
	return w, nil
}

// Close stops the watcher. The oracle keeps its current secret.
func (w *SecretWatcher) Close() error {
	return w.watcher.Close()
}

// watchLoop handles fsnotify events until the watcher is closed.
func (w *SecretWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Secret file watcher error",
				"error", err)
		}
	}
}

// handleEvent processes a single fsnotify event.
func (w *SecretWatcher) handleEvent(event fsnotify.Event) {
	abs, err := filepath.Abs(event.Name)
	if err != nil || abs != w.path {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	secret, err := LoadSecretFile(w.path)
	if err != nil {
		slog.Warn("Ignoring unreadable secret file",
			"path", w.path,
			"error", err)
		return
	}

	if err := w.oracle.Rotate(secret); err != nil {
		slog.Warn("Secret file rejected, keeping current secret",
			"path", w.path,
			"error", err)
		return
	}
	slog.Info("Secret rotated from file",
		"path", w.path,
		"length", len(secret))
}

// LoadSecretFile reads a secret from path, trimming surrounding
// whitespace and the trailing newline most editors add.
func LoadSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading secret file: %w", err)
	}

	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptySecret, path)
	}
	return secret, nil
}
