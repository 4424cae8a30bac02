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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSecretFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "secret")
	require.NoError(t, os.WriteFile(path, []byte("BACXIU\n"), 0o600))

	secret, err := LoadSecretFile(path)
	require.NoError(t, err)
	assert.Equal(t, "BACXIU", secret, "trailing newline should be trimmed")

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o600))
	_, err = LoadSecretFile(empty)
	assert.ErrorIs(t, err, ErrEmptySecret)

	_, err = LoadSecretFile(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestNewSecretWatcher_Validation(t *testing.T) {
	_, err := NewSecretWatcher(nil, "somewhere")
	require.Error(t, err)

	o := newTestOracle(t, "BACA")
	_, err = NewSecretWatcher(o, filepath.Join(t.TempDir(), "no-such-dir", "secret"))
	require.Error(t, err, "watching a missing directory should fail")
}

func TestSecretWatcher_RotatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secret")
	require.NoError(t, os.WriteFile(path, []byte("BACA\n"), 0o600))

	o := newTestOracle(t, "BACA")
	w, err := NewSecretWatcher(o, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(path, []byte("XIUXIU\n"), 0o600))
	require.Eventually(t, func() bool {
		return o.Length() == 6
	}, 3*time.Second, 20*time.Millisecond, "write should rotate the secret")
	assert.Equal(t, uint64(0), o.Queries(), "rotation resets the query counter")
}

func TestSecretWatcher_KeepsSecretOnBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secret")
	require.NoError(t, os.WriteFile(path, []byte("BACA\n"), 0o600))

	o := newTestOracle(t, "BACA")
	w, err := NewSecretWatcher(o, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(path, []byte("bogus!\n"), 0o600))
	assert.Never(t, func() bool {
		return o.Length() != 4
	}, 500*time.Millisecond, 50*time.Millisecond, "invalid file must not displace the serving secret")
}

func TestSecretWatcher_SeesAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secret")
	require.NoError(t, os.WriteFile(path, []byte("BACA\n"), 0o600))

	o := newTestOracle(t, "BACA")
	w, err := NewSecretWatcher(o, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	// Editor-style save: write a temp file, then rename over the target.
	tmp := filepath.Join(dir, "secret.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("XIUXIUXI\n"), 0o600))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		return o.Length() == 8
	}, 3*time.Second, 20*time.Millisecond, "rename onto the watched path should rotate")
}
