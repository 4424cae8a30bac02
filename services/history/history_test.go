// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestStore_AppendFillsIdentity(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Append(context.Background(), Record{
		Code:    "BACXIU",
		Length:  6,
		Queries: 42,
		Source:  "local",
		Success: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID, "append should assign an ID")
	assert.False(t, rec.StartedAt.IsZero(), "append should stamp the start time")

	got, err := s.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Code, got.Code)
	assert.Equal(t, rec.Queries, got.Queries)
	assert.True(t, got.Success)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		_, err := s.Append(context.Background(), Record{
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Code:      "BACA",
			Length:    4,
			Queries:   10 + i,
			Source:    "bench",
			Success:   true,
		})
		require.NoError(t, err)
	}

	records, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 5)

	for i := 1; i < len(records); i++ {
		assert.True(t, !records[i-1].StartedAt.Before(records[i].StartedAt),
			"records should be ordered newest first")
	}
	assert.Equal(t, 14, records[0].Queries, "newest record should lead")
}

func TestStore_ListHonorsLimit(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 10; i++ {
		_, err := s.Append(context.Background(), Record{
			StartedAt: base.Add(time.Duration(i) * time.Second),
			Source:    "local",
		})
		require.NoError(t, err)
	}

	records, err := s.List(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_FailedRunRoundTrips(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Append(context.Background(), Record{
		Source:  "remote",
		Success: false,
		Error:   "length conflict after redetection budget",
	})
	require.NoError(t, err)

	got, err := s.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.False(t, got.Success)
	assert.Equal(t, "length conflict after redetection budget", got.Error)
	assert.Empty(t, got.Code)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.GCInterval = 0

	s, err := Open(cfg)
	require.NoError(t, err)

	rec, err := s.Append(context.Background(), Record{Code: "XIUX", Length: 4, Source: "local", Success: true})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Close() })

	got, err := s2.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "XIUX", got.Code)
}

func TestStore_ContextCanceled(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Append(ctx, Record{Source: "local"})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.List(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
