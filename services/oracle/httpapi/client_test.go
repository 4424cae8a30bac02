// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sonar/services/oracle"
	"github.com/AleutianAI/sonar/services/solver"
)

func newTestServer(t *testing.T, secret string) (*httptest.Server, *oracle.Local) {
	t.Helper()

	o := newTestOracle(t, secret)
	ts := httptest.NewServer(setupTestRouter(o, nil))
	t.Cleanup(ts.Close)
	return ts, o
}

func TestNewClient_EmptyURL(t *testing.T) {
	_, err := NewClient("   ")
	require.Error(t, err)
}

func TestClient_Evaluate(t *testing.T) {
	ts, _ := newTestServer(t, "BACA")
	client, err := NewClient(ts.URL)
	require.NoError(t, err)

	tests := []struct {
		name  string
		guess string
		want  int
	}{
		{name: "exact match", guess: "BACA", want: 4},
		{name: "partial match", guess: "BABA", want: 3},
		{name: "wrong length", guess: "BACXIU", want: oracle.MatchWrongLength},
		{name: "letter outside alphabet", guess: "ZZZZ", want: oracle.MatchInvalidAlphabet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.Evaluate(context.Background(), tt.guess)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_SolverAgainstRemoteOracle(t *testing.T) {
	ts, o := newTestServer(t, "BACXIUBA")
	client, err := NewClient(ts.URL, WithRateLimit(0, 0))
	require.NoError(t, err)

	s, err := solver.New(client, solver.DefaultConfig())
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BACXIUBA", res.Code)
	assert.Equal(t, 8, res.Length)
	assert.Equal(t, o.Queries(), uint64(res.Queries),
		"every probe should arrive at the remote oracle exactly once")
}

func TestClient_RotateAndHealth(t *testing.T) {
	ts, o := newTestServer(t, "BACA")
	client, err := NewClient(ts.URL)
	require.NoError(t, err)

	rot, err := client.Rotate(context.Background(), "XIUXIU")
	require.NoError(t, err)
	assert.Equal(t, "rotated", rot.Status)
	assert.Equal(t, 6, rot.Length)
	assert.Equal(t, 6, o.Length())

	health, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 6, health.SecretLength)
	assert.Equal(t, uint64(0), health.Queries)
}

func TestClient_Rotate_InvalidSecret(t *testing.T) {
	ts, _ := newTestServer(t, "BACA")
	client, err := NewClient(ts.URL)
	require.NoError(t, err)

	_, err = client.Rotate(context.Background(), "BAZA")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestClient_ClosedOracleMapsAcrossTheWire(t *testing.T) {
	ts, o := newTestServer(t, "BACA")
	client, err := NewClient(ts.URL)
	require.NoError(t, err)
	require.NoError(t, o.Close())

	_, err = client.Evaluate(context.Background(), "BACA")
	require.Error(t, err)
	assert.ErrorIs(t, err, oracle.ErrOracleClosed,
		"remote closed state should satisfy the same errors.Is check as local")
}

func TestClient_Unreachable(t *testing.T) {
	client, err := NewClient("http://127.0.0.1:1")
	require.NoError(t, err)

	_, err = client.Evaluate(context.Background(), "BACA")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOracleUnreachable)
}

func TestClient_BadResponseBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("not json"))
	}))
	t.Cleanup(ts.Close)

	client, err := NewClient(ts.URL)
	require.NoError(t, err)

	_, err = client.Evaluate(context.Background(), "BACA")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestClient_ContextCanceled(t *testing.T) {
	ts, _ := newTestServer(t, "BACA")
	client, err := NewClient(ts.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.Evaluate(ctx, "BACA")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
