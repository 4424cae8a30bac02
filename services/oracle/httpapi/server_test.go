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
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_NilOracle(t *testing.T) {
	_, err := NewServer(Config{}, nil)
	require.Error(t, err)
}

func TestNewServer_Defaults(t *testing.T) {
	o := newTestOracle(t, "BACA")
	s, err := NewServer(Config{}, o)
	require.NoError(t, err)

	assert.Equal(t, 12280, s.config.Port)
	assert.Equal(t, 1000, s.config.EventBufferSize)
	assert.True(t, s.config.EnableMetrics)
	assert.NotNil(t, s.Emitter())
}

func TestServer_RouterServesAPI(t *testing.T) {
	o := newTestOracle(t, "BACXIU")
	s, err := NewServer(Config{GinMode: "test"}, o)
	require.NoError(t, err)

	w := doJSON(t, s.Router(), http.MethodGet, "/v1/oracle/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp.SecretLength)
}

func TestServer_MetricsRouteWithoutTelemetry(t *testing.T) {
	o := newTestOracle(t, "BACA")
	s, err := NewServer(Config{GinMode: "test"}, o)
	require.NoError(t, err)

	// The route exists but answers 404 until telemetry.Init wires a
	// Prometheus exporter into the process.
	w := doJSON(t, s.Router(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_MetricsDisabled(t *testing.T) {
	o := newTestOracle(t, "BACA")
	s, err := NewServer(Config{GinMode: "test", DisableMetrics: true}, o)
	require.NoError(t, err)

	assert.False(t, s.config.EnableMetrics)
	w := doJSON(t, s.Router(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
