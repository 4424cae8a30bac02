// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

// clearOTelEnv blanks the environment variables DefaultConfig reads, so
// the test sees the built-in fallbacks even on an instrumented CI host.
func clearOTelEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OTEL_TRACES_EXPORTER",
		"OTEL_METRICS_EXPORTER",
		"OTEL_EXPORTER_OTLP_ENDPOINT",
		"SONAR_ENV",
	} {
		t.Setenv(key, "")
	}
}

// =============================================================================
// Config Tests
// =============================================================================

func TestDefaultConfig_QuietByDefault(t *testing.T) {
	clearOTelEnv(t)

	cfg := DefaultConfig()
	if cfg.ServiceName != "sonar" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "sonar")
	}
	if cfg.TraceExporter != ExporterNone {
		t.Errorf("TraceExporter = %q, want %q", cfg.TraceExporter, ExporterNone)
	}
	if cfg.MetricExporter != ExporterNone {
		t.Errorf("MetricExporter = %q, want %q", cfg.MetricExporter, ExporterNone)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "development")
	}
	if cfg.OTLPEndpoint != "localhost:4317" {
		t.Errorf("OTLPEndpoint = %q, want %q", cfg.OTLPEndpoint, "localhost:4317")
	}
	if !cfg.OTLPInsecure {
		t.Error("OTLPInsecure should default to true for local collectors")
	}
}

func TestDefaultConfig_EnvironmentWins(t *testing.T) {
	clearOTelEnv(t)
	t.Setenv("OTEL_TRACES_EXPORTER", ExporterStdout)
	t.Setenv("OTEL_METRICS_EXPORTER", ExporterPrometheus)
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector.internal:4317")
	t.Setenv("SONAR_ENV", "production")

	cfg := DefaultConfig()
	if cfg.TraceExporter != ExporterStdout {
		t.Errorf("TraceExporter = %q, want %q", cfg.TraceExporter, ExporterStdout)
	}
	if cfg.MetricExporter != ExporterPrometheus {
		t.Errorf("MetricExporter = %q, want %q", cfg.MetricExporter, ExporterPrometheus)
	}
	if cfg.OTLPEndpoint != "collector.internal:4317" {
		t.Errorf("OTLPEndpoint = %q, want %q", cfg.OTLPEndpoint, "collector.internal:4317")
	}
	if cfg.Environment != "production" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "production")
	}
}

// =============================================================================
// Init Tests
// =============================================================================

func TestInit_RejectsNilContext(t *testing.T) {
	var nilCtx context.Context

	_, err := Init(nilCtx, DefaultConfig())
	if !errors.Is(err, ErrNilContext) {
		t.Errorf("Init(nil, cfg) error = %v, want ErrNilContext", err)
	}
}

func TestInit_NoneLeavesGlobalsAlone(t *testing.T) {
	clearOTelEnv(t)
	beforeTraces := otel.GetTracerProvider()
	beforeMetrics := otel.GetMeterProvider()

	shutdown, err := Init(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if shutdown == nil {
		t.Fatal("shutdown function is nil")
	}

	if otel.GetTracerProvider() != beforeTraces {
		t.Error("tracer provider replaced although traces are off")
	}
	if otel.GetMeterProvider() != beforeMetrics {
		t.Error("meter provider replaced although metrics are off")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestInit_StdoutExportersInstallProviders(t *testing.T) {
	clearOTelEnv(t)

	t.Run("traces", func(t *testing.T) {
		before := otel.GetTracerProvider()

		cfg := DefaultConfig()
		cfg.TraceExporter = ExporterStdout

		shutdown, err := Init(context.Background(), cfg)
		if err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		defer shutdown(context.Background())

		if otel.GetTracerProvider() == before {
			t.Error("global tracer provider was not replaced")
		}
	})

	t.Run("metrics", func(t *testing.T) {
		before := otel.GetMeterProvider()

		cfg := DefaultConfig()
		cfg.MetricExporter = ExporterStdout

		shutdown, err := Init(context.Background(), cfg)
		if err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		defer shutdown(context.Background())

		if otel.GetMeterProvider() == before {
			t.Error("global meter provider was not replaced")
		}
	})
}

func TestInit_RejectsUnknownExporterNames(t *testing.T) {
	clearOTelEnv(t)

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"trace", func(c *Config) { c.TraceExporter = "zipkin_carrier_pigeon" }},
		{"metric", func(c *Config) { c.MetricExporter = "graphite" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			_, err := Init(context.Background(), cfg)
			if !errors.Is(err, ErrUnknownExporter) {
				t.Errorf("error = %v, want ErrUnknownExporter", err)
			}
		})
	}
}

// =============================================================================
// Metrics Handler Tests
// =============================================================================

func TestMetricsHandler_ServesPrometheusExposition(t *testing.T) {
	clearOTelEnv(t)

	cfg := DefaultConfig()
	cfg.MetricExporter = ExporterPrometheus

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer shutdown(context.Background())

	counter, err := otel.Meter("telemetry_test").Int64Counter("sonar_test_probes_total")
	if err != nil {
		t.Fatalf("creating counter: %v", err)
	}
	counter.Add(context.Background(), 7)

	handler := MetricsHandler()
	if handler == nil {
		t.Fatal("MetricsHandler() returned nil with the prometheus exporter on")
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := rec.Result()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	text := string(body)
	if !strings.Contains(text, "# HELP") {
		t.Errorf("body is not Prometheus exposition format, got: %.200s", text)
	}
	if !strings.Contains(text, "sonar_test_probes") {
		t.Errorf("scrape does not include the test counter, got: %.200s", text)
	}
}
