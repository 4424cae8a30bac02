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
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrNilContext indicates Init was called without a context.
	ErrNilContext = errors.New("context must not be nil")

	// ErrUnknownExporter indicates a Config named an exporter this
	// package does not support.
	ErrUnknownExporter = errors.New("unknown exporter")
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// Exporter names accepted by Config.TraceExporter and Config.MetricExporter.
const (
	ExporterNone       = "none"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterPrometheus = "prometheus"
)

// Config selects the exporters and names the process they report for.
type Config struct {
	// ServiceName identifies this process in traces and metrics.
	ServiceName string

	// ServiceVersion is the version string for this process.
	ServiceVersion string

	// Environment names the deployment environment (development, production).
	Environment string

	// TraceExporter is one of ExporterOTLP, ExporterStdout, or ExporterNone.
	TraceExporter string

	// MetricExporter is one of ExporterPrometheus, ExporterStdout, or
	// ExporterNone.
	MetricExporter string

	// OTLPEndpoint is the collector address for OTLP traces.
	OTLPEndpoint string

	// OTLPInsecure dials the collector without TLS.
	OTLPInsecure bool
}

// DefaultConfig returns quiet defaults suitable for a one-shot CLI run:
// both exporters off unless the standard OTel environment variables say
// otherwise.
//
// Recognized variables: OTEL_TRACES_EXPORTER, OTEL_METRICS_EXPORTER,
// OTEL_EXPORTER_OTLP_ENDPOINT, and SONAR_ENV.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "sonar",
		ServiceVersion: "0.1.0",
		Environment:    cmp.Or(os.Getenv("SONAR_ENV"), "development"),
		TraceExporter:  cmp.Or(os.Getenv("OTEL_TRACES_EXPORTER"), ExporterNone),
		MetricExporter: cmp.Or(os.Getenv("OTEL_METRICS_EXPORTER"), ExporterNone),
		OTLPEndpoint:   cmp.Or(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), "localhost:4317"),
		OTLPInsecure:   true,
	}
}

// enabled reports whether an exporter name asks for a live exporter.
func enabled(name string) bool {
	return name != "" && name != ExporterNone
}

// identity builds the resource attached to every span and metric.
func identity(cfg Config) *resource.Resource {
	return resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	)
}

// -----------------------------------------------------------------------------
// Initialization
// -----------------------------------------------------------------------------

// Init installs the global TracerProvider and MeterProvider.
//
// Description:
//
//	After Init returns successfully, otel.Tracer() and otel.Meter()
//	report through the configured exporters anywhere in the process.
//	With both exporters set to "none" nothing is installed and the
//	otel globals stay no-op, so instrumented code costs almost nothing.
//
// Outputs:
//
//	shutdown - Flushes and stops whatever Init started. Must be called
//	on process exit, even when both exporters are off.
//	error - Non-nil if an exporter could not be constructed. Anything
//	already started has been stopped again.
//
// Thread Safety: Call once at application startup.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	res := identity(cfg)

	var closers []func(context.Context) error
	fail := func(err error) (func(context.Context) error, error) {
		for _, c := range closers {
			_ = c(ctx)
		}
		return nil, err
	}

	if enabled(cfg.TraceExporter) {
		tp, err := newTraceProvider(ctx, cfg, res)
		if err != nil {
			return fail(fmt.Errorf("trace exporter %q: %w", cfg.TraceExporter, err))
		}
		otel.SetTracerProvider(tp)
		closers = append(closers, tp.Shutdown)
	}

	if enabled(cfg.MetricExporter) {
		mp, err := newMeterProvider(cfg, res)
		if err != nil {
			return fail(fmt.Errorf("metric exporter %q: %w", cfg.MetricExporter, err))
		}
		otel.SetMeterProvider(mp)
		closers = append(closers, mp.Shutdown)
	}

	shutdown := func(ctx context.Context) error {
		// Providers stop in reverse start order.
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i](ctx))
		}
		return errors.Join(errs...)
	}
	return shutdown, nil
}

// -----------------------------------------------------------------------------
// Exporters
// -----------------------------------------------------------------------------

func newTraceProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	var exp sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case ExporterOTLP:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err = otlptracegrpc.New(ctx, opts...)
	case ExporterStdout:
		exp, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.TraceExporter)
	}
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}

func newMeterProvider(cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	var reader sdkmetric.Reader

	switch cfg.MetricExporter {
	case ExporterPrometheus:
		// The exporter registers with the default prometheus registry,
		// so promhttp.Handler() serves every instrument we create.
		exp, err := promexporter.New()
		if err != nil {
			return nil, err
		}
		metricsHandler.Store(promhttp.Handler())
		reader = exp
	case ExporterStdout:
		exp, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		reader = sdkmetric.NewPeriodicReader(exp)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.MetricExporter)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	), nil
}

// -----------------------------------------------------------------------------
// Prometheus scrape handler
// -----------------------------------------------------------------------------

// metricsHandler holds the promhttp handler once the prometheus exporter
// is up. Written once by Init, read per request.
var metricsHandler atomic.Value

// MetricsHandler returns the handler for the /metrics endpoint, or nil
// when the prometheus exporter is not in use. Safe for concurrent use.
func MetricsHandler() http.Handler {
	h, _ := metricsHandler.Load().(http.Handler)
	return h
}
