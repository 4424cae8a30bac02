// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry wires the OpenTelemetry SDK into sonar.
//
// There is no abstraction layer on top of OTel here. Instrumented
// packages call otel.Tracer() and otel.Meter() directly; this package
// only decides where that data goes. Operators change backends by
// changing exporter names in configuration, never code.
//
// Both exporters default to "none", so a plain solve run starts no
// background goroutines and opens no connections. The serve command
// enables OTLP traces and Prometheus metrics through its configuration
// file, and the API server scrapes MetricsHandler() at /metrics.
//
//	shutdown, err := telemetry.Init(ctx, telemetry.DefaultConfig())
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer shutdown(ctx)
//
// DefaultConfig honors the standard OTel environment variables
// (OTEL_TRACES_EXPORTER, OTEL_METRICS_EXPORTER,
// OTEL_EXPORTER_OTLP_ENDPOINT) plus SONAR_ENV for the deployment
// environment name, so a run can be traced without touching any file.
package telemetry
