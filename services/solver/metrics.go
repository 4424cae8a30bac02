// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package solver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("sonar.solver")

// solverInstruments bundles the meters a solve run reports into. The
// bundle is all-or-nothing; if any instrument fails to build, the
// whole bundle stays nil and recording becomes a no-op.
type solverInstruments struct {
	solves   metric.Int64Counter
	duration metric.Float64Histogram
	queries  metric.Int64Histogram
	probes   metric.Int64Counter
}

var (
	loadInstrumentsOnce sync.Once
	loadedInstruments   *solverInstruments
)

func loadInstruments() *solverInstruments {
	loadInstrumentsOnce.Do(func() {
		meter := otel.Meter("sonar.solver")
		in := &solverInstruments{}

		var errs [4]error
		in.solves, errs[0] = meter.Int64Counter("solver_solves_total",
			metric.WithDescription("Completed solve runs by outcome"))
		in.duration, errs[1] = meter.Float64Histogram("solver_solve_duration_seconds",
			metric.WithDescription("Wall-clock solve time"),
			metric.WithUnit("s"))
		in.queries, errs[2] = meter.Int64Histogram("solver_solve_queries",
			metric.WithDescription("Oracle queries consumed per solve run"))
		in.probes, errs[3] = meter.Int64Counter("solver_probes_total",
			metric.WithDescription("Probes issued by phase"))

		if err := errors.Join(errs[:]...); err != nil {
			slog.Warn("solver metrics disabled", "error", err)
			return
		}
		loadedInstruments = in
	})
	return loadedInstruments
}

// startSolveSpan opens the root span for one solve run.
func startSolveSpan(ctx context.Context, alphabet string, maxLength int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "solver.run", trace.WithAttributes(
		attribute.String("solver.alphabet", alphabet),
		attribute.Int("solver.max_length", maxLength),
	))
}

// recordProbe counts one emitted probe under its phase label.
func recordProbe(ctx context.Context, phase string) {
	in := loadInstruments()
	if in == nil {
		return
	}
	in.probes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("phase", phase)))
}

// recordSolve reports the aggregate result of one finished run.
func recordSolve(ctx context.Context, d time.Duration, queries int, success bool) {
	in := loadInstruments()
	if in == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	in.solves.Add(ctx, 1, attrs)
	in.duration.Record(ctx, d.Seconds(), attrs)
	in.queries.Record(ctx, int64(queries), attrs)
}
