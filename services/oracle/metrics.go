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
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// evalOutcome labels how a single Evaluate call was resolved.
type evalOutcome string

const (
	outcomeCounted         evalOutcome = "counted"
	outcomeExactMatch      evalOutcome = "exact_match"
	outcomeInvalidAlphabet evalOutcome = "invalid_alphabet"
	outcomeWrongLength     evalOutcome = "wrong_length"
)

// oracleInstruments bundles the counters the oracle reports. A nil
// bundle means instrument creation failed and recording is a no-op.
type oracleInstruments struct {
	evaluations metric.Int64Counter
}

var (
	instOnce sync.Once
	inst     *oracleInstruments
)

// instruments builds the bundle on first use.
func instruments() *oracleInstruments {
	instOnce.Do(func() {
		evals, err := otel.Meter("sonar.oracle").Int64Counter(
			"oracle_evaluations_total",
			metric.WithDescription("Total guesses evaluated, by outcome"),
		)
		if err != nil {
			return
		}
		inst = &oracleInstruments{evaluations: evals}
	})
	return inst
}

// recordEvaluation counts one evaluated guess under its outcome label.
func recordEvaluation(ctx context.Context, outcome evalOutcome) {
	in := instruments()
	if in == nil {
		return
	}
	in.evaluations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", string(outcome)),
	))
}
