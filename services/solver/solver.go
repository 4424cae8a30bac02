// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package solver recovers a hidden code from an oracle that only
// reports exact-position match counts.
//
// A run moves through five phases: length detection, letter count
// profiling, candidate seeding, group location, and single-position
// refinement. Any probe that happens to match the secret exactly ends
// the run immediately, whatever phase issued it. The phases are pure
// deduction over match counts; every oracle interaction goes through
// one prober so queries are counted and published exactly once.
package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/sonar/services/oracle"
	"github.com/AleutianAI/sonar/services/solver/events"
)

// Solver recovers secrets from an Oracle.
//
// Description:
//
//	A Solver is configured once and reused; each Run consumes fresh
//	working state. The zero-value Config selects the standard
//	alphabet, length bound, and redetect budget.
//
// Thread Safety: Safe for sequential reuse. Concurrent Runs sharing
// one event Publisher will interleave their streams; give each
// concurrent run its own Solver and Publisher.
type Solver struct {
	oracle oracle.Oracle
	cfg    Config
	alpha  *alphabet
	events events.Publisher
}

// New creates a Solver for the given oracle.
func New(o oracle.Oracle, cfg Config) (*Solver, error) {
	if o == nil {
		return nil, fmt.Errorf("%w: nil oracle", ErrInvalidInput)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	alpha, err := newAlphabet(cfg.Alphabet)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return &Solver{
		oracle: o,
		cfg:    cfg,
		alpha:  alpha,
		events: cfg.Events,
	}, nil
}

// Run performs one full inference against the oracle.
//
// Description:
//
//	Run drives the phases in order and converts the two non-error
//	terminal conditions into results: an exact-match probe unwinds as
//	a success from any depth, and a post-discovery wrong-length answer
//	restarts length discovery up to the configured redetect budget,
//	with the query count carrying across attempts. Every other failure
//	is fatal and returns a wrapped sentinel from this package.
//
// Inputs:
//   - ctx: cancels in-flight oracle calls.
//
// Outputs:
//   - *Result: the recovered code with its query and timing accounting.
//   - error: a wrapped package sentinel, or the oracle's own error.
func (s *Solver) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	ctx, span := startSolveSpan(ctx, s.alpha.String(), s.cfg.MaxLength)
	defer span.End()

	s.events.Emit(events.TypeSolveStarted, events.SolveStartedData{
		Alphabet:  s.alpha.String(),
		MaxLength: s.cfg.MaxLength,
	})
	slog.Info("solve started", "alphabet", s.alpha.String(), "max_length", s.cfg.MaxLength)

	pr := &prober{oracle: s.oracle, events: s.events}
	var (
		res          *Result
		err          error
		redetections int
	)
	for {
		res, err = s.solveOnce(ctx, pr)
		if err == nil || !errors.Is(err, ErrLengthConflict) || redetections >= s.cfg.RedetectLimit {
			break
		}
		redetections++
		s.events.Emit(events.TypeLengthConflict, events.LengthConflictData{
			Attempt: redetections,
			Limit:   s.cfg.RedetectLimit,
		})
		span.AddEvent("length_conflict", trace.WithAttributes(
			attribute.Int("solver.redetect_attempt", redetections)))
		slog.Warn("length conflict after discovery; redetecting",
			"attempt", redetections, "limit", s.cfg.RedetectLimit)
	}
	if err != nil {
		s.events.Emit(events.TypeSolveFailed, events.SolveFailedData{
			Error:   err.Error(),
			Queries: pr.queries,
		})
		recordSolve(ctx, time.Since(start), pr.queries, false)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("solve failed", "error", err, "queries", pr.queries)
		return nil, err
	}

	res.Queries = pr.queries
	res.Duration = time.Since(start)
	res.Redetections = redetections
	s.events.Emit(events.TypeSolveCompleted, events.SolveCompletedData{
		Code:         res.Code,
		Length:       res.Length,
		Queries:      res.Queries,
		Duration:     res.Duration,
		ShortCircuit: res.ShortCircuit,
	})
	recordSolve(ctx, res.Duration, res.Queries, true)
	span.SetAttributes(
		attribute.Int("solver.length", res.Length),
		attribute.Int("solver.queries", res.Queries),
	)
	span.SetStatus(codes.Ok, "")
	slog.Info("solve completed",
		"length", res.Length,
		"queries", res.Queries,
		"duration", res.Duration,
		"short_circuit", res.ShortCircuit)
	return res, nil
}

// solveOnce runs the phase pipeline once, translating an early exact
// match into a result.
func (s *Solver) solveOnce(ctx context.Context, pr *prober) (*Result, error) {
	res, err := s.infer(ctx, pr)
	if err != nil {
		var em *errEarlyMatch
		if errors.As(err, &em) {
			return s.resultFromMatch(em), nil
		}
		return nil, err
	}
	return res, nil
}

func (s *Solver) infer(ctx context.Context, pr *prober) (*Result, error) {
	span := trace.SpanFromContext(ctx)

	span.AddEvent("phase.detect")
	n, baseCount, err := s.detectLength(ctx, pr)
	if err != nil {
		return nil, err
	}

	span.AddEvent("phase.profile", trace.WithAttributes(attribute.Int("solver.length", n)))
	counts, err := s.profileCounts(ctx, pr, n, baseCount)
	if err != nil {
		return nil, err
	}
	if code, letter, ok := s.singleLetterSecret(counts, n); ok {
		s.events.Emit(events.TypeShortCircuit, events.ShortCircuitData{
			Letter: letter,
			Length: n,
		})
		return &Result{
			Code:         code,
			Length:       n,
			Counts:       s.tallyCounts(code),
			ShortCircuit: true,
		}, nil
	}

	st, err := newSolveState(s.alpha, n, counts)
	if err != nil {
		return nil, err
	}

	span.AddEvent("phase.seed")
	seed := st.seedInitialCandidate()
	m, err := pr.probe(ctx, seed, events.PhaseSeed)
	if err != nil {
		return nil, err
	}
	st.setBaseline(m)
	s.events.Emit(events.TypeCandidateSeeded, events.CandidateSeededData{
		Candidate: seed,
		Baseline:  m,
	})

	span.AddEvent("phase.locate")
	if err := s.locateGroups(ctx, pr, st); err != nil {
		return nil, err
	}
	if err := st.validate(); err != nil {
		return nil, err
	}

	span.AddEvent("phase.refine", trace.WithAttributes(attribute.Int("solver.open", st.open)))
	if err := s.refine(ctx, pr, st); err != nil {
		return nil, err
	}

	code := st.candidateString()
	return &Result{
		Code:   code,
		Length: n,
		Counts: s.tallyCounts(code),
	}, nil
}

// resultFromMatch builds the result for a probe that hit the secret
// exactly. Detection and profiling probes are uniform, so a hit there
// is the single-letter short circuit.
func (s *Solver) resultFromMatch(em *errEarlyMatch) *Result {
	short := em.phase == events.PhaseDetect || em.phase == events.PhaseProfile
	if short {
		s.events.Emit(events.TypeShortCircuit, events.ShortCircuitData{
			Letter: em.guess[:1],
			Length: len(em.guess),
		})
	}
	return &Result{
		Code:         em.guess,
		Length:       len(em.guess),
		Counts:       s.tallyCounts(em.guess),
		ShortCircuit: short,
	}
}

// tallyCounts maps every alphabet letter to its occurrence count in
// code.
func (s *Solver) tallyCounts(code string) map[string]int {
	counts := make(map[string]int, s.alpha.size())
	for i := 0; i < s.alpha.size(); i++ {
		counts[string(s.alpha.letter(i))] = 0
	}
	for i := 0; i < len(code); i++ {
		counts[string(code[i])]++
	}
	return counts
}
