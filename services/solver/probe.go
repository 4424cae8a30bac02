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
	"fmt"
	"log/slog"

	"github.com/AleutianAI/sonar/services/oracle"
	"github.com/AleutianAI/sonar/services/solver/events"
)

// errEarlyMatch unwinds the call stack when a probe's answer equals its
// length: the probe itself is the secret, whatever phase issued it. Run
// converts it into a normal result.
type errEarlyMatch struct {
	guess string
	phase string
}

func (e *errEarlyMatch) Error() string {
	return fmt.Sprintf("exact match on %s probe %q", e.phase, e.guess)
}

// prober wraps the oracle with query counting, event publication, and
// terminal-condition translation. Queries accumulate across
// redetections; each run owns one prober.
type prober struct {
	oracle  oracle.Oracle
	events  events.Publisher
	queries int
}

// send issues a probe with no expectation about its length. A
// wrong-length answer passes through; length detection consumes it.
func (p *prober) send(ctx context.Context, guess, phase string) (int, error) {
	p.queries++
	p.events.SetStep(p.queries)
	m, err := p.oracle.Evaluate(ctx, guess)
	if err != nil {
		return 0, fmt.Errorf("oracle evaluate: %w", err)
	}
	p.events.Emit(events.TypeProbeIssued, events.ProbeIssuedData{
		Sequence: p.queries,
		Guess:    guess,
		Matches:  m,
		Phase:    phase,
	})
	recordProbe(ctx, phase)
	slog.Debug("probe answered",
		"sequence", p.queries,
		"guess", guess,
		"matches", m,
		"phase", phase)
	if m == oracle.MatchInvalidAlphabet {
		return 0, fmt.Errorf("%w: oracle rejected alphabet of %q", ErrInvalidProbe, guess)
	}
	if m == len(guess) {
		return 0, &errEarlyMatch{guess: guess, phase: phase}
	}
	return m, nil
}

// probe issues a probe after length discovery, when a wrong-length
// answer means the oracle's secret changed underneath the run.
func (p *prober) probe(ctx context.Context, guess, phase string) (int, error) {
	m, err := p.send(ctx, guess, phase)
	if err != nil {
		return 0, err
	}
	if m == oracle.MatchWrongLength {
		return 0, fmt.Errorf("%w: oracle rejected length %d after discovery",
			ErrLengthConflict, len(guess))
	}
	return m, nil
}
