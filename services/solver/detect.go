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
	"strings"

	"github.com/AleutianAI/sonar/services/oracle"
	"github.com/AleutianAI/sonar/services/solver/events"
)

// detectLength discovers the secret's length by probing runs of the
// base letter at increasing lengths. The first answer that is not the
// wrong-length sentinel fixes the length, and doubles as the base
// letter's occurrence count. On an all-base secret that probe is an
// exact match and unwinds early.
//
// Returns the length and the base letter's count.
func (s *Solver) detectLength(ctx context.Context, pr *prober) (int, int, error) {
	base := s.alpha.letter(0)
	for k := 1; k <= s.cfg.MaxLength; k++ {
		m, err := pr.send(ctx, strings.Repeat(string(base), k), events.PhaseDetect)
		if err != nil {
			return 0, 0, err
		}
		if m == oracle.MatchWrongLength {
			continue
		}
		s.events.Emit(events.TypeLengthDetected, events.LengthDetectedData{
			Length:     k,
			BaseLetter: string(base),
			BaseCount:  m,
			Probes:     k,
		})
		slog.Debug("length detected", "length", k, "base_letter", string(base), "base_count", m)
		return k, m, nil
	}
	return 0, 0, fmt.Errorf("%w: no valid length up to %d", ErrLengthNotFound, s.cfg.MaxLength)
}

// profileCounts measures every non-base letter's occurrence count with
// one uniform probe each, then checks that the counts account for every
// position. A secret made of one non-base letter unwinds early out of
// its own uniform probe.
func (s *Solver) profileCounts(ctx context.Context, pr *prober, n, baseCount int) ([]int, error) {
	counts := make([]int, s.alpha.size())
	counts[0] = baseCount
	for li := 1; li < s.alpha.size(); li++ {
		letter := s.alpha.letter(li)
		m, err := pr.probe(ctx, strings.Repeat(string(letter), n), events.PhaseProfile)
		if err != nil {
			return nil, err
		}
		counts[li] = m
		s.events.Emit(events.TypeLetterMeasured, events.LetterMeasuredData{
			Letter: string(letter),
			Count:  m,
		})
	}
	sum := 0
	for _, c := range counts {
		sum += c
	}
	if sum != n {
		return nil, fmt.Errorf("%w: counts sum %d for length %d", ErrCountSumMismatch, sum, n)
	}
	return counts, nil
}

// singleLetterSecret reports whether exactly one letter is present and,
// when so, builds the secret without further probes. The uniform probes
// above already unwind on their own exact matches, so this only fires
// if an oracle answers those probes inconsistently with its final
// behavior; it is kept as a guard on the counts.
func (s *Solver) singleLetterSecret(counts []int, n int) (string, string, bool) {
	present, last := 0, -1
	for li, c := range counts {
		if c > 0 {
			present++
			last = li
		}
	}
	if present != 1 {
		return "", "", false
	}
	letter := string(s.alpha.letter(last))
	return strings.Repeat(letter, n), letter, true
}
