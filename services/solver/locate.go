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

	"github.com/AleutianAI/sonar/services/solver/events"
)

// locateGroups localizes each present letter's positions by binary
// subdivision before single-position refinement starts.
//
// Description:
//
//	A probe that places one letter across a candidate subset, a
//	confirmed letter at each confirmed position, and an absent letter
//	everywhere else answers exactly how many of the letter's
//	occurrences fall inside the subset. Halving subsets on that signal
//	pins most positions down in O(count * log n) probes instead of the
//	refiner's one-per-position-per-letter walk. The whole phase needs
//	an absent letter to use as neutral filler; when every alphabet
//	letter occurs in the secret the phase is skipped and the refiner
//	does all the work.
//
//	Letters are processed in descending remaining-count order. Before
//	each one, a forced-fill check assigns the last unplaced letter
//	outright when it must occupy every open position. Afterwards, one
//	probe refreshes the baseline match count for the refiner, unless
//	every position is already confirmed.
func (s *Solver) locateGroups(ctx context.Context, pr *prober, st *solveState) error {
	filler, ok := st.absentLetter()
	if !ok {
		slog.Debug("no absent letter for group probes; refining directly", "length", st.n)
		return nil
	}
	for _, li := range st.priorityOrder() {
		if st.allConfirmed() {
			break
		}
		filled, err := s.tryForcedFill(st)
		if err != nil {
			return err
		}
		if filled {
			break
		}
		if st.remaining[li] == 0 {
			continue
		}
		set := st.masks[li].Clone()
		if err := s.locateLetter(ctx, pr, st, li, filler, set, st.remaining[li]); err != nil {
			return err
		}
	}
	if st.allConfirmed() {
		return nil
	}
	m, err := pr.probe(ctx, st.candidateString(), events.PhaseLocate)
	if err != nil {
		return err
	}
	st.setBaseline(m)
	s.events.Emit(events.TypeBaselineRefreshed, events.BaselineRefreshedData{Baseline: m})
	return nil
}

// locateLetter narrows one letter's candidate set recursively. want is
// how many of the letter's occurrences lie inside set.
//
// A zero want eliminates the whole subset; a want equal to the subset
// size assigns it without a probe. Otherwise the subset splits in
// half, one probe measures the lower half's occupancy, and the upper
// half's follows by subtraction. Singleton subsets always resolve
// through the first two cases, so each occurrence costs one probe per
// split level at worst.
func (s *Solver) locateLetter(ctx context.Context, pr *prober, st *solveState, li int, filler byte, set *PositionSet, want int) error {
	letter := st.alpha.letter(li)
	size := set.Count()
	if want == 0 {
		if size == 0 {
			return nil
		}
		positions := set.Positions()
		for _, pos := range positions {
			if err := st.eliminate(letter, pos); err != nil {
				return err
			}
		}
		s.events.Emit(events.TypeLetterEliminated, events.LetterEliminatedData{
			Letter:    string(letter),
			Positions: positions,
			Phase:     events.PhaseLocate,
		})
		return nil
	}
	if size < want {
		return fmt.Errorf("%w: %d candidate positions for %d occurrences of %q",
			ErrStateInconsistent, size, want, string(letter))
	}
	if size == want {
		positions, err := st.assignPositions(letter, set)
		if err != nil {
			return err
		}
		s.events.Emit(events.TypeGroupAssigned, events.GroupAssignedData{
			Letter:    string(letter),
			Positions: positions,
		})
		slog.Debug("group assigned", "letter", string(letter), "positions", positions)
		return nil
	}
	lower, upper := set.Split()
	loCount, err := s.countWithin(ctx, pr, st, letter, filler, lower)
	if err != nil {
		return err
	}
	if loCount < 0 || loCount > lower.Count() || loCount > want || want-loCount > upper.Count() {
		return fmt.Errorf("%w: measured %d of %q in %s, want %d of %d candidates",
			ErrStateInconsistent, loCount, string(letter), lower, want, size)
	}
	if err := s.locateLetter(ctx, pr, st, li, filler, lower, loCount); err != nil {
		return err
	}
	return s.locateLetter(ctx, pr, st, li, filler, upper, want-loCount)
}

// countWithin probes how many of letter's occurrences fall inside set,
// subtracting the matches contributed by already confirmed positions.
func (s *Solver) countWithin(ctx context.Context, pr *prober, st *solveState, letter, filler byte, set *PositionSet) (int, error) {
	guess := st.layoutGroupProbe(letter, filler, set)
	m, err := pr.probe(ctx, guess, events.PhaseLocate)
	if err != nil {
		return 0, err
	}
	return m - st.confirmedCount(), nil
}

// tryForcedFill assigns a letter to every open position when its
// remaining count says it must occupy them all. Callers decide whether
// a baseline refresh follows.
func (s *Solver) tryForcedFill(st *solveState) (bool, error) {
	li, ok := st.forcedLetter()
	if !ok {
		return false, nil
	}
	letter := st.alpha.letter(li)
	positions, err := st.assignPositions(letter, st.openPositions())
	if err != nil {
		return false, err
	}
	s.events.Emit(events.TypeForcedFill, events.ForcedFillData{
		Letter:    string(letter),
		Positions: positions,
	})
	slog.Debug("forced fill", "letter", string(letter), "positions", positions)
	return true, nil
}
