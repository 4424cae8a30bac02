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

	"github.com/AleutianAI/sonar/services/solver/events"
)

// refine resolves the remaining open positions one substitution probe
// at a time.
//
// Description:
//
//	Each probe swaps a single candidate letter into the lowest open
//	position and compares the answer against the baseline. A +1 proves
//	the probed letter and adopts the probe as the new baseline; a -1
//	proves the letter already there, leaving the baseline alone; a 0
//	eliminates the probed letter at that position. Any other delta is
//	impossible for a one-position change and aborts the run. After
//	every confirmation the pass restarts so the forced-fill deduction
//	gets a chance to finish the candidate in one step.
//
//	A full pass that confirms nothing means the position model has
//	drifted from the oracle, which is unrecoverable.
func (s *Solver) refine(ctx context.Context, pr *prober, st *solveState) error {
	for !st.allConfirmed() {
		filled, err := s.tryForcedFill(st)
		if err != nil {
			return err
		}
		if filled {
			// The fill completed the candidate, so this refresh must come
			// back an exact match and unwind; anything else means the
			// bookkeeping lied.
			m, err := pr.probe(ctx, st.candidateString(), events.PhaseRefine)
			if err != nil {
				return err
			}
			return fmt.Errorf("%w: forced-fill candidate scored %d of %d",
				ErrStateInconsistent, m, st.n)
		}
		progressed := false
		for pos := 0; pos < st.n && !progressed; pos++ {
			if st.confirmed[pos] {
				continue
			}
			for _, li := range st.priorityOrder() {
				letter := st.alpha.letter(li)
				if st.remaining[li] <= 0 || !st.masks[li].Contains(pos) || letter == st.tentative[pos] {
					continue
				}
				m, err := pr.probe(ctx, st.layoutSubstitution(pos, letter), events.PhaseRefine)
				if err != nil {
					return err
				}
				switch m - st.baseline {
				case 1:
					if err := st.confirmPosition(pos, letter); err != nil {
						return err
					}
					st.setBaseline(m)
					s.emitConfirmed(pos, letter, st.open)
					progressed = true
				case -1:
					orig := st.tentative[pos]
					if err := st.confirmPosition(pos, orig); err != nil {
						return err
					}
					s.emitConfirmed(pos, orig, st.open)
					progressed = true
				case 0:
					if err := st.eliminate(letter, pos); err != nil {
						return err
					}
					s.events.Emit(events.TypeLetterEliminated, events.LetterEliminatedData{
						Letter:    string(letter),
						Positions: []int{pos},
						Phase:     events.PhaseRefine,
					})
					continue
				default:
					return fmt.Errorf("%w: delta %d probing %q at position %d",
						ErrUnexpectedDelta, m-st.baseline, string(letter), pos)
				}
				break
			}
		}
		if !progressed {
			return fmt.Errorf("%w: %d positions open", ErrRefinementStall, st.open)
		}
	}
	return nil
}

func (s *Solver) emitConfirmed(pos int, letter byte, open int) {
	s.events.Emit(events.TypePositionConfirmed, events.PositionConfirmedData{
		Position: pos,
		Letter:   string(letter),
		Open:     open,
	})
}
