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
	"fmt"
	"sort"
)

// solveState is the working model of a partially recovered secret.
//
// Description:
//
//	It tracks, per letter, how many occurrences remain unplaced and
//	which positions could still hold the letter, plus the tentative
//	candidate string and which of its positions are confirmed. All
//	mutation goes through confirmPosition, eliminate, and
//	assignPositions so the cross-structure invariants hold at every
//	step; validate audits them between phases.
//
// Thread Safety: Not safe for concurrent use. A run owns its state.
type solveState struct {
	alpha *alphabet
	n     int

	// counts holds the measured occurrence count per letter; it never
	// changes after construction.
	counts []int

	// remaining holds the unplaced occurrences per letter.
	remaining []int

	// masks holds, per letter, the positions that could still hold it.
	masks []*PositionSet

	tentative []byte
	confirmed []bool

	// open is the number of unconfirmed positions; it always equals the
	// sum of remaining.
	open int

	// baseline is the match count of the current tentative candidate.
	baseline int
}

func newSolveState(alpha *alphabet, n int, counts []int) (*solveState, error) {
	if len(counts) != alpha.size() {
		return nil, fmt.Errorf("%w: %d counts for %d letters",
			ErrStateInconsistent, len(counts), alpha.size())
	}
	sum := 0
	for _, c := range counts {
		sum += c
	}
	if sum != n {
		return nil, fmt.Errorf("%w: counts sum %d, length %d", ErrStateInconsistent, sum, n)
	}
	st := &solveState{
		alpha:     alpha,
		n:         n,
		counts:    append([]int(nil), counts...),
		remaining: append([]int(nil), counts...),
		masks:     make([]*PositionSet, alpha.size()),
		tentative: make([]byte, n),
		confirmed: make([]bool, n),
		open:      n,
	}
	for i := range st.masks {
		st.masks[i] = NewPositionSet(n)
		if counts[i] > 0 {
			st.masks[i].Fill()
		}
	}
	return st, nil
}

// confirmPosition fixes letter at pos. It rejects confirmations the
// bookkeeping contradicts: an exhausted letter, an eliminated position,
// or a position already confirmed.
func (st *solveState) confirmPosition(pos int, letter byte) error {
	li := st.alpha.indexOf(letter)
	if li < 0 {
		return fmt.Errorf("%w: letter %q not in alphabet", ErrStateInconsistent, string(letter))
	}
	if pos < 0 || pos >= st.n {
		return fmt.Errorf("%w: position %d out of range [0,%d)", ErrStateInconsistent, pos, st.n)
	}
	if st.confirmed[pos] {
		return fmt.Errorf("%w: position %d already confirmed", ErrStateInconsistent, pos)
	}
	if st.remaining[li] <= 0 {
		return fmt.Errorf("%w: letter %q exhausted at position %d",
			ErrStateInconsistent, string(letter), pos)
	}
	if !st.masks[li].Contains(pos) {
		return fmt.Errorf("%w: position %d eliminated for letter %q",
			ErrStateInconsistent, pos, string(letter))
	}
	st.tentative[pos] = letter
	st.confirmed[pos] = true
	st.open--
	st.remaining[li]--
	for i := range st.masks {
		st.masks[i].Remove(pos)
	}
	return nil
}

// eliminate marks that letter cannot occupy pos. Eliminating an already
// absent pairing is a no-op.
func (st *solveState) eliminate(letter byte, pos int) error {
	li := st.alpha.indexOf(letter)
	if li < 0 {
		return fmt.Errorf("%w: letter %q not in alphabet", ErrStateInconsistent, string(letter))
	}
	if pos < 0 || pos >= st.n {
		return fmt.Errorf("%w: position %d out of range [0,%d)", ErrStateInconsistent, pos, st.n)
	}
	st.masks[li].Remove(pos)
	return nil
}

// assignPositions confirms letter at every member of set and returns
// the positions assigned, in ascending order.
func (st *solveState) assignPositions(letter byte, set *PositionSet) ([]int, error) {
	positions := set.Positions()
	for _, pos := range positions {
		if err := st.confirmPosition(pos, letter); err != nil {
			return nil, err
		}
	}
	return positions, nil
}

func (st *solveState) setBaseline(m int) {
	st.baseline = m
}

func (st *solveState) allConfirmed() bool {
	return st.open == 0
}

func (st *solveState) confirmedCount() int {
	return st.n - st.open
}

func (st *solveState) candidateString() string {
	return string(st.tentative)
}

// openPositions returns the set of unconfirmed positions.
func (st *solveState) openPositions() *PositionSet {
	set := NewPositionSet(st.n)
	for pos := 0; pos < st.n; pos++ {
		if !st.confirmed[pos] {
			set.Add(pos)
		}
	}
	return set
}

// lowestOpen returns the smallest unconfirmed position, or -1.
func (st *solveState) lowestOpen() int {
	for pos := 0; pos < st.n; pos++ {
		if !st.confirmed[pos] {
			return pos
		}
	}
	return -1
}

// forcedLetter returns the canonical-first letter whose remaining
// occurrences equal the open position count, meaning it must fill every
// open slot. Reported only while positions are open.
func (st *solveState) forcedLetter() (int, bool) {
	if st.open == 0 {
		return 0, false
	}
	for li := range st.remaining {
		if st.remaining[li] == st.open {
			return li, true
		}
	}
	return 0, false
}

// absentLetter returns the canonical-first letter with a zero count,
// usable as neutral filler in group probes.
func (st *solveState) absentLetter() (byte, bool) {
	for li, c := range st.counts {
		if c == 0 {
			return st.alpha.letter(li), true
		}
	}
	return 0, false
}

// priorityOrder returns every letter index ordered by remaining count,
// descending, with ties broken toward canonical order.
func (st *solveState) priorityOrder() []int {
	order := make([]int, st.alpha.size())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return st.remaining[order[a]] > st.remaining[order[b]]
	})
	return order
}

// seedInitialCandidate lays the letters out in descending-count blocks
// from position 0 and returns the resulting candidate.
func (st *solveState) seedInitialCandidate() string {
	order := make([]int, st.alpha.size())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return st.counts[order[a]] > st.counts[order[b]]
	})
	p := 0
	for _, li := range order {
		for k := 0; k < st.counts[li]; k++ {
			st.tentative[p] = st.alpha.letter(li)
			p++
		}
	}
	return st.candidateString()
}

// layoutGroupProbe builds a probe that isolates set for letter:
// confirmed positions keep their letters, set members get letter, and
// every other position gets the filler. The answer minus the confirmed
// count is the number of the letter's occurrences inside set.
func (st *solveState) layoutGroupProbe(letter, filler byte, set *PositionSet) string {
	buf := make([]byte, st.n)
	for pos := 0; pos < st.n; pos++ {
		switch {
		case st.confirmed[pos]:
			buf[pos] = st.tentative[pos]
		case set.Contains(pos):
			buf[pos] = letter
		default:
			buf[pos] = filler
		}
	}
	return string(buf)
}

// layoutSubstitution builds the tentative candidate with a single
// position replaced.
func (st *solveState) layoutSubstitution(pos int, letter byte) string {
	buf := make([]byte, st.n)
	copy(buf, st.tentative)
	buf[pos] = letter
	return string(buf)
}

// validate audits the cross-structure invariants. It is called between
// phases; a failure is fatal to the run.
func (st *solveState) validate() error {
	openCount := 0
	for pos := 0; pos < st.n; pos++ {
		if !st.confirmed[pos] {
			openCount++
		}
	}
	if openCount != st.open {
		return fmt.Errorf("%w: open %d, unconfirmed positions %d",
			ErrStateInconsistent, st.open, openCount)
	}
	sum := 0
	for li, r := range st.remaining {
		if r < 0 || r > st.counts[li] {
			return fmt.Errorf("%w: remaining %d outside [0,%d] for letter %q",
				ErrStateInconsistent, r, st.counts[li], string(st.alpha.letter(li)))
		}
		sum += r
		if st.masks[li].Count() < r {
			return fmt.Errorf("%w: %d candidate positions for %d occurrences of %q",
				ErrStateInconsistent, st.masks[li].Count(), r, string(st.alpha.letter(li)))
		}
	}
	if sum != st.open {
		return fmt.Errorf("%w: remaining sum %d, open %d", ErrStateInconsistent, sum, st.open)
	}
	for pos := 0; pos < st.n; pos++ {
		if !st.confirmed[pos] {
			continue
		}
		for li := range st.masks {
			if st.masks[li].Contains(pos) {
				return fmt.Errorf("%w: confirmed position %d still a candidate for %q",
					ErrStateInconsistent, pos, string(st.alpha.letter(li)))
			}
		}
	}
	return nil
}
