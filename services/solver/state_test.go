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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sonar/services/oracle"
)

func testAlphabet(t *testing.T) *alphabet {
	t.Helper()
	a, err := newAlphabet(oracle.DefaultAlphabet)
	require.NoError(t, err)
	return a
}

// counts are indexed in canonical order: B, A, C, X, I, U.
func testState(t *testing.T, n int, counts []int) *solveState {
	t.Helper()
	st, err := newSolveState(testAlphabet(t), n, counts)
	require.NoError(t, err)
	return st
}

func TestNewSolveState_RejectsBadCounts(t *testing.T) {
	alpha := testAlphabet(t)

	_, err := newSolveState(alpha, 5, []int{2, 2, 0, 0, 0, 0})
	require.ErrorIs(t, err, ErrStateInconsistent)

	_, err = newSolveState(alpha, 4, []int{2, 2})
	require.ErrorIs(t, err, ErrStateInconsistent)
}

func TestNewSolveState_MasksFollowCounts(t *testing.T) {
	st := testState(t, 4, []int{2, 2, 0, 0, 0, 0})

	assert.Equal(t, 4, st.masks[0].Count(), "present letter starts with every position")
	assert.Equal(t, 4, st.masks[1].Count())
	assert.True(t, st.masks[2].Empty(), "absent letter has no candidate positions")
	assert.Equal(t, 4, st.open)
	require.NoError(t, st.validate())
}

func TestSolveState_ConfirmPosition(t *testing.T) {
	st := testState(t, 4, []int{2, 2, 0, 0, 0, 0})

	require.NoError(t, st.confirmPosition(1, 'A'))

	assert.Equal(t, byte('A'), st.tentative[1])
	assert.True(t, st.confirmed[1])
	assert.Equal(t, 3, st.open)
	assert.Equal(t, 1, st.remaining[1])
	for li := range st.masks {
		assert.False(t, st.masks[li].Contains(1), "confirmed position must leave every mask")
	}
	require.NoError(t, st.validate())
}

func TestSolveState_ConfirmPosition_Rejections(t *testing.T) {
	st := testState(t, 3, []int{2, 1, 0, 0, 0, 0})

	require.NoError(t, st.confirmPosition(0, 'B'))

	err := st.confirmPosition(0, 'B')
	assert.ErrorIs(t, err, ErrStateInconsistent, "already confirmed")

	err = st.confirmPosition(1, 'C')
	assert.ErrorIs(t, err, ErrStateInconsistent, "letter with no remaining occurrences")

	require.NoError(t, st.eliminate('A', 1))
	err = st.confirmPosition(1, 'A')
	assert.ErrorIs(t, err, ErrStateInconsistent, "eliminated position")

	err = st.confirmPosition(9, 'B')
	assert.ErrorIs(t, err, ErrStateInconsistent, "position out of range")

	err = st.confirmPosition(1, 'Z')
	assert.ErrorIs(t, err, ErrStateInconsistent, "letter outside alphabet")
}

func TestSolveState_AssignPositions(t *testing.T) {
	st := testState(t, 5, []int{3, 2, 0, 0, 0, 0})

	set := NewPositionSet(5)
	set.Add(0)
	set.Add(2)
	set.Add(4)

	positions, err := st.assignPositions('B', set)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4}, positions)
	assert.Equal(t, 0, st.remaining[0])
	assert.Equal(t, 2, st.open)
	require.NoError(t, st.validate())
}

func TestSolveState_ForcedLetter(t *testing.T) {
	st := testState(t, 4, []int{2, 2, 0, 0, 0, 0})

	_, ok := st.forcedLetter()
	assert.False(t, ok, "no letter is forced while two remain")

	require.NoError(t, st.confirmPosition(0, 'B'))
	require.NoError(t, st.confirmPosition(1, 'B'))

	li, ok := st.forcedLetter()
	require.True(t, ok, "A must fill both open positions")
	assert.Equal(t, byte('A'), st.alpha.letter(li))

	require.NoError(t, st.confirmPosition(2, 'A'))
	require.NoError(t, st.confirmPosition(3, 'A'))
	_, ok = st.forcedLetter()
	assert.False(t, ok, "nothing is forced once everything is confirmed")
}

func TestSolveState_AbsentLetter(t *testing.T) {
	st := testState(t, 4, []int{2, 2, 0, 0, 0, 0})
	filler, ok := st.absentLetter()
	require.True(t, ok)
	assert.Equal(t, byte('C'), filler, "first absent letter in canonical order")

	full := testState(t, 6, []int{1, 1, 1, 1, 1, 1})
	_, ok = full.absentLetter()
	assert.False(t, ok)
}

func TestSolveState_PriorityOrder(t *testing.T) {
	st := testState(t, 7, []int{2, 1, 3, 0, 1, 0})

	order := st.priorityOrder()
	letters := make([]byte, len(order))
	for i, li := range order {
		letters[i] = st.alpha.letter(li)
	}
	// descending remaining, canonical order breaking the ties
	assert.Equal(t, []byte("CBAIXU"), letters)
}

func TestSolveState_SeedInitialCandidate(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		counts []int
		want   string
	}{
		{
			name:   "distinct counts sort descending",
			n:      6,
			counts: []int{1, 2, 3, 0, 0, 0},
			want:   "CCCAAB",
		},
		{
			name:   "ties keep canonical order",
			n:      6,
			counts: []int{2, 2, 0, 0, 0, 2},
			want:   "BBAAUU",
		},
		{
			name:   "single block",
			n:      3,
			counts: []int{0, 0, 0, 3, 0, 0},
			want:   "XXX",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testState(t, tt.n, tt.counts)
			assert.Equal(t, tt.want, st.seedInitialCandidate())
		})
	}
}

func TestSolveState_LayoutGroupProbe(t *testing.T) {
	st := testState(t, 5, []int{2, 2, 1, 0, 0, 0})
	st.seedInitialCandidate()

	require.NoError(t, st.confirmPosition(4, 'C'))

	set := NewPositionSet(5)
	set.Add(0)
	set.Add(2)

	// A at the subset, X filling the other open slots, C held where
	// confirmed
	assert.Equal(t, "AXAXC", st.layoutGroupProbe('A', 'X', set))
}

func TestSolveState_LayoutSubstitution(t *testing.T) {
	st := testState(t, 4, []int{2, 2, 0, 0, 0, 0})
	seed := st.seedInitialCandidate()
	require.Equal(t, "BBAA", seed)

	assert.Equal(t, "BAAA", st.layoutSubstitution(1, 'A'))
	assert.Equal(t, "BBAA", st.candidateString(), "layout must not mutate the candidate")
}

func TestSolveState_Validate_CatchesDrift(t *testing.T) {
	st := testState(t, 4, []int{2, 2, 0, 0, 0, 0})

	// strand an occurrence: two remaining but a single candidate position
	require.NoError(t, st.eliminate('B', 0))
	require.NoError(t, st.eliminate('B', 1))
	require.NoError(t, st.eliminate('B', 2))
	err := st.validate()
	require.ErrorIs(t, err, ErrStateInconsistent)
}
