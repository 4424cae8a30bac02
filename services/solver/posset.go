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
	"math/bits"
	"strings"
)

// PositionSet is a fixed-capacity set of position indexes backed by a
// bit vector.
//
// Description:
//
//	The solver tracks, for every letter, which positions could still
//	hold it. Those sets shrink monotonically as probes land, and the
//	group locator repeatedly splits them in half. A bit vector keeps
//	membership tests, population counts, and splits cheap at the
//	lengths involved.
//
// Thread Safety: Not safe for concurrent use.
type PositionSet struct {
	words []uint64
	size  int
}

// NewPositionSet creates an empty set over positions [0, size).
func NewPositionSet(size int) *PositionSet {
	if size < 0 {
		panic(fmt.Sprintf("positionset: negative size %d", size))
	}
	return &PositionSet{
		words: make([]uint64, (size+63)/64),
		size:  size,
	}
}

func (s *PositionSet) check(pos int) {
	if pos < 0 || pos >= s.size {
		panic(fmt.Sprintf("positionset: position %d out of range [0,%d)", pos, s.size))
	}
}

// Add inserts pos into the set.
func (s *PositionSet) Add(pos int) {
	s.check(pos)
	s.words[pos/64] |= 1 << (pos % 64)
}

// Remove deletes pos from the set. Removing an absent position is a
// no-op.
func (s *PositionSet) Remove(pos int) {
	s.check(pos)
	s.words[pos/64] &^= 1 << (pos % 64)
}

// Contains reports whether pos is a member.
func (s *PositionSet) Contains(pos int) bool {
	s.check(pos)
	return s.words[pos/64]&(1<<(pos%64)) != 0
}

// Fill inserts every position in [0, size).
func (s *PositionSet) Fill() {
	for i := range s.words {
		s.words[i] = ^uint64(0)
	}
	if rem := s.size % 64; rem != 0 && len(s.words) > 0 {
		s.words[len(s.words)-1] = (1 << rem) - 1
	}
}

// Count returns the number of members.
func (s *PositionSet) Count() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Empty reports whether the set has no members.
func (s *PositionSet) Empty() bool {
	for _, w := range s.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Size returns the set's capacity, the exclusive upper bound on member
// values.
func (s *PositionSet) Size() int {
	return s.size
}

// Positions returns the members in ascending order.
func (s *PositionSet) Positions() []int {
	out := make([]int, 0, s.Count())
	for i, w := range s.words {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			out = append(out, i*64+tz)
			w &^= 1 << tz
		}
	}
	return out
}

// Clone returns an independent copy.
func (s *PositionSet) Clone() *PositionSet {
	c := &PositionSet{
		words: make([]uint64, len(s.words)),
		size:  s.size,
	}
	copy(c.words, s.words)
	return c
}

// Equal reports whether both sets have the same capacity and members.
func (s *PositionSet) Equal(o *PositionSet) bool {
	if s.size != o.size {
		return false
	}
	for i := range s.words {
		if s.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// Split partitions the set by position index: the lower half holds the
// first half of the members (rounding up), the upper half the rest.
// The receiver is left unchanged.
func (s *PositionSet) Split() (lower, upper *PositionSet) {
	lower = NewPositionSet(s.size)
	upper = NewPositionSet(s.size)
	take := (s.Count() + 1) / 2
	for _, pos := range s.Positions() {
		if take > 0 {
			lower.Add(pos)
			take--
		} else {
			upper.Add(pos)
		}
	}
	return lower, upper
}

// String renders the members as "{0, 3, 7}".
func (s *PositionSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, pos := range s.Positions() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d", pos)
	}
	b.WriteByte('}')
	return b.String()
}
