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
	"github.com/AleutianAI/sonar/services/oracle"
)

// alphabet indexes the letter set. Slice order is canonical order: the
// first letter drives length detection and ties break toward earlier
// letters everywhere.
type alphabet struct {
	letters []byte
	index   [256]int8
}

func newAlphabet(s string) (*alphabet, error) {
	if err := oracle.ValidateAlphabet(s); err != nil {
		return nil, err
	}
	a := &alphabet{letters: []byte(s)}
	for i := range a.index {
		a.index[i] = -1
	}
	for i, c := range a.letters {
		a.index[c] = int8(i)
	}
	return a, nil
}

func (a *alphabet) size() int {
	return len(a.letters)
}

// letter returns the letter at canonical index i.
func (a *alphabet) letter(i int) byte {
	return a.letters[i]
}

// indexOf returns a letter's canonical index, or -1 when absent.
func (a *alphabet) indexOf(c byte) int {
	return int(a.index[c])
}

func (a *alphabet) String() string {
	return string(a.letters)
}
