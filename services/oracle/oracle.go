// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package oracle defines the guess-evaluation contract used by the solver
// and provides a local in-process implementation that keeps its secret in
// locked memory.
//
// An oracle holds a hidden string over a fixed alphabet and answers each
// guess with the number of positions where the guess matches the secret
// exactly, or a sentinel when the guess is malformed. The solver treats
// the oracle as a black box; the only implementations in this repository
// are Local (in-process) and httpapi.Client (remote over HTTP).
package oracle

import (
	"context"
	"fmt"
	"strings"
)

const (
	// DefaultAlphabet is the canonical letter set. The order is load-bearing:
	// the solver breaks frequency ties by position in this string.
	DefaultAlphabet = "BACXIU"

	// MaxSecretLength is the longest secret any oracle in this repository
	// will hold. The solver's length discovery probes up to this bound and
	// no further.
	MaxSecretLength = 18
)

// Sentinel values returned by Evaluate in place of a match count.
const (
	// MatchInvalidAlphabet reports a guess containing a letter outside the
	// oracle's alphabet. Alphabet validation runs before length validation.
	MatchInvalidAlphabet = -1

	// MatchWrongLength reports a guess whose length differs from the
	// secret's length.
	MatchWrongLength = -2
)

// Oracle answers guesses against a hidden secret.
//
// Description:
//
//	Evaluate returns MatchInvalidAlphabet if any letter of the guess is
//	outside the alphabet, MatchWrongLength if the guess length differs
//	from the secret length, and otherwise the count of positions where
//	guess and secret agree, in [0, secret length]. A count equal to the
//	guess length means the guess is the secret; the oracle reports it
//	like any other count and never terminates the caller.
//
//	The error return is reserved for transport and lifecycle failures
//	(context cancellation, closed oracle, unreachable server). Contract
//	outcomes, including the sentinels, arrive through the count.
//
// Thread Safety:
//
//	Implementations must be safe for concurrent use.
type Oracle interface {
	Evaluate(ctx context.Context, guess string) (int, error)
}

// QueryCounter is implemented by oracles that track how many times they
// have been evaluated.
type QueryCounter interface {
	Queries() uint64
}

// ValidateAlphabet checks that alphabet is usable: at least two distinct
// uppercase ASCII letters, no repeats.
func ValidateAlphabet(alphabet string) error {
	if len(alphabet) < 2 {
		return fmt.Errorf("%w: need at least 2 letters, got %d", ErrInvalidAlphabet, len(alphabet))
	}
	if len(alphabet) > 26 {
		return fmt.Errorf("%w: %d letters exceeds 26", ErrInvalidAlphabet, len(alphabet))
	}
	for i := 0; i < len(alphabet); i++ {
		c := alphabet[i]
		if c < 'A' || c > 'Z' {
			return fmt.Errorf("%w: %q is not an uppercase ASCII letter", ErrInvalidAlphabet, string(c))
		}
		if strings.IndexByte(alphabet[:i], c) >= 0 {
			return fmt.Errorf("%w: letter %q repeats", ErrInvalidAlphabet, string(c))
		}
	}
	return nil
}

// ValidateSecret checks that secret can be served against the given
// alphabet: non-empty, at most MaxSecretLength letters, every letter in
// the alphabet.
func ValidateSecret(secret, alphabet string) error {
	if secret == "" {
		return ErrEmptySecret
	}
	if len(secret) > MaxSecretLength {
		return fmt.Errorf("%w: %d letters, limit %d", ErrSecretTooLong, len(secret), MaxSecretLength)
	}
	for i := 0; i < len(secret); i++ {
		if strings.IndexByte(alphabet, secret[i]) < 0 {
			return fmt.Errorf("%w: letter %q at position %d", ErrInvalidSecret, string(secret[i]), i)
		}
	}
	return nil
}
