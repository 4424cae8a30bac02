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

import "errors"

// Sentinel errors for the solver package. Everything except
// ErrInvalidInput and ErrLengthConflict is fatal to the run: it names a
// violated invariant and no partial result is claimed.
var (
	// ErrInvalidInput indicates invalid constructor or config parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLengthNotFound indicates no valid length up to the maximum. The
	// oracle is violating its documented length bound.
	ErrLengthNotFound = errors.New("secret length not found")

	// ErrLengthConflict indicates the oracle rejected a probe's length
	// after discovery, meaning its secret changed between calls. Bounded
	// redetection retries this before it becomes fatal.
	ErrLengthConflict = errors.New("secret length conflict")

	// ErrInvalidProbe indicates the oracle rejected a solver-built
	// probe's alphabet. Probes are constructed from the configured
	// alphabet, so this is an internal consistency failure.
	ErrInvalidProbe = errors.New("invalid probe")

	// ErrCountSumMismatch indicates the measured letter counts do not
	// sum to the secret length.
	ErrCountSumMismatch = errors.New("letter count sum mismatch")

	// ErrUnexpectedDelta indicates a single-substitution probe moved the
	// match count by more than one.
	ErrUnexpectedDelta = errors.New("unexpected match delta")

	// ErrRefinementStall indicates a full refinement pass over the open
	// positions confirmed nothing.
	ErrRefinementStall = errors.New("refinement stalled")

	// ErrStateInconsistent indicates the working state violated one of
	// its invariants.
	ErrStateInconsistent = errors.New("solver state inconsistent")
)
