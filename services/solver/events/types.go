// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package events carries the solver's observation stream.
//
// The solver core performs no I/O of its own. Every externally visible
// step of a run (probes issued, length detected, positions confirmed,
// letters eliminated) is published as a typed event through an
// injectable Publisher. The console reporter, the live TUI, and the
// websocket stream all subscribe to the same emitter without coupling
// to solver internals.
//
// Thread Safety:
//
//	All types in this package are designed for concurrent use.
package events

import "time"

// Type identifies the kind of event.
type Type string

const (
	// TypeSolveStarted is emitted once when a run begins.
	TypeSolveStarted Type = "solve_started"

	// TypeProbeIssued is emitted for every oracle query, with its answer.
	TypeProbeIssued Type = "probe_issued"

	// TypeLengthDetected is emitted when the secret length is discovered.
	TypeLengthDetected Type = "length_detected"

	// TypeLetterMeasured is emitted when a letter's occurrence count is
	// measured.
	TypeLetterMeasured Type = "letter_measured"

	// TypeShortCircuit is emitted when the secret resolves as a single
	// repeated letter during detection or profiling.
	TypeShortCircuit Type = "single_letter_short_circuit"

	// TypeCandidateSeeded is emitted when the initial candidate string is
	// built and its baseline measured.
	TypeCandidateSeeded Type = "candidate_seeded"

	// TypeGroupAssigned is emitted when group location proves a set of
	// positions all hold one letter.
	TypeGroupAssigned Type = "group_assigned"

	// TypeLetterEliminated is emitted when positions are proven not to
	// hold a letter.
	TypeLetterEliminated Type = "letter_eliminated"

	// TypePositionConfirmed is emitted for each single position proven.
	TypePositionConfirmed Type = "position_confirmed"

	// TypeForcedFill is emitted when all open positions are assigned to
	// the only letter that can still fill them.
	TypeForcedFill Type = "forced_fill"

	// TypeBaselineRefreshed is emitted after a bulk mutation re-measures
	// the full-candidate baseline.
	TypeBaselineRefreshed Type = "baseline_refreshed"

	// TypeLengthConflict is emitted when the oracle rejects a probe's
	// length after discovery and the run restarts detection.
	TypeLengthConflict Type = "length_conflict"

	// TypeSolveCompleted is emitted once when the secret is recovered.
	TypeSolveCompleted Type = "solve_completed"

	// TypeSolveFailed is emitted once when the run aborts.
	TypeSolveFailed Type = "solve_failed"
)

// Phase names carried by probe and elimination events.
const (
	PhaseDetect  = "detect"
	PhaseProfile = "profile"
	PhaseSeed    = "seed"
	PhaseLocate  = "locate"
	PhaseRefine  = "refine"
)

// Event is one observation from a solve run.
//
// The Data field holds the typed payload matching the event's Type
// (ProbeIssuedData for TypeProbeIssued, and so on). Events should be
// treated as immutable after creation.
type Event struct {
	// ID is a unique identifier for this event.
	ID string `json:"id"`

	// Type identifies the kind of event.
	Type Type `json:"type"`

	// RunID links the event to one solve run.
	RunID string `json:"run_id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Step is the oracle query count at the time of the event.
	Step int `json:"step"`

	// Data is the type-specific payload.
	Data any `json:"data,omitempty"`
}

// SolveStartedData is the payload for TypeSolveStarted.
type SolveStartedData struct {
	// Alphabet is the letter set the run probes with.
	Alphabet string `json:"alphabet"`

	// MaxLength is the deepest length the run will probe for.
	MaxLength int `json:"max_length"`
}

// ProbeIssuedData is the payload for TypeProbeIssued.
type ProbeIssuedData struct {
	// Sequence is the 1-based query number within the run.
	Sequence int `json:"sequence"`

	// Guess is the probe string sent to the oracle.
	Guess string `json:"guess"`

	// Matches is the oracle's answer, including sentinels.
	Matches int `json:"matches"`

	// Phase names the solver stage that issued the probe.
	Phase string `json:"phase"`
}

// LengthDetectedData is the payload for TypeLengthDetected.
type LengthDetectedData struct {
	// Length is the discovered secret length.
	Length int `json:"length"`

	// BaseLetter is the letter used for the length probes.
	BaseLetter string `json:"base_letter"`

	// BaseCount is the base letter's occurrence count, measured for free.
	BaseCount int `json:"base_count"`

	// Probes is how many length probes discovery consumed.
	Probes int `json:"probes"`
}

// LetterMeasuredData is the payload for TypeLetterMeasured.
type LetterMeasuredData struct {
	// Letter is the measured letter.
	Letter string `json:"letter"`

	// Count is its total occurrence count in the secret.
	Count int `json:"count"`
}

// ShortCircuitData is the payload for TypeShortCircuit.
type ShortCircuitData struct {
	// Letter is the single letter the secret repeats.
	Letter string `json:"letter"`

	// Length is the secret length.
	Length int `json:"length"`
}

// CandidateSeededData is the payload for TypeCandidateSeeded.
type CandidateSeededData struct {
	// Candidate is the frequency-ordered starting guess.
	Candidate string `json:"candidate"`

	// Baseline is the candidate's measured match count.
	Baseline int `json:"baseline"`
}

// GroupAssignedData is the payload for TypeGroupAssigned.
type GroupAssignedData struct {
	// Letter is the letter proven at the positions.
	Letter string `json:"letter"`

	// Positions are the confirmed position indexes, ascending.
	Positions []int `json:"positions"`
}

// LetterEliminatedData is the payload for TypeLetterEliminated.
type LetterEliminatedData struct {
	// Letter is the letter proven absent at the positions.
	Letter string `json:"letter"`

	// Positions are the eliminated position indexes, ascending.
	Positions []int `json:"positions"`

	// Phase names the solver stage that proved the elimination.
	Phase string `json:"phase"`
}

// PositionConfirmedData is the payload for TypePositionConfirmed.
type PositionConfirmedData struct {
	// Position is the confirmed index.
	Position int `json:"position"`

	// Letter is the letter proven at that index.
	Letter string `json:"letter"`

	// Open is the number of positions still unconfirmed afterwards.
	Open int `json:"open"`
}

// ForcedFillData is the payload for TypeForcedFill.
type ForcedFillData struct {
	// Letter is the only letter that can fill the open positions.
	Letter string `json:"letter"`

	// Positions are the filled position indexes, ascending.
	Positions []int `json:"positions"`
}

// BaselineRefreshedData is the payload for TypeBaselineRefreshed.
type BaselineRefreshedData struct {
	// Baseline is the re-measured full-candidate match count.
	Baseline int `json:"baseline"`
}

// LengthConflictData is the payload for TypeLengthConflict.
type LengthConflictData struct {
	// Attempt is the 1-based redetection attempt about to start.
	Attempt int `json:"attempt"`

	// Limit is the configured redetection bound.
	Limit int `json:"limit"`
}

// SolveCompletedData is the payload for TypeSolveCompleted.
type SolveCompletedData struct {
	// Code is the recovered secret.
	Code string `json:"code"`

	// Length is the secret length.
	Length int `json:"length"`

	// Queries is the total oracle queries the run consumed.
	Queries int `json:"queries"`

	// Duration is the wall-clock run time.
	Duration time.Duration `json:"duration"`

	// ShortCircuit reports whether the single-letter path resolved the
	// run during detection or profiling.
	ShortCircuit bool `json:"short_circuit"`
}

// SolveFailedData is the payload for TypeSolveFailed.
type SolveFailedData struct {
	// Error is the failure message, naming the violated invariant.
	Error string `json:"error"`

	// Queries is the total oracle queries consumed before the abort.
	Queries int `json:"queries"`
}
