// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package httpapi

// ServiceVersion is the oracle service version.
const ServiceVersion = "0.1.0"

// EvaluateRequest asks the oracle to score one guess.
type EvaluateRequest struct {
	// Guess is the candidate string to score.
	Guess string `json:"guess" binding:"required"`
}

// EvaluateResponse carries the oracle's answer.
type EvaluateResponse struct {
	// Matches is the exact-position match count, or one of the
	// sentinels: -1 for an off-alphabet guess, -2 for a wrong length.
	Matches int `json:"matches"`

	// Queries is the oracle's total evaluation count so far.
	Queries uint64 `json:"queries"`
}

// RotateRequest replaces the hosted secret.
type RotateRequest struct {
	Secret string `json:"secret" binding:"required"`
}

// RotateResponse confirms a rotation.
type RotateResponse struct {
	Status string `json:"status"`
	Length int    `json:"length"`
}

// SolveRequest configures a server-side solve run. All fields are
// optional; zero values select the solver defaults.
type SolveRequest struct {
	Alphabet      string `json:"alphabet,omitempty"`
	MaxLength     int    `json:"max_length,omitempty"`
	RedetectLimit int    `json:"redetect_limit,omitempty"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`

	// SecretLength is the hosted secret's length, zero once closed.
	SecretLength int `json:"secret_length"`

	// Queries is the oracle's total evaluation count.
	Queries uint64 `json:"queries"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`
}
