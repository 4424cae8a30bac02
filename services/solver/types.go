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
	"time"

	"github.com/AleutianAI/sonar/services/oracle"
	"github.com/AleutianAI/sonar/services/solver/events"
)

const (
	// DefaultMaxLength is the deepest secret length probed during
	// detection. It matches the oracle contract's documented bound.
	DefaultMaxLength = oracle.MaxSecretLength

	// DefaultRedetectLimit is how many times a run restarts length
	// discovery after the oracle rejects a post-discovery probe's
	// length.
	DefaultRedetectLimit = 1
)

// Config carries the tunable parameters of a solve run.
type Config struct {
	// Alphabet is the letter set probed, in canonical tie-break order.
	// Empty selects oracle.DefaultAlphabet.
	Alphabet string

	// MaxLength bounds length discovery, in [1, oracle.MaxSecretLength].
	// Zero selects DefaultMaxLength.
	MaxLength int

	// RedetectLimit bounds length re-discoveries per run. Zero means a
	// post-discovery length rejection is immediately fatal.
	RedetectLimit int

	// Events receives the run's observation stream. Nil discards it.
	Events events.Publisher
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Alphabet:      oracle.DefaultAlphabet,
		MaxLength:     DefaultMaxLength,
		RedetectLimit: DefaultRedetectLimit,
	}
}

func (c *Config) applyDefaults() {
	if c.Alphabet == "" {
		c.Alphabet = oracle.DefaultAlphabet
	}
	if c.MaxLength == 0 {
		c.MaxLength = DefaultMaxLength
	}
	if c.Events == nil {
		c.Events = events.Nop()
	}
}

func (c *Config) validate() error {
	if c.MaxLength < 1 || c.MaxLength > oracle.MaxSecretLength {
		return fmt.Errorf("%w: max length %d outside [1,%d]",
			ErrInvalidInput, c.MaxLength, oracle.MaxSecretLength)
	}
	if c.RedetectLimit < 0 {
		return fmt.Errorf("%w: negative redetect limit %d", ErrInvalidInput, c.RedetectLimit)
	}
	return nil
}

// Result is the outcome of a successful run.
type Result struct {
	// Code is the recovered secret.
	Code string `json:"code"`

	// Length is the secret's length.
	Length int `json:"length"`

	// Counts maps every alphabet letter to its occurrence count in
	// Code.
	Counts map[string]int `json:"counts"`

	// Queries is the number of oracle evaluations consumed, across
	// redetections if any.
	Queries int `json:"queries"`

	// Duration is the wall-clock solve time.
	Duration time.Duration `json:"duration"`

	// ShortCircuit reports whether the run resolved on the
	// single-letter path, before any candidate was built.
	ShortCircuit bool `json:"short_circuit"`

	// Redetections is how many times length discovery restarted.
	Redetections int `json:"redetections"`
}
