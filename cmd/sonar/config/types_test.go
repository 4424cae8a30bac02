// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package config contains unit tests for configuration types.

# Testing Strategy

These tests verify:
  - Default values are correctly applied
  - Validation accepts the defaults and rejects out-of-range values
  - The custom alphabet validator delegates to the oracle rules
*/
package config

import (
	"strings"
	"testing"

	"github.com/AleutianAI/sonar/services/oracle"
)

// -----------------------------------------------------------------------------
// DefaultConfig Tests
// -----------------------------------------------------------------------------

// TestDefaultConfig_OracleDefaults verifies oracle configuration.
func TestDefaultConfig_OracleDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Oracle.Port != 12280 {
		t.Errorf("Oracle.Port = %d, want %d", cfg.Oracle.Port, 12280)
	}

	if cfg.Oracle.RateLimit != 0 {
		t.Errorf("Oracle.RateLimit = %f, want 0", cfg.Oracle.RateLimit)
	}

	if cfg.Oracle.SecretFile != "" {
		t.Errorf("Oracle.SecretFile = %q, want empty", cfg.Oracle.SecretFile)
	}
}

// TestDefaultConfig_SolverDefaults verifies solver configuration.
func TestDefaultConfig_SolverDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Solver.Alphabet != oracle.DefaultAlphabet {
		t.Errorf("Solver.Alphabet = %q, want %q",
			cfg.Solver.Alphabet, oracle.DefaultAlphabet)
	}

	if cfg.Solver.MaxLength != oracle.MaxSecretLength {
		t.Errorf("Solver.MaxLength = %d, want %d",
			cfg.Solver.MaxLength, oracle.MaxSecretLength)
	}

	if cfg.Solver.RedetectLimit != 1 {
		t.Errorf("Solver.RedetectLimit = %d, want %d", cfg.Solver.RedetectLimit, 1)
	}
}

// TestDefaultConfig_HistoryDefaults verifies history configuration.
func TestDefaultConfig_HistoryDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.History.Path == "" {
		t.Error("History.Path should not be empty")
	}

	if !strings.Contains(cfg.History.Path, "history") {
		t.Errorf("History.Path = %q, expected a history directory", cfg.History.Path)
	}

	if cfg.History.Disabled {
		t.Error("History.Disabled should be false by default")
	}
}

// TestDefaultConfig_TelemetryDefaults verifies telemetry configuration.
func TestDefaultConfig_TelemetryDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Telemetry.TraceExporter != "none" {
		t.Errorf("Telemetry.TraceExporter = %q, want %q",
			cfg.Telemetry.TraceExporter, "none")
	}

	if cfg.Telemetry.MetricExporter != "none" {
		t.Errorf("Telemetry.MetricExporter = %q, want %q",
			cfg.Telemetry.MetricExporter, "none")
	}

	if cfg.Telemetry.OTLPEndpoint != "localhost:4317" {
		t.Errorf("Telemetry.OTLPEndpoint = %q, want %q",
			cfg.Telemetry.OTLPEndpoint, "localhost:4317")
	}
}

// TestDefaultConfig_LoggingDefaults verifies logging configuration.
func TestDefaultConfig_LoggingDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}

	if cfg.Logging.JSON {
		t.Error("Logging.JSON should be false by default")
	}
}

// -----------------------------------------------------------------------------
// Validation Tests
// -----------------------------------------------------------------------------

// TestValidate_DefaultsPass verifies the default config validates cleanly.
func TestValidate_DefaultsPass(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults failed: %v", err)
	}
}

// TestValidate_RejectsBadValues verifies out-of-range fields are caught.
func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SonarConfig)
	}{
		{
			name:   "port zero",
			mutate: func(c *SonarConfig) { c.Oracle.Port = 0 },
		},
		{
			name:   "port too large",
			mutate: func(c *SonarConfig) { c.Oracle.Port = 70000 },
		},
		{
			name:   "negative rate limit",
			mutate: func(c *SonarConfig) { c.Oracle.RateLimit = -1 },
		},
		{
			name:   "max length zero",
			mutate: func(c *SonarConfig) { c.Solver.MaxLength = 0 },
		},
		{
			name:   "max length over cap",
			mutate: func(c *SonarConfig) { c.Solver.MaxLength = 50 },
		},
		{
			name:   "lowercase alphabet",
			mutate: func(c *SonarConfig) { c.Solver.Alphabet = "bacxiu" },
		},
		{
			name:   "duplicate alphabet letters",
			mutate: func(c *SonarConfig) { c.Solver.Alphabet = "BAB" },
		},
		{
			name:   "unknown log level",
			mutate: func(c *SonarConfig) { c.Logging.Level = "verbose" },
		},
		{
			name:   "unknown trace exporter",
			mutate: func(c *SonarConfig) { c.Telemetry.TraceExporter = "jaeger" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should have failed")
			}
		})
	}
}

// TestValidate_EmptyAlphabetAllowed verifies omitempty on the alphabet tag.
//
// An empty alphabet in the file means "use the built-in default"; the
// commands substitute oracle.DefaultAlphabet before running.
func TestValidate_EmptyAlphabetAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Solver.Alphabet = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with empty alphabet failed: %v", err)
	}
}

// TestValidate_CustomAlphabetAccepted verifies non-default alphabets pass.
func TestValidate_CustomAlphabetAccepted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Solver.Alphabet = "ZYXW"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with alphabet ZYXW failed: %v", err)
	}
}
