// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"

	"github.com/AleutianAI/sonar/services/oracle"
	"github.com/go-playground/validator/v10"
)

// configValidate is the validator instance for config types.
// Initialized in init() with custom validators.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()

	_ = configValidate.RegisterValidation("alphabet", validateAlphabetTag)
}

// validateAlphabetTag accepts any string oracle.ValidateAlphabet accepts.
func validateAlphabetTag(fl validator.FieldLevel) bool {
	return oracle.ValidateAlphabet(fl.Field().String()) == nil
}

type SonarConfig struct {
	// Oracle: serving and remote-oracle settings
	Oracle OracleConfig `yaml:"oracle"`

	// Solver: defaults applied to every run unless overridden by flags
	Solver SolverConfig `yaml:"solver"`

	// History: local run archive
	History HistoryConfig `yaml:"history"`

	// Logging: structured log destinations
	Logging LoggingConfig `yaml:"logging"`

	// Telemetry: trace and metric exporters for serve mode
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type OracleConfig struct {
	// Port the serve command listens on.
	Port int `yaml:"port" validate:"min=1,max=65535"`

	// SecretFile is watched for rotations when set.
	SecretFile string `yaml:"secret_file,omitempty"`

	// RateLimit caps client-side queries per second against a remote
	// oracle. Zero means unlimited.
	RateLimit float64 `yaml:"rate_limit" validate:"min=0"`

	// Burst is the client-side rate limiter burst size.
	Burst int `yaml:"burst" validate:"min=0"`
}

type SolverConfig struct {
	// Alphabet is the probe letter set, uppercase without repeats.
	Alphabet string `yaml:"alphabet" validate:"omitempty,alphabet"`

	// MaxLength bounds length discovery.
	MaxLength int `yaml:"max_length" validate:"min=1,max=18"`

	// RedetectLimit bounds length re-discoveries per run.
	RedetectLimit int `yaml:"redetect_limit" validate:"min=0"`
}

type HistoryConfig struct {
	// Path is the badger directory holding past runs.
	Path string `yaml:"path"`

	// Disabled turns off run recording entirely.
	Disabled bool `yaml:"disabled"`
}

type LoggingConfig struct {
	// Level can be "debug", "info", "warn", or "error".
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`

	// Dir enables file logging when set.
	Dir string `yaml:"dir,omitempty"`

	// JSON switches stderr output to machine-parseable JSON.
	JSON bool `yaml:"json"`
}

type TelemetryConfig struct {
	// TraceExporter can be "none", "otlp", or "stdout".
	TraceExporter string `yaml:"trace_exporter" validate:"omitempty,oneof=none otlp stdout"`

	// MetricExporter can be "none", "prometheus", or "stdout".
	MetricExporter string `yaml:"metric_exporter" validate:"omitempty,oneof=none prometheus stdout"`

	// OTLPEndpoint is the collector address for the otlp exporter.
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
}

// Validate checks the loaded configuration against its constraints.
func (c *SonarConfig) Validate() error {
	return configValidate.Struct(c)
}

func DefaultConfig() SonarConfig {
	historyPath := "sonar-history"
	if home, err := os.UserHomeDir(); err == nil {
		historyPath = filepath.Join(home, ".sonar", "history")
	}

	return SonarConfig{
		Oracle: OracleConfig{
			Port:      12280,
			RateLimit: 0,
			Burst:     0,
		},
		Solver: SolverConfig{
			Alphabet:      oracle.DefaultAlphabet,
			MaxLength:     oracle.MaxSecretLength,
			RedetectLimit: 1,
		},
		History: HistoryConfig{
			Path: historyPath,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "none",
			OTLPEndpoint:   "localhost:4317",
		},
	}
}
