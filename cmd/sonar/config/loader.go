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
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// Global holds the process-wide configuration after Load.
	Global SonarConfig

	loadOnce sync.Once
)

// Load reads the configuration into Global exactly once per process.
//
// The file lives at ~/.sonar/sonar.yaml unless SONAR_CONFIG points
// somewhere else. A missing file is written out from DefaultConfig
// first, so every run after the first starts from a file the user can
// edit.
func Load() error {
	var err error
	loadOnce.Do(func() {
		var path string
		if path, err = configPath(); err == nil {
			err = loadFrom(path)
		}
	})
	return err
}

// configPath resolves where the config file lives.
func configPath() (string, error) {
	if p := os.Getenv("SONAR_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".sonar", "sonar.yaml"), nil
}

func loadFrom(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// The notice goes to stderr so a piped first run stays parseable.
		fmt.Fprintf(os.Stderr, "First run detected, creating the config at %s\n", path)
		if err := createDefault(path); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read the config file: %w", err)
	}

	// Unmarshal over the defaults so keys absent from the file keep
	// their default values instead of dropping to zero.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config at %s: %w", path, err)
	}

	// Global changes only once the new config is known good.
	Global = cfg
	return nil
}

func createDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
