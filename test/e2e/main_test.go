// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package e2e

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var cliBinary string

// TestMain builds the sonar binary once for the whole package. Set
// SONAR_E2E_BINARY to point the tests at a prebuilt binary instead.
func TestMain(m *testing.M) {
	if prebuilt := os.Getenv("SONAR_E2E_BINARY"); prebuilt != "" {
		cliBinary = prebuilt
		os.Exit(m.Run())
	}

	dir, err := os.MkdirTemp("", "sonar-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating build dir: %v\n", err)
		os.Exit(1)
	}
	cliBinary = filepath.Join(dir, "sonar")

	build := exec.Command("go", "build", "-o", cliBinary, "../../cmd/sonar")
	if out, err := build.CombinedOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "building the sonar binary: %v\n%s", err, out)
		os.RemoveAll(dir)
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// sonarEnv builds the environment for a CLI invocation, pointing HOME
// at a sandbox dir so the first-run config and the history store never
// touch the real user profile.
func sonarEnv(home string) []string {
	return append(os.Environ(),
		"HOME="+home,
		"SONAR_INSECURE_MEMORY=true",
		"SONAR_PERSONALITY=machine",
	)
}

// extractJSON returns the output from the first opening brace or
// bracket. First-run invocations print a config-creation notice before
// any JSON payload.
func extractJSON(output string) string {
	for i := 0; i < len(output); i++ {
		if output[i] == '{' || output[i] == '[' {
			return output[i:]
		}
	}
	return output
}
