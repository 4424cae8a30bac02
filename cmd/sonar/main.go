// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// The sonar command recovers hidden codes from a counting oracle. Run
// "sonar solve" against an in-process oracle, "sonar serve" to host the
// oracle over HTTP, or "sonar crack" to attack a remote one.
package main

import "os"

func main() {
	// Cobra prints its own parse errors with usage before Execute
	// returns, so the only job left here is the exit code.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
