// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/AleutianAI/sonar/cmd/sonar/config"
	"github.com/AleutianAI/sonar/pkg/ux"
	"github.com/AleutianAI/sonar/services/oracle/httpapi"
	"github.com/spf13/cobra"
)

func runCrackCommand(cmd *cobra.Command, args []string) {
	base := serverURL
	if len(args) > 0 {
		base = args[0]
	}
	if base == "" {
		base = fmt.Sprintf("http://localhost:%d", config.Global.Oracle.Port)
	}

	rate := rateLimit
	if rate == 0 {
		rate = config.Global.Oracle.RateLimit
	}
	burst := rateBurst
	if burst == 0 {
		burst = config.Global.Oracle.Burst
	}

	var opts []httpapi.ClientOption
	if rate > 0 {
		opts = append(opts, httpapi.WithRateLimit(rate, burst))
	}
	client, err := httpapi.NewClient(base, opts...)
	if err != nil {
		log.Fatalf("Invalid oracle server URL %q: %v", base, err)
	}

	// Confirm the target answers before spending probes on it.
	ctx := context.Background()
	spin := ux.NewSpinner(fmt.Sprintf("Hailing oracle at %s", base))
	spin.Start()
	health, err := client.Health(ctx)
	if err != nil {
		spin.Stop()
		log.Fatalf("Oracle server unreachable at %s: %v", base, err)
	}
	spin.Stop()
	if ux.ShouldShowProgress() {
		ux.Info(fmt.Sprintf("Contact at %s: %s, %d queries served", base, health.Status, health.Queries))
		if rate > 0 {
			ux.Muted(fmt.Sprintf("Throttled to %.1f queries/sec", rate))
		}
	}

	executeSolve(ctx, client, base, "remote")
}
