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
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/AleutianAI/sonar/cmd/sonar/config"
	"github.com/AleutianAI/sonar/pkg/ux"
	"github.com/AleutianAI/sonar/services/history"
	"github.com/spf13/cobra"
)

// mustOpenHistory opens the ledger or exits. History commands make no
// sense without it, so a disabled store is fatal here rather than a
// silent skip.
func mustOpenHistory() *history.Store {
	if config.Global.History.Disabled {
		log.Fatalf("History is disabled in the config")
	}
	store, err := history.Open(history.DefaultConfig(config.Global.History.Path))
	if err != nil {
		log.Fatalf("Failed to open history at %s: %v", config.Global.History.Path, err)
	}
	return store
}

func runHistoryList(cmd *cobra.Command, args []string) {
	store := mustOpenHistory()
	defer store.Close()

	recs, err := store.List(context.Background(), historyLimit)
	if err != nil {
		log.Fatalf("Failed to list history: %v", err)
	}

	if machineOutput() {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(recs); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if len(recs) == 0 {
		ux.Info("No recorded runs yet. Try 'sonar solve' or 'sonar bench'.")
		return
	}

	fmt.Printf("%-36s  %-19s  %-6s  %6s  %7s  %s\n",
		"ID", "STARTED", "SOURCE", "LENGTH", "QUERIES", "RESULT")
	for _, rec := range recs {
		result := rec.Code
		if !rec.Success {
			result = "failed: " + truncateString(rec.Error, 40)
		}
		fmt.Printf("%-36s  %-19s  %-6s  %6d  %7d  %s\n",
			rec.ID,
			rec.StartedAt.Format("2006-01-02 15:04:05"),
			rec.Source,
			rec.Length,
			rec.Queries,
			result)
	}
}

func runHistoryShow(cmd *cobra.Command, args []string) {
	store := mustOpenHistory()
	defer store.Close()

	rec, err := store.Get(context.Background(), args[0])
	if errors.Is(err, history.ErrNotFound) {
		log.Fatalf("No recorded run with ID %s", args[0])
	}
	if err != nil {
		log.Fatalf("Failed to read the run: %v", err)
	}

	if machineOutput() {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(rec); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}

	status := ux.IconSuccess.Render() + " recovered"
	if !rec.Success {
		status = ux.IconError.Render() + " failed"
	}

	fmt.Printf("Run:          %s\n", rec.ID)
	fmt.Printf("Started:      %s\n", rec.StartedAt.Format(time.RFC3339))
	fmt.Printf("Source:       %s\n", rec.Source)
	fmt.Printf("Status:       %s\n", status)
	if rec.Success {
		fmt.Printf("Code:         %s\n", rec.Code)
	} else if rec.Error != "" {
		fmt.Printf("Error:        %s\n", rec.Error)
	}
	fmt.Printf("Length:       %d\n", rec.Length)
	fmt.Printf("Queries:      %d\n", rec.Queries)
	if rec.Redetections > 0 {
		fmt.Printf("Redetections: %d\n", rec.Redetections)
	}
	fmt.Printf("Duration:     %s\n", rec.Duration.Round(time.Millisecond))
}
