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
	"math/rand/v2"
	"os"
	"time"

	"github.com/AleutianAI/sonar/cmd/sonar/config"
	"github.com/AleutianAI/sonar/pkg/logging"
	"github.com/AleutianAI/sonar/pkg/ux"
	"github.com/AleutianAI/sonar/services/history"
	"github.com/AleutianAI/sonar/services/oracle"
	"github.com/AleutianAI/sonar/services/solver"
)

// logger is the process-wide structured logger, set by the root
// command's PersistentPreRun before any handler runs.
var logger *logging.Logger

func initLogging() {
	cfg := config.Global.Logging
	logger = logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Level),
		LogDir:  cfg.Dir,
		Service: "cli",
		JSON:    cfg.JSON,
	})
	// Services log through the bare slog functions; route those to the
	// same destinations as the command layer.
	logger.Install()
}

// resolveSecret finds the secret for commands that arm a local oracle.
//
// Precedence: --secret flag, --secret-file, SONAR_SECRET environment
// variable.
func resolveSecret() (string, error) {
	if secretValue != "" {
		return secretValue, nil
	}
	if secretFile != "" {
		return oracle.LoadSecretFile(secretFile)
	}
	if env := os.Getenv("SONAR_SECRET"); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("no secret provided: use --secret, --secret-file, or set SONAR_SECRET")
}

// randomSecret draws n letters uniformly from alpha.
func randomSecret(alpha string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alpha[rand.IntN(len(alpha))]
	}
	return string(b)
}

// effectiveAlphabet resolves flag > config > built-in default.
func effectiveAlphabet() string {
	if alphabetFlag != "" {
		return alphabetFlag
	}
	if config.Global.Solver.Alphabet != "" {
		return config.Global.Solver.Alphabet
	}
	return oracle.DefaultAlphabet
}

func effectiveMaxLength() int {
	if maxLength > 0 {
		return maxLength
	}
	if config.Global.Solver.MaxLength > 0 {
		return config.Global.Solver.MaxLength
	}
	return oracle.MaxSecretLength
}

func effectiveRedetectLimit() int {
	if redetectLimit >= 0 {
		return redetectLimit
	}
	return config.Global.Solver.RedetectLimit
}

// openHistoryStore opens the run ledger, or returns nil when history
// is disabled by config or the --no-history flag. Callers must Close
// a non-nil store.
func openHistoryStore() *history.Store {
	if noHistory || config.Global.History.Disabled {
		return nil
	}
	store, err := history.Open(history.DefaultConfig(config.Global.History.Path))
	if err != nil {
		logger.Warn("History unavailable, run will not be recorded", "error", err)
		return nil
	}
	return store
}

// recordRun appends one finished run to the ledger. Best effort: a
// recording failure warns but never fails the command.
func recordRun(store *history.Store, o oracle.Oracle, res *solver.Result, solveErr error, source string, started time.Time) {
	if store == nil {
		return
	}

	rec := history.Record{
		StartedAt: started,
		Source:    source,
	}
	if solveErr != nil {
		rec.Duration = time.Since(started)
		rec.Error = solveErr.Error()
		if qc, ok := o.(oracle.QueryCounter); ok {
			rec.Queries = int(qc.Queries())
		}
	} else {
		rec.Duration = res.Duration
		rec.Code = res.Code
		rec.Length = res.Length
		rec.Queries = res.Queries
		rec.Redetections = res.Redetections
		rec.Success = true
	}

	saved, err := store.Append(context.Background(), rec)
	if err != nil {
		logger.Warn("Failed to record the run", "error", err)
		return
	}
	logger.Debug("Run recorded", "id", saved.ID)
}

// machineOutput reports whether results should print as JSON.
func machineOutput() bool {
	return jsonOutput || ux.GetPersonality().Level == ux.PersonalityMachine
}

// truncateString truncates a string to max length with ellipsis.
func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
