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
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/AleutianAI/sonar/pkg/ux"
	"github.com/AleutianAI/sonar/services/oracle"
	"github.com/AleutianAI/sonar/services/solver"
	"github.com/AleutianAI/sonar/services/solver/events"
	"github.com/AleutianAI/sonar/services/solver/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func runSolveCommand(cmd *cobra.Command, args []string) {
	secret, err := resolveSecret()
	if err != nil {
		log.Fatalf("Cannot arm the oracle: %v", err)
	}

	o, err := oracle.NewLocal(secret, oracle.WithAlphabet(effectiveAlphabet()))
	if err != nil {
		log.Fatalf("Cannot arm the oracle: %v", err)
	}
	defer o.Close()

	executeSolve(context.Background(), o, "local", "local")
}

// executeSolve runs the solver against o, streams progress per the
// active output mode, records the run, and prints the outcome.
// Shared by the solve, crack, and play commands.
func executeSolve(ctx context.Context, o oracle.Oracle, oracleDesc, source string) {
	em := events.NewEmitter()

	cfg := solver.Config{
		Alphabet:      effectiveAlphabet(),
		MaxLength:     effectiveMaxLength(),
		RedetectLimit: effectiveRedetectLimit(),
		Events:        em,
	}
	s, err := solver.New(o, cfg)
	if err != nil {
		log.Fatalf("Failed to build the solver: %v", err)
	}

	started := time.Now()
	var res *solver.Result
	var solveErr error

	if watchLive && ux.IsInteractive() {
		res, solveErr = runSolveView(ctx, s, em, oracleDesc)
	} else {
		attachConsoleSubscriber(em)
		res, solveErr = s.Run(ctx)
	}

	if store := openHistoryStore(); store != nil {
		recordRun(store, o, res, solveErr, source, started)
		store.Close()
	}

	if solveErr != nil {
		if machineOutput() {
			outputErrorJSON(solveErr)
		} else {
			ux.Error(fmt.Sprintf("Solve failed: %v", solveErr))
		}
		os.Exit(1)
	}

	if machineOutput() {
		outputResultJSON(res)
	} else {
		outputResultText(res, oracleDesc)
	}
}

// attachConsoleSubscriber prints solve progress as plain lines.
// Probe-level detail only appears with --verbose.
func attachConsoleSubscriber(em *events.Emitter) {
	em.Subscribe(func(e *events.Event) {
		switch e.Type {
		case events.TypeSolveStarted:
			if d, ok := e.Data.(events.SolveStartedData); ok && ux.ShouldShowProgress() {
				ux.Info(fmt.Sprintf("Sounding with alphabet %s, max length %d", d.Alphabet, d.MaxLength))
			}
		case events.TypeProbeIssued:
			if d, ok := e.Data.(events.ProbeIssuedData); ok && verboseProbes {
				fmt.Printf("  #%d [%s] %s -> %d\n", d.Sequence, d.Phase, d.Guess, d.Matches)
			}
		case events.TypeLengthDetected:
			if d, ok := e.Data.(events.LengthDetectedData); ok && ux.ShouldShowProgress() {
				ux.Info(fmt.Sprintf("Depth found: length %d after %d probes (%s appears %d times)",
					d.Length, d.Probes, d.BaseLetter, d.BaseCount))
			}
		case events.TypeShortCircuit:
			if d, ok := e.Data.(events.ShortCircuitData); ok && ux.ShouldShowProgress() {
				ux.Info(fmt.Sprintf("Single-letter secret: %s repeated %d times", d.Letter, d.Length))
			}
		case events.TypeCandidateSeeded:
			if d, ok := e.Data.(events.CandidateSeededData); ok && verboseProbes {
				fmt.Printf("  seeded candidate %s (baseline %d)\n", d.Candidate, d.Baseline)
			}
		case events.TypeLengthConflict:
			if d, ok := e.Data.(events.LengthConflictData); ok {
				ux.Warning(fmt.Sprintf("Oracle rejected the length, re-detecting (attempt %d of %d)",
					d.Attempt, d.Limit))
			}
		}
	})
}

// runSolveView drives the live bubbletea view while the solver runs in
// the background. Solver events reach the view through Program.Send,
// and the q key cancels the run via the shared context.
func runSolveView(ctx context.Context, s *solver.Solver, em *events.Emitter, oracleDesc string) (*solver.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	viewCfg := tui.DefaultSolveViewConfig()
	viewCfg.OracleName = oracleDesc
	viewCfg.Cancel = cancel

	p := tea.NewProgram(tui.NewSolveModel(viewCfg), tea.WithOutput(os.Stderr))

	subID := em.Subscribe(func(e *events.Event) {
		p.Send(tui.EventMsg{Event: *e})
	})
	defer em.Unsubscribe(subID)

	go func() {
		res, err := s.Run(ctx)
		msg := tui.DoneMsg{Err: err}
		if res != nil {
			msg.Result = *res
		}
		p.Send(msg)
	}()

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("solve view failed: %w", err)
	}
	final, ok := finalModel.(tui.SolveModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type %T from solve view", finalModel)
	}
	if final.Cancelled() {
		return nil, context.Canceled
	}
	res, rerr := final.Result()
	if rerr != nil {
		return nil, rerr
	}
	return &res, nil
}

// outputResultJSON outputs the result as JSON.
func outputResultJSON(res *solver.Result) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(res); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		os.Exit(1)
	}
}

// outputErrorJSON outputs a failure as JSON.
func outputErrorJSON(err error) {
	result := map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.Encode(result)
}

// outputResultText outputs the result as human-readable text.
func outputResultText(res *solver.Result, oracleDesc string) {
	fmt.Println()
	fmt.Printf("╔══════════════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║                         SECRET RECOVERED                          ║\n")
	fmt.Printf("╠══════════════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Code:       %-50s  ║\n", truncateString(res.Code, 50))
	fmt.Printf("║  Oracle:     %-50s  ║\n", truncateString(oracleDesc, 50))
	fmt.Printf("╠══════════════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Length:          %10d                                      ║\n", res.Length)
	fmt.Printf("║  Queries:         %10d                                      ║\n", res.Queries)
	fmt.Printf("║  Duration:        %10.2fs                                     ║\n", res.Duration.Seconds())
	fmt.Printf("╠══════════════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Letter counts:   %-47s ║\n", formatCounts(res.Counts, effectiveAlphabet()))
	fmt.Printf("╚══════════════════════════════════════════════════════════════════╝\n")

	if res.ShortCircuit {
		fmt.Printf("  %s resolved on the single-letter path\n", ux.IconPing.Render())
	}
	if res.Redetections > 0 {
		fmt.Printf("  %s length re-detected %d time(s) mid-run\n", ux.IconWarning.Render(), res.Redetections)
	}
}

// formatCounts renders letter counts in alphabet order, skipping
// letters absent from the secret.
func formatCounts(counts map[string]int, alpha string) string {
	parts := make([]string, 0, len(counts))
	for _, r := range alpha {
		letter := string(r)
		if n := counts[letter]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", letter, n))
		}
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, "  ")
}
