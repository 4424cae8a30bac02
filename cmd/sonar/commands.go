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
	"log"

	"github.com/AleutianAI/sonar/cmd/sonar/config"
	"github.com/AleutianAI/sonar/pkg/ux"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	personalityLevel string // UX personality level (full/standard/minimal/machine)

	secretValue   string
	secretFile    string
	alphabetFlag  string
	maxLength     int
	redetectLimit int
	watchLive     bool
	verboseProbes bool
	jsonOutput    bool
	noHistory     bool

	servePort      int
	serveGinMode   string
	serveNoMetrics bool

	serverURL string
	rateLimit float64
	rateBurst int

	benchRuns    int
	benchWorkers int
	benchSeed    uint64

	historyLimit int

	rootCmd = &cobra.Command{
		Use:   "sonar",
		Short: "A cli to run, serve, and crack the sonar counting oracle",
		Long: `Sonar recovers a hidden code from a counting oracle that only
				reports how many positions of a guess match exactly. It can
				solve against an in-process oracle, host the oracle as an HTTP
				service, and crack a remote oracle over the wire.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize UX personality from flag or environment
			if personalityLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			} else {
				ux.InitPersonality()
			}
			if err := config.Load(); err != nil {
				log.Fatalf("Error loading config: %v", err)
			}
			initLogging() // Defined in helpers.go
		},
	}

	// --- Solving ---
	solveCmd = &cobra.Command{
		Use:   "solve",
		Short: "Recover a secret from an in-process oracle",
		Long: `Arms a local oracle with a secret from --secret, --secret-file,
				or the SONAR_SECRET environment variable, then runs the
				adaptive solver against it.`,
		Run: runSolveCommand, // Defined in cmd_solve.go
	}

	crackCmd = &cobra.Command{
		Use:   "crack [server-url]",
		Short: "Recover the secret hosted by a remote oracle server",
		Args:  cobra.MaximumNArgs(1),
		Run:   runCrackCommand, // Defined in cmd_crack.go
	}

	playCmd = &cobra.Command{
		Use:   "play",
		Short: "Enter a secret interactively and watch the solver find it",
		Run:   runPlayCommand, // Defined in cmd_play.go
	}

	// --- Serving ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Host the oracle HTTP API",
		Long: `Arms a local oracle and exposes it over HTTP: guess scoring,
				secret rotation, server-side solves, and a WebSocket stream of
				solver progress. With --secret-file the secret reloads whenever
				the file changes.`,
		Run: runServeCommand, // Defined in cmd_serve.go
	}

	// --- Benchmarking ---
	benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Run randomized solves and report query statistics",
		Run:   runBenchCommand, // Defined in cmd_bench.go
	}

	// --- History ---
	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded solve runs",
	}
	historyListCmd = &cobra.Command{
		Use:   "list",
		Short: "List recent solve runs, newest first",
		Run:   runHistoryList, // Defined in cmd_history.go
	}
	historyShowCmd = &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show one recorded run in full",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryShow, // Defined in cmd_history.go
	}
)

// init runs when the Go program starts
func init() {
	// Global UX personality flag
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full (default, rich nautical), standard, minimal, or machine (scripting)")

	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().StringVarP(&secretValue, "secret", "s", "", "The secret to arm the oracle with (or set SONAR_SECRET)")
	solveCmd.Flags().StringVar(&secretFile, "secret-file", "", "Read the secret from the first line of a file")
	solveCmd.Flags().StringVarP(&alphabetFlag, "alphabet", "a", "", "Probe alphabet, uppercase without repeats (default from config)")
	solveCmd.Flags().IntVar(&maxLength, "max-length", 0, "Deepest length to probe for (default from config)")
	solveCmd.Flags().IntVar(&redetectLimit, "redetect-limit", -1, "Length re-detections allowed per run (-1 uses config)")
	solveCmd.Flags().BoolVarP(&watchLive, "watch", "w", false, "Show the live solve view while running")
	solveCmd.Flags().BoolVarP(&verboseProbes, "verbose", "v", false, "Print every probe as it is issued")
	solveCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result as JSON")
	solveCmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip recording this run in history")

	rootCmd.AddCommand(crackCmd)
	crackCmd.Flags().StringVar(&serverURL, "server", "", "Oracle server base URL (default http://localhost:<config port>)")
	crackCmd.Flags().Float64Var(&rateLimit, "rate", 0, "Max oracle queries per second, 0 for unlimited (default from config)")
	crackCmd.Flags().IntVar(&rateBurst, "burst", 0, "Rate limiter burst size (default from config)")
	crackCmd.Flags().StringVarP(&alphabetFlag, "alphabet", "a", "", "Probe alphabet the remote oracle was armed with")
	crackCmd.Flags().IntVar(&maxLength, "max-length", 0, "Deepest length to probe for (default from config)")
	crackCmd.Flags().IntVar(&redetectLimit, "redetect-limit", -1, "Length re-detections allowed per run (-1 uses config)")
	crackCmd.Flags().BoolVarP(&watchLive, "watch", "w", false, "Show the live solve view while running")
	crackCmd.Flags().BoolVarP(&verboseProbes, "verbose", "v", false, "Print every probe as it is issued")
	crackCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result as JSON")
	crackCmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip recording this run in history")

	rootCmd.AddCommand(playCmd)
	playCmd.Flags().StringVarP(&alphabetFlag, "alphabet", "a", "", "Probe alphabet for the game (default from config)")
	playCmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip recording this run in history")

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default from config)")
	serveCmd.Flags().StringVarP(&secretValue, "secret", "s", "", "The secret to arm the oracle with (or set SONAR_SECRET)")
	serveCmd.Flags().StringVar(&secretFile, "secret-file", "", "Read the secret from a file and reload it on change")
	serveCmd.Flags().StringVarP(&alphabetFlag, "alphabet", "a", "", "Alphabet the oracle accepts (default from config)")
	serveCmd.Flags().StringVar(&serveGinMode, "gin-mode", "", "Gin mode: debug, release, or test")
	serveCmd.Flags().BoolVar(&serveNoMetrics, "no-metrics", false, "Disable the Prometheus /metrics endpoint")

	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().IntVar(&benchRuns, "runs", 50, "Number of randomized solve runs")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 4, "Concurrent solve workers")
	benchCmd.Flags().Uint64Var(&benchSeed, "seed", 0, "Corpus seed for reproducible sweeps (0 picks one from the clock)")
	benchCmd.Flags().StringVarP(&alphabetFlag, "alphabet", "a", "", "Probe alphabet (default from config)")
	benchCmd.Flags().IntVar(&maxLength, "max-length", 0, "Longest random secret to generate (default from config)")
	benchCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the summary as JSON")
	benchCmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip recording bench runs in history")

	// history commands
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum records to list")
	historyListCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the records as JSON")
	historyCmd.AddCommand(historyShowCmd)
	historyShowCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the record as JSON")
}
