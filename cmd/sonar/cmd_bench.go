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
	"math/rand/v2"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/sonar/pkg/ux"
	"github.com/AleutianAI/sonar/services/history"
	"github.com/AleutianAI/sonar/services/oracle"
	"github.com/AleutianAI/sonar/services/solver"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// benchOutcome is one run's measurement.
type benchOutcome struct {
	Length   int           `json:"length"`
	Queries  int           `json:"queries"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// benchSummary aggregates a full sweep.
type benchSummary struct {
	Runs         int           `json:"runs"`
	Failures     int           `json:"failures"`
	TotalQueries int           `json:"total_queries"`
	MinQueries   int           `json:"min_queries"`
	MeanQueries  float64       `json:"mean_queries"`
	MaxQueries   int           `json:"max_queries"`
	P95Queries   int           `json:"p95_queries"`
	Elapsed      time.Duration `json:"elapsed"`
}

// benchCorpus builds the sweep's secrets: an all-same and a cyclic
// secret for each length first, then seeded-random ones until runs
// are filled. The structured prefix pins the solver's best and worst
// shapes so small sweeps still see them; the same seed always yields
// the same corpus.
func benchCorpus(alpha string, maxLen, runs int, seed uint64) []string {
	corpus := make([]string, 0, runs)

	for length := 1; length <= maxLen && len(corpus) < runs; length++ {
		corpus = append(corpus, strings.Repeat(string(alpha[0]), length))
		if len(corpus) == runs {
			break
		}
		cyclic := make([]byte, length)
		for i := range cyclic {
			cyclic[i] = alpha[i%len(alpha)]
		}
		corpus = append(corpus, string(cyclic))
	}
	rng := rand.New(rand.NewPCG(seed, uint64(runs)))
	for len(corpus) < runs {
		n := 1 + rng.IntN(maxLen)
		b := make([]byte, n)
		for i := range b {
			b[i] = alpha[rng.IntN(len(alpha))]
		}
		corpus = append(corpus, string(b))
	}
	return corpus
}

func runBenchCommand(cmd *cobra.Command, args []string) {
	alpha := effectiveAlphabet()
	maxLen := effectiveMaxLength()

	runs := benchRuns
	if runs < 1 {
		runs = 1
	}
	workers := benchWorkers
	if workers < 1 {
		workers = 1
	}

	seed := benchSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	if ux.ShouldShowProgress() {
		ux.Title("Sonar bench")
		ux.Info(fmt.Sprintf("%d solves, %d workers, alphabet %s, lengths 1-%d, seed %d",
			runs, workers, alpha, maxLen, seed))
	}

	corpus := benchCorpus(alpha, maxLen, runs, seed)
	outcomes := make([]benchOutcome, runs)
	started := time.Now()

	var progress *ux.ProgressSpinner
	if ux.ShouldShowProgress() {
		progress = ux.NewProgressSpinner("Solving", runs)
		progress.Start()
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)

	for i := 0; i < runs; i++ {
		i := i // Capture loop variable

		g.Go(func() error {
			if progress != nil {
				defer progress.Increment()
			}
			secret := corpus[i]

			o, err := oracle.NewLocal(secret, oracle.WithAlphabet(alpha))
			if err != nil {
				return fmt.Errorf("arm oracle for run %d: %w", i, err)
			}
			defer o.Close()

			s, err := solver.New(o, solver.Config{
				Alphabet:      alpha,
				MaxLength:     maxLen,
				RedetectLimit: effectiveRedetectLimit(),
			})
			if err != nil {
				return fmt.Errorf("build solver for run %d: %w", i, err)
			}

			res, err := s.Run(ctx)
			if err != nil {
				// A failed solve is data, not a reason to stop the sweep
				outcomes[i] = benchOutcome{Error: err.Error()}
				return nil
			}
			if res.Code != secret {
				// A wrong recovery is a solver bug, abort everything
				return fmt.Errorf("run %d recovered %q for secret %q", i, res.Code, secret)
			}

			outcomes[i] = benchOutcome{
				Length:   res.Length,
				Queries:  res.Queries,
				Duration: res.Duration,
			}
			return nil
		})
	}

	err := g.Wait()
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		log.Fatalf("Bench aborted: %v", err)
	}
	elapsed := time.Since(started)

	summary := summarizeBench(outcomes, elapsed)

	recordBenchRuns(outcomes)

	if machineOutput() {
		out := struct {
			Summary  benchSummary   `json:"summary"`
			Outcomes []benchOutcome `json:"outcomes"`
		}{summary, outcomes}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}

	outputBenchText(summary)
}

func summarizeBench(outcomes []benchOutcome, elapsed time.Duration) benchSummary {
	s := benchSummary{Runs: len(outcomes), Elapsed: elapsed}

	queries := make([]int, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Error != "" {
			s.Failures++
			continue
		}
		queries = append(queries, o.Queries)
		s.TotalQueries += o.Queries
		if o.Queries > s.MaxQueries {
			s.MaxQueries = o.Queries
		}
	}
	if len(queries) > 0 {
		s.MeanQueries = float64(s.TotalQueries) / float64(len(queries))
		sort.Ints(queries)
		s.MinQueries = queries[0]
		s.P95Queries = queries[(len(queries)*95)/100]
	}
	return s
}

// recordBenchRuns appends every outcome to the ledger with source
// "bench". Secrets are random throwaways so codes are not stored.
func recordBenchRuns(outcomes []benchOutcome) {
	store := openHistoryStore()
	if store == nil {
		return
	}
	defer store.Close()

	ctx := context.Background()
	for _, o := range outcomes {
		rec := history.Record{
			Duration: o.Duration,
			Length:   o.Length,
			Queries:  o.Queries,
			Source:   "bench",
			Success:  o.Error == "",
			Error:    o.Error,
		}
		if _, err := store.Append(ctx, rec); err != nil {
			logger.Warn("Failed to record a bench run", "error", err)
			return
		}
	}
}

// outputBenchText outputs the sweep summary as human-readable text.
func outputBenchText(s benchSummary) {
	fmt.Println()
	fmt.Printf("╔══════════════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║                          BENCH COMPLETE                           ║\n")
	fmt.Printf("╠══════════════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Runs:            %10d                                      ║\n", s.Runs)
	fmt.Printf("║  Failures:        %10d                                      ║\n", s.Failures)
	fmt.Printf("╠══════════════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Total queries:   %10d                                      ║\n", s.TotalQueries)
	fmt.Printf("║  Min queries:     %10d                                      ║\n", s.MinQueries)
	fmt.Printf("║  Mean queries:    %10.1f                                      ║\n", s.MeanQueries)
	fmt.Printf("║  Max queries:     %10d                                      ║\n", s.MaxQueries)
	fmt.Printf("║  P95 queries:     %10d                                      ║\n", s.P95Queries)
	fmt.Printf("║  Elapsed:         %10.2fs                                     ║\n", s.Elapsed.Seconds())
	fmt.Printf("╚══════════════════════════════════════════════════════════════════╝\n")

	if s.Failures > 0 {
		ux.Warning(fmt.Sprintf("%d run(s) failed, see 'sonar history list' for details", s.Failures))
	}
}
