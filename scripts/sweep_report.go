//go:build ignore

// Dev script to exercise the full solve pipeline and report query spend.
// Run with: go run scripts/sweep_report.go
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/AleutianAI/sonar/services/oracle"
	"github.com/AleutianAI/sonar/services/solver"
	"github.com/AleutianAI/sonar/services/solver/events"
)

const runsPerLength = 25

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println("╔══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║              SOLVE PIPELINE QUERY SPEND REPORT                    ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════╝")

	// 1. One narrated solve to show the event stream end to end
	fmt.Println("\n┌─────────────────────────────────────────────────────────────────┐")
	fmt.Println("│ Step 1: Narrated single solve                                   │")
	fmt.Println("└─────────────────────────────────────────────────────────────────┘")

	secret := "BACXIUBA"
	o, err := oracle.NewLocal(secret)
	if err != nil {
		log.Fatalf("  ✗ oracle failed to arm: %v", err)
	}

	em := events.NewEmitter()
	em.Subscribe(func(e *events.Event) {
		switch d := e.Data.(type) {
		case events.LengthDetectedData:
			fmt.Printf("  ✓ length %d found after %d probes (%s x%d)\n",
				d.Length, d.Probes, d.BaseLetter, d.BaseCount)
		case events.CandidateSeededData:
			fmt.Printf("  ✓ candidate %s seeded at baseline %d\n", d.Candidate, d.Baseline)
		case events.SolveCompletedData:
			fmt.Printf("  ✓ recovered %s in %d queries\n", d.Code, d.Queries)
		}
	})

	s, err := solver.New(o, solver.Config{Events: em})
	if err != nil {
		log.Fatalf("  ✗ solver rejected config: %v", err)
	}
	if _, err := s.Run(ctx); err != nil {
		log.Fatalf("  ✗ solve failed: %v", err)
	}
	o.Close()

	// 2. Sweep every length with random secrets
	fmt.Println("\n┌─────────────────────────────────────────────────────────────────┐")
	fmt.Printf("│ Step 2: Sweeping lengths 1..%d, %d random secrets each          │\n",
		oracle.MaxSecretLength, runsPerLength)
	fmt.Println("└─────────────────────────────────────────────────────────────────┘")

	alpha := oracle.DefaultAlphabet
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))

	fmt.Printf("  %6s  %6s  %6s  %6s\n", "LENGTH", "MIN", "MEAN", "MAX")
	var grandTotal, grandRuns int
	for length := 1; length <= oracle.MaxSecretLength; length++ {
		minQ, maxQ, total := 1<<31, 0, 0
		for run := 0; run < runsPerLength; run++ {
			var sb strings.Builder
			for j := 0; j < length; j++ {
				sb.WriteByte(alpha[rng.IntN(len(alpha))])
			}
			code := sb.String()

			ro, err := oracle.NewLocal(code)
			if err != nil {
				log.Fatalf("  ✗ oracle failed for %q: %v", code, err)
			}
			rs, err := solver.New(ro, solver.Config{})
			if err != nil {
				log.Fatalf("  ✗ solver rejected config: %v", err)
			}
			res, err := rs.Run(ctx)
			if err != nil {
				log.Fatalf("  ✗ solve failed for %q: %v", code, err)
			}
			if res.Code != code {
				log.Fatalf("  ✗ WRONG RECOVERY: got %q want %q", res.Code, code)
			}
			ro.Close()

			total += res.Queries
			if res.Queries < minQ {
				minQ = res.Queries
			}
			if res.Queries > maxQ {
				maxQ = res.Queries
			}
		}
		grandTotal += total
		grandRuns += runsPerLength
		fmt.Printf("  %6d  %6d  %6.1f  %6d\n",
			length, minQ, float64(total)/float64(runsPerLength), maxQ)
	}

	// 3. Short-circuit path
	fmt.Println("\n┌─────────────────────────────────────────────────────────────────┐")
	fmt.Println("│ Step 3: Single-letter short circuit                             │")
	fmt.Println("└─────────────────────────────────────────────────────────────────┘")

	so, err := oracle.NewLocal(strings.Repeat("U", 12))
	if err != nil {
		log.Fatalf("  ✗ oracle failed to arm: %v", err)
	}
	ss, _ := solver.New(so, solver.Config{})
	sres, err := ss.Run(ctx)
	if err != nil {
		log.Fatalf("  ✗ solve failed: %v", err)
	}
	so.Close()
	fmt.Printf("  ✓ UUUUUUUUUUUU resolved in %d queries, short_circuit=%v\n",
		sres.Queries, sres.ShortCircuit)

	// Summary
	fmt.Println("\n╔══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                    SWEEP SUMMARY                                  ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════════╣")
	fmt.Printf("║  Solves:           %-6d ✓ all recovered                         ║\n", grandRuns+2)
	fmt.Printf("║  Mean queries:     %-6.1f                                         ║\n",
		float64(grandTotal)/float64(grandRuns))
	fmt.Println("║  Pipeline:         ✓ FULLY OPERATIONAL                            ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════╝")
}
