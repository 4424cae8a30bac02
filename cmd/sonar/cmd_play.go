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
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"github.com/AleutianAI/sonar/pkg/ux"
	"github.com/AleutianAI/sonar/services/oracle"
	"github.com/AleutianAI/sonar/services/solver"
	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// runPlayCommand hides a random code and lets the user ping it by hand,
// then runs the solver on the same code so the two query counts can be
// compared.
func runPlayCommand(cmd *cobra.Command, args []string) {
	// Piped stdin (CI, scripts) cannot drive the prompt loop
	if !ux.IsInteractive() ||
		(!isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd())) {
		log.Fatalf("play needs an interactive terminal; use 'sonar solve --secret' for scripting")
	}

	alpha := effectiveAlphabet()
	maxLen := effectiveMaxLength()
	secret := randomSecret(alpha, 1+rand.IntN(maxLen))

	o, err := oracle.NewLocal(secret, oracle.WithAlphabet(alpha))
	if err != nil {
		log.Fatalf("Cannot arm the oracle: %v", err)
	}
	defer o.Close()

	ux.Title("Sonar play")
	ux.Info(fmt.Sprintf("A code of up to %d letters from %s is hiding below.", maxLen, alpha))
	ux.Muted("Each ping reports how many letters sit in the right position.")
	fmt.Println()

	won := playLoop(o, alpha)
	humanPings := o.Queries()

	if !won {
		fmt.Println()
		ux.Warning(fmt.Sprintf("The code was %s. Let's see what the machine needs.", secret))
	}

	// Fresh oracle for the machine pass so its counter starts at zero
	mo, err := oracle.NewLocal(secret, oracle.WithAlphabet(alpha))
	if err != nil {
		log.Fatalf("Cannot re-arm the oracle: %v", err)
	}
	defer mo.Close()

	s, err := solver.New(mo, solver.Config{
		Alphabet:      alpha,
		MaxLength:     maxLen,
		RedetectLimit: effectiveRedetectLimit(),
	})
	if err != nil {
		log.Fatalf("Cannot build the solver: %v", err)
	}

	started := time.Now()
	res, err := s.Run(context.Background())
	if err != nil {
		log.Fatalf("Solver failed on its own code: %v", err)
	}

	if store := openHistoryStore(); store != nil {
		recordRun(store, mo, res, nil, "local", started)
		store.Close()
	}

	printPlayReport(won, secret, humanPings, res)
}

// playLoop prompts for pings until the code is hit or the user gives
// up. Returns true on a direct hit.
func playLoop(o *oracle.Local, alpha string) bool {
	for ping := 1; ; ping++ {
		var guess string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title(fmt.Sprintf("Ping %d", ping)).
					Description("Letters only. Leave empty to surrender.").
					CharLimit(oracle.MaxSecretLength).
					Validate(func(s string) error {
						if s == "" {
							return nil
						}
						return oracle.ValidateSecret(s, alpha)
					}).
					Value(&guess),
			),
		)

		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				ux.Muted("Abandoned ship.")
				return false
			}
			log.Fatalf("Prompt failed: %v", err)
		}
		if guess == "" {
			return false
		}

		matches, err := o.Evaluate(context.Background(), guess)
		if err != nil {
			log.Fatalf("Oracle failed: %v", err)
		}

		switch {
		case matches == oracle.MatchWrongLength:
			fmt.Printf("  %s depth off, the code is not %d letters\n",
				ux.IconWave.Render(), len(guess))
		case matches == len(guess):
			fmt.Printf("  %s direct hit, all %d letters land\n",
				ux.IconSuccess.Render(), matches)
			return true
		default:
			fmt.Printf("  %s %d of %d letters land\n",
				ux.IconPing.Render(), matches, len(guess))
		}
	}
}

func printPlayReport(won bool, secret string, humanPings uint64, res *solver.Result) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║  DUEL COMPLETE                                                   ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════════╣")
	fmt.Printf("║  Code:            %-46s ║\n", truncateString(secret, 46))
	if won {
		fmt.Printf("║  You:             %10d pings (recovered)                   ║\n", humanPings)
	} else {
		fmt.Printf("║  You:             %10d pings (surrendered)                 ║\n", humanPings)
	}
	fmt.Printf("║  Solver:          %10d queries in %8.2fs                ║\n",
		res.Queries, res.Duration.Seconds())
	fmt.Println("╚══════════════════════════════════════════════════════════════════╝")

	switch {
	case !won:
		ux.Info(fmt.Sprintf("The solver needed %d queries. Next time, sound the depth first.", res.Queries))
	case humanPings < uint64(res.Queries):
		ux.Success(fmt.Sprintf("You beat the solver by %d queries. Impressive sounding.",
			res.Queries-int(humanPings)))
	case humanPings == uint64(res.Queries):
		ux.Info(fmt.Sprintf("Dead heat at %d queries apiece.", res.Queries))
	default:
		ux.Info(fmt.Sprintf("The solver wins by %d queries. It cheats with arithmetic.",
			int(humanPings)-res.Queries))
	}
}
