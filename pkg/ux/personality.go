// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"os"
	"strings"
	"sync"
)

// PersonalityLevel selects how much flourish the CLI prints.
type PersonalityLevel string

const (
	// PersonalityFull is the interactive default: colors, icons, and
	// the occasional nautical aside.
	PersonalityFull PersonalityLevel = "full"

	// PersonalityStandard keeps colors and icons, drops the asides.
	PersonalityStandard PersonalityLevel = "standard"

	// PersonalityMinimal is icons and plain text only.
	PersonalityMinimal PersonalityLevel = "minimal"

	// PersonalityMachine is stable plaintext for pipes and scripts.
	PersonalityMachine PersonalityLevel = "machine"
)

// Personality is the active output configuration.
type Personality struct {
	Level PersonalityLevel
}

var (
	activeMu sync.RWMutex
	active   = PersonalityFull
)

// GetPersonality returns a copy of the active personality.
func GetPersonality() Personality {
	activeMu.RLock()
	defer activeMu.RUnlock()
	return Personality{Level: active}
}

// SetPersonality replaces the active personality.
func SetPersonality(p Personality) {
	SetPersonalityLevel(p.Level)
}

// SetPersonalityLevel changes the active level.
func SetPersonalityLevel(l PersonalityLevel) {
	activeMu.Lock()
	defer activeMu.Unlock()
	active = l
}

// levelNames maps flag and environment spellings, long and short, to
// their levels.
var levelNames = map[string]PersonalityLevel{
	"full": PersonalityFull, "f": PersonalityFull,
	"standard": PersonalityStandard, "std": PersonalityStandard, "s": PersonalityStandard,
	"minimal": PersonalityMinimal, "min": PersonalityMinimal, "m": PersonalityMinimal,
	"machine": PersonalityMachine, "quiet": PersonalityMachine, "q": PersonalityMachine,
}

// ParsePersonalityLevel maps a flag or environment value to a level.
// Anything unrecognized lands on standard.
func ParsePersonalityLevel(s string) PersonalityLevel {
	if l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l
	}
	return PersonalityStandard
}

// InitPersonality picks the level for this process.
func InitPersonality() {
	SetPersonalityLevel(detectLevel())
}

// detectLevel resolves the startup level: the SONAR_PERSONALITY
// environment variable wins, a real terminal on stdout gets the full
// treatment, and a piped stdout drops to machine mode.
func detectLevel() PersonalityLevel {
	if env := os.Getenv("SONAR_PERSONALITY"); env != "" {
		return ParsePersonalityLevel(env)
	}
	if stdoutIsTerminal() {
		return PersonalityFull
	}
	return PersonalityMachine
}

func stdoutIsTerminal() bool {
	info, err := os.Stdout.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// IsInteractive reports whether prompting the user makes sense:
// a real terminal on stdout and not machine mode.
func IsInteractive() bool {
	return GetPersonality().Level != PersonalityMachine && stdoutIsTerminal()
}

// ShouldShowProgress reports whether spinners, banners, and progress
// lines should be printed.
func ShouldShowProgress() bool {
	return GetPersonality().Level != PersonalityMachine
}
