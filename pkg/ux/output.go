// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux styles terminal output for the sonar CLI.
//
// Every printer here respects the active personality level. In machine
// mode the output collapses to stable plaintext prefixes (OK:, WARN:,
// ERROR:) with warnings and errors on stderr, so scripts can parse
// stdout without stripping ANSI codes first.
package ux

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Sonar palette. The teals are the Aleutian brand colors; gold and red
// keep their conventional meanings.
var (
	ColorPing  = lipgloss.Color("#2CD7C7") // bright teal, hits and successes
	ColorHull  = lipgloss.Color("#20B9B4") // primary brand teal
	ColorDepth = lipgloss.Color("#16858E") // deep teal, borders
	ColorSand  = lipgloss.Color("#F4D03F") // warnings
	ColorFlare = lipgloss.Color("#E74C3C") // errors
	ColorSilt  = lipgloss.Color("#2C4A54") // muted text
)

// Styles holds the lipgloss styles shared across commands.
var Styles = struct {
	Title   lipgloss.Style
	Accent  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorPing),
	Accent:  lipgloss.NewStyle().Bold(true).Foreground(ColorHull),
	Success: lipgloss.NewStyle().Foreground(ColorPing),
	Warning: lipgloss.NewStyle().Foreground(ColorSand),
	Error:   lipgloss.NewStyle().Foreground(ColorFlare),
	Muted:   lipgloss.NewStyle().Foreground(ColorSilt),
}

// Icon is a themed status glyph.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconPing    Icon = "◉"
	IconWave    Icon = "〰"
)

// iconStyles colors each glyph to its meaning. Glyphs without an entry
// render unstyled.
var iconStyles = map[Icon]lipgloss.Style{
	IconSuccess: Styles.Success,
	IconWarning: Styles.Warning,
	IconError:   Styles.Error,
	IconPending: Styles.Muted,
	IconPing:    Styles.Accent,
}

// Render returns the icon in its semantic color.
func (i Icon) Render() string {
	if s, ok := iconStyles[i]; ok {
		return s.Render(string(i))
	}
	return string(i)
}

func level() PersonalityLevel {
	return GetPersonality().Level
}

// statusTone describes how one severity prints across the personality
// levels: its machine prefix and destination, its glyph, and its color.
type statusTone struct {
	prefix string
	dest   *os.File
	icon   Icon
	style  lipgloss.Style
}

// statusLine is the engine behind Success, Warning, and Error.
func statusLine(t statusTone, text string) {
	switch level() {
	case PersonalityMachine:
		fmt.Fprintf(t.dest, "%s %s\n", t.prefix, text)
	case PersonalityMinimal:
		fmt.Printf("%s %s\n", t.icon.Render(), text)
	default:
		fmt.Printf("%s %s\n", t.icon.Render(), t.style.Render(text))
	}
}

// Success prints a confirmation line. Machine mode emits "OK: ..." on
// stdout.
func Success(text string) {
	statusLine(statusTone{"OK:", os.Stdout, IconSuccess, Styles.Success}, text)
}

// Warning prints a warning line. Machine mode emits "WARN: ..." on
// stderr to keep stdout parseable.
func Warning(text string) {
	statusLine(statusTone{"WARN:", os.Stderr, IconWarning, Styles.Warning}, text)
}

// Error prints an error line. Machine mode emits "ERROR: ..." on
// stderr.
func Error(text string) {
	statusLine(statusTone{"ERROR:", os.Stderr, IconError, Styles.Error}, text)
}

// Title prints a bold heading. Suppressed in machine mode.
func Title(text string) {
	if level() != PersonalityMachine {
		fmt.Println(Styles.Title.Render(text))
	}
}

// Info prints a secondary line behind a gutter mark. Machine mode
// emits the bare text.
func Info(text string) {
	if level() == PersonalityMachine {
		fmt.Println(text)
		return
	}
	fmt.Printf("%s %s\n", Styles.Muted.Render("│"), text)
}

// Muted prints low-emphasis text. Suppressed in machine mode.
func Muted(text string) {
	if level() != PersonalityMachine {
		fmt.Println(Styles.Muted.Render(text))
	}
}
