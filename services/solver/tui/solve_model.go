// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tui provides the live solve view for interactive terminals.
//
// # Description
//
// This package implements the solve progress TUI using bubbletea. It
// renders the candidate mask, per-letter counts, and a scrolling event
// log while a run is in flight, driven entirely by the solver's event
// stream. Events are delivered with Program.Send, so the model never
// touches the emitter directly.
//
// # Thread Safety
//
// TUI components are designed for single-threaded use within the
// bubbletea event loop. Do not access TUI state from multiple
// goroutines.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/AleutianAI/sonar/services/solver"
	"github.com/AleutianAI/sonar/services/solver/events"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Messages
// =============================================================================

// EventMsg delivers one solver event into the TUI event loop.
type EventMsg struct {
	Event events.Event
}

// DoneMsg signals that the solve goroutine finished.
type DoneMsg struct {
	Result solver.Result
	Err    error
}

// =============================================================================
// Config
// =============================================================================

// SolveViewConfig configures the solve TUI.
type SolveViewConfig struct {
	// OracleName labels the oracle in the header (e.g. "local",
	// "http://host:port").
	OracleName string

	// Cancel stops the solve when the user quits mid-run. May be nil.
	Cancel func()

	// LogLines bounds the scrollback kept in the event log (default: 500).
	LogLines int

	// Width overrides terminal width (0 = auto-detect).
	Width int

	// Height overrides terminal height (0 = auto-detect).
	Height int
}

// DefaultSolveViewConfig returns sensible defaults.
func DefaultSolveViewConfig() SolveViewConfig {
	return SolveViewConfig{
		OracleName: "local",
		LogLines:   500,
	}
}

// =============================================================================
// Model
// =============================================================================

const (
	headerHeight = 7
	footerHeight = 2
	barWidth     = 30
)

// SolveModel is the bubbletea model for the live solve view.
//
// # Description
//
// Tracks the run's visible state: the phase, the discovered length, the
// confirmed-position mask, measured letter counts, and a bounded event
// log rendered through a viewport.
type SolveModel struct {
	// Configuration
	config SolveViewConfig

	// Run identity and parameters, learned from the start event
	runID    string
	alphabet string

	// Progress state
	phase        string
	length       int
	mask         []rune
	counts       map[string]int
	measured     []string
	queries      int
	eliminated   int
	redetections int
	shortCircuit bool

	// Event log
	log []string

	// Viewport for scrolling
	viewport viewport.Model

	// Confirmed-position bar, rendered statically via ViewAs
	bar progress.Model

	// Terminal dimensions
	width  int
	height int

	// State flags
	ready    bool
	done     bool
	quitting bool

	// Result
	result solver.Result
	err    error
}

// NewSolveModel creates a new solve view model.
//
// # Inputs
//
//   - config: Configuration options.
//
// # Outputs
//
//   - SolveModel: Ready-to-use model for tea.NewProgram.
func NewSolveModel(config SolveViewConfig) SolveModel {
	if config.LogLines <= 0 {
		config.LogLines = 500
	}

	return SolveModel{
		config: config,
		phase:  "waiting for run",
		counts: make(map[string]int),
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
		),
	}
}

// Init implements tea.Model.
func (m SolveModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m SolveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		viewportHeight := m.height - headerHeight - footerHeight
		if viewportHeight < 1 {
			viewportHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}

		m.refreshLog()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c":
			if m.config.Cancel != nil {
				m.config.Cancel()
			}
			m.quitting = true
			return m, tea.Quit

		case "j", "down":
			m.viewport.LineDown(1)

		case "k", "up":
			m.viewport.LineUp(1)

		case "ctrl+d":
			m.viewport.HalfViewDown()

		case "ctrl+u":
			m.viewport.HalfViewUp()

		case "g", "home":
			m.viewport.GotoTop()

		case "G", "end":
			m.viewport.GotoBottom()
		}

	case EventMsg:
		m.applyEvent(msg.Event)
		m.refreshLog()
		m.viewport.GotoBottom()

	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m SolveModel) View() string {
	if m.quitting && !m.done {
		return "Solve cancelled.\n"
	}

	if !m.ready {
		return "Starting solve...\n"
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// =============================================================================
// Event Handling
// =============================================================================

// applyEvent folds one solver event into the view state.
func (m *SolveModel) applyEvent(e events.Event) {
	if e.Step > m.queries {
		m.queries = e.Step
	}

	switch e.Type {
	case events.TypeSolveStarted:
		if d, ok := e.Data.(events.SolveStartedData); ok {
			m.runID = e.RunID
			m.alphabet = d.Alphabet
			m.phase = "detecting length"
			m.appendLog(infoStyle.Render(fmt.Sprintf("◆ solve started  alphabet %s  max length %d",
				d.Alphabet, d.MaxLength)))
		}

	case events.TypeProbeIssued:
		if d, ok := e.Data.(events.ProbeIssuedData); ok {
			m.phase = phaseLabel(d.Phase)
			m.appendLog(probeStyle.Render(fmt.Sprintf("  #%-4d %s = %d", d.Sequence, d.Guess, d.Matches)))
		}

	case events.TypeLengthDetected:
		if d, ok := e.Data.(events.LengthDetectedData); ok {
			m.length = d.Length
			m.mask = make([]rune, d.Length)
			m.phase = "profiling letters"
			m.appendLog(infoStyle.Render(fmt.Sprintf("◆ length %d  (%d probes, %s appears %d times)",
				d.Length, d.Probes, d.BaseLetter, d.BaseCount)))
		}

	case events.TypeLetterMeasured:
		if d, ok := e.Data.(events.LetterMeasuredData); ok {
			if _, seen := m.counts[d.Letter]; !seen {
				m.measured = append(m.measured, d.Letter)
			}
			m.counts[d.Letter] = d.Count
			m.appendLog(fmt.Sprintf("  letter %s appears %d times", d.Letter, d.Count))
		}

	case events.TypeShortCircuit:
		if d, ok := e.Data.(events.ShortCircuitData); ok {
			m.shortCircuit = true
			m.length = d.Length
			m.mask = []rune(strings.Repeat(d.Letter, d.Length))
			m.phase = "solved"
			m.appendLog(successStyle.Render(fmt.Sprintf("✓ single letter secret: %s repeated %d times",
				d.Letter, d.Length)))
		}

	case events.TypeCandidateSeeded:
		if d, ok := e.Data.(events.CandidateSeededData); ok {
			m.phase = "locating letters"
			m.appendLog(infoStyle.Render(fmt.Sprintf("◆ candidate %s  baseline %d", d.Candidate, d.Baseline)))
		}

	case events.TypeGroupAssigned:
		if d, ok := e.Data.(events.GroupAssignedData); ok {
			m.setMask(d.Letter, d.Positions)
			m.appendLog(successStyle.Render(fmt.Sprintf("✓ %s confirmed at %s", d.Letter, positionList(d.Positions))))
		}

	case events.TypeLetterEliminated:
		if d, ok := e.Data.(events.LetterEliminatedData); ok {
			m.eliminated += len(d.Positions)
			m.appendLog(probeStyle.Render(fmt.Sprintf("  %s ruled out at %s", d.Letter, positionList(d.Positions))))
		}

	case events.TypePositionConfirmed:
		if d, ok := e.Data.(events.PositionConfirmedData); ok {
			m.setMask(d.Letter, []int{d.Position})
			m.appendLog(successStyle.Render(fmt.Sprintf("✓ position %d = %s  (%d open)",
				d.Position, d.Letter, d.Open)))
		}

	case events.TypeForcedFill:
		if d, ok := e.Data.(events.ForcedFillData); ok {
			m.setMask(d.Letter, d.Positions)
			m.appendLog(successStyle.Render(fmt.Sprintf("✓ %s forced at %s", d.Letter, positionList(d.Positions))))
		}

	case events.TypeBaselineRefreshed:
		if d, ok := e.Data.(events.BaselineRefreshedData); ok {
			m.appendLog(probeStyle.Render(fmt.Sprintf("  baseline refreshed: %d", d.Baseline)))
		}

	case events.TypeLengthConflict:
		if d, ok := e.Data.(events.LengthConflictData); ok {
			m.redetections = d.Attempt
			m.length = 0
			m.mask = nil
			m.counts = make(map[string]int)
			m.measured = nil
			m.eliminated = 0
			m.phase = "re-detecting length"
			m.appendLog(warnStyle.Render(fmt.Sprintf("⚠ length conflict, redetection %d of %d",
				d.Attempt, d.Limit)))
		}

	case events.TypeSolveCompleted:
		if d, ok := e.Data.(events.SolveCompletedData); ok {
			m.length = d.Length
			m.mask = []rune(d.Code)
			m.phase = "solved"
			m.appendLog(successStyle.Render(fmt.Sprintf("✓ solved %s in %d queries (%s)",
				d.Code, d.Queries, d.Duration.Round(time.Millisecond))))
		}

	case events.TypeSolveFailed:
		if d, ok := e.Data.(events.SolveFailedData); ok {
			m.phase = "failed"
			m.appendLog(errStyle.Render(fmt.Sprintf("✗ solve failed: %s", d.Error)))
		}
	}
}

// setMask records confirmed letters, growing the mask if a position
// event arrives before length detection has been observed.
func (m *SolveModel) setMask(letter string, positions []int) {
	if letter == "" {
		return
	}
	r := []rune(letter)[0]
	for _, pos := range positions {
		if pos < 0 {
			continue
		}
		for pos >= len(m.mask) {
			m.mask = append(m.mask, 0)
		}
		m.mask[pos] = r
	}
	if len(m.mask) > m.length {
		m.length = len(m.mask)
	}
}

func (m *SolveModel) appendLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > m.config.LogLines {
		m.log = m.log[len(m.log)-m.config.LogLines:]
	}
}

func (m *SolveModel) refreshLog() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.log, "\n"))
}

func (m SolveModel) confirmed() int {
	n := 0
	for _, r := range m.mask {
		if r != 0 {
			n++
		}
	}
	return n
}

// =============================================================================
// Rendering
// =============================================================================

func (m SolveModel) renderHeader() string {
	var b strings.Builder

	title := titleStyle.Render("sonar solve")
	if m.runID != "" {
		title += "  " + statStyle.Render(shortID(m.runID))
	}
	b.WriteString(title)
	b.WriteString("\n")

	stats := fmt.Sprintf("oracle %s", m.config.OracleName)
	if m.alphabet != "" {
		stats += fmt.Sprintf("   alphabet %s", m.alphabet)
	}
	stats += fmt.Sprintf("   queries %d   %s", m.queries, m.phase)
	if m.eliminated > 0 {
		stats += fmt.Sprintf("   eliminated %d", m.eliminated)
	}
	if m.redetections > 0 {
		stats += fmt.Sprintf("   redetections %d", m.redetections)
	}
	b.WriteString(statStyle.Render(stats))
	b.WriteString("\n\n")

	b.WriteString(m.renderMask())
	b.WriteString("\n")
	b.WriteString(m.renderProgress())
	b.WriteString("\n")
	b.WriteString(m.renderCounts())
	b.WriteString("\n")

	return b.String()
}

func (m SolveModel) renderMask() string {
	if m.length == 0 {
		return statStyle.Render("length unknown")
	}

	parts := make([]string, 0, len(m.mask))
	for _, r := range m.mask {
		if r == 0 {
			parts = append(parts, maskOpenStyle.Render("·"))
		} else {
			parts = append(parts, maskSetStyle.Render(string(r)))
		}
	}
	return strings.Join(parts, " ")
}

func (m SolveModel) renderProgress() string {
	if m.length == 0 {
		return m.bar.ViewAs(0) + statStyle.Render("   0/? positions")
	}

	confirmed := m.confirmed()
	return fmt.Sprintf("%s   %d/%d positions",
		m.bar.ViewAs(float64(confirmed)/float64(m.length)), confirmed, m.length)
}

func (m SolveModel) renderCounts() string {
	if len(m.measured) == 0 {
		return statStyle.Render("counts pending")
	}

	parts := make([]string, 0, len(m.measured))
	for _, letter := range m.measured {
		parts = append(parts, fmt.Sprintf("%s:%d", letter, m.counts[letter]))
	}
	return statStyle.Render("counts  " + strings.Join(parts, "  "))
}

func (m SolveModel) renderFooter() string {
	if m.done {
		if m.err != nil {
			return errStyle.Render(fmt.Sprintf("✗ solve failed: %v", m.err))
		}
		return successStyle.Render(fmt.Sprintf("✓ solved %s in %d queries (%s)",
			m.result.Code, m.result.Queries, m.result.Duration.Round(time.Millisecond)))
	}

	return helpKeyStyle.Render("q") + helpDescStyle.Render(" quit   ") +
		helpKeyStyle.Render("j/k") + helpDescStyle.Render(" scroll   ") +
		helpKeyStyle.Render("g/G") + helpDescStyle.Render(" top/bottom")
}

// =============================================================================
// Result Access
// =============================================================================

// Result returns the solve outcome after the TUI exits.
func (m SolveModel) Result() (solver.Result, error) {
	return m.result, m.err
}

// Cancelled reports whether the user quit before the run finished.
func (m SolveModel) Cancelled() bool {
	return m.quitting && !m.done
}

// =============================================================================
// Helpers
// =============================================================================

func phaseLabel(phase string) string {
	switch phase {
	case events.PhaseDetect:
		return "detecting length"
	case events.PhaseProfile:
		return "profiling letters"
	case events.PhaseSeed:
		return "seeding candidate"
	case events.PhaseLocate:
		return "locating letters"
	case events.PhaseRefine:
		return "refining positions"
	default:
		return phase
	}
}

func positionList(positions []int) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(parts, ",")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// =============================================================================
// Styles
// =============================================================================

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("44"))

	statStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	maskSetStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	maskOpenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	probeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("44"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("44")).
			Bold(true)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))
)
