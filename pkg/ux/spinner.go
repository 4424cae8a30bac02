// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// SpinnerType picks the animation frames.
type SpinnerType int

const (
	// SpinnerPing pulses like an active sonar contact. The default.
	SpinnerPing SpinnerType = iota
	SpinnerDots
	SpinnerWave
)

func (t SpinnerType) frames() []string {
	switch t {
	case SpinnerDots:
		return []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	case SpinnerWave:
		return []string{"~", "≈", "≋", "≈"}
	default:
		return []string{"·", "•", "●", "◉", "●", "•"}
	}
}

// Spinner animates a one-line wait indicator on stdout. In machine
// mode it prints the message once and animates nothing.
type Spinner struct {
	mu       sync.Mutex
	message  string
	typ      SpinnerType
	running  bool
	animated bool
	stop     chan struct{}
	done     chan struct{}
}

func NewSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// WithType selects the animation. Call before Start.
func (s *Spinner) WithType(t SpinnerType) *Spinner {
	s.typ = t
	return s
}

// SetMessage swaps the displayed text. Safe while the animation runs.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Start begins the animation. A second Start is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.animated = level() != PersonalityMachine
	if !s.animated {
		fmt.Printf("PROGRESS: %s\n", s.message)
		return
	}
	go s.animate()
}

// animate redraws the line on every tick until stop closes. It owns
// the done channel so Stop can wait for the final line clear.
func (s *Spinner) animate() {
	frames := s.typ.frames()
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-s.stop:
			fmt.Print("\r\033[K")
			close(s.done)
			return
		case <-ticker.C:
			s.mu.Lock()
			msg := s.message
			s.mu.Unlock()
			fmt.Printf("\r%s %s", Styles.Accent.Render(frames[i%len(frames)]), msg)
		}
	}
}

// Stop halts the animation and clears the line. Stop cannot hold the
// lock while waiting, because animate takes it to read the message.
func (s *Spinner) Stop() {
	s.mu.Lock()
	wasAnimating := s.running && s.animated
	s.running = false
	s.mu.Unlock()

	if wasAnimating {
		close(s.stop)
		<-s.done
	}
}

// StopWithSuccess stops the animation and prints a success line.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	Success(message)
}

// StopWithError stops the animation and prints an error line.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	Error(message)
}

// ProgressSpinner is a Spinner that appends a [done/total] counter to
// its message.
type ProgressSpinner struct {
	*Spinner
	base  string
	total int
	n     atomic.Int64
}

func NewProgressSpinner(message string, total int) *ProgressSpinner {
	return &ProgressSpinner{
		Spinner: NewSpinner(fmt.Sprintf("%s [0/%d]", message, total)),
		base:    message,
		total:   total,
	}
}

// Increment advances the counter by one. Safe from worker goroutines.
func (p *ProgressSpinner) Increment() {
	n := p.n.Add(1)
	p.SetMessage(fmt.Sprintf("%s [%d/%d]", p.base, n, p.total))
}
